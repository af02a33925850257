package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/ListingBank/internal/app/model"
	apprepository "github.com/sifan077/ListingBank/internal/app/repository"
	"github.com/sifan077/ListingBank/internal/app/timebank"
	"github.com/sifan077/ListingBank/internal/infra/prometheus"
	"go.uber.org/zap"
)

const (
	fetchBatch = 10
	fetchWait  = 5 * time.Second
)

var errUnknownEventAction = errors.New("unknown listing event action")

// fetchFunc pulls the next batch; it must return once ctx is done.
type fetchFunc func(ctx context.Context) ([]*nats.Msg, error)

// NotificationConsumer turns listing events from NATS JetStream into admin notifications
type NotificationConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   apprepository.AdminNotificationRepository
}

// NewNotificationConsumer creates a new listing event consumer
func NewNotificationConsumer(js nats.JetStreamContext, logger *zap.Logger, repo apprepository.AdminNotificationRepository) *NotificationConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationConsumer{js: js, logger: logger, repo: repo}
}

// Start ensures the stream and durable consumer exist and begins consuming until ctx is done
func (c *NotificationConsumer) Start(ctx context.Context) error {
	// Create stream if not exists
	_, err := c.js.StreamInfo(model.ListingStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.ListingStreamName,
			Subjects: []string{model.ListingStreamSubject},
			MaxBytes: model.ListingStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	// Create consumer if not exists
	_, err = c.js.ConsumerInfo(model.ListingStreamName, model.ListingConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.ListingStreamName, &nats.ConsumerConfig{
			Durable:   model.ListingConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.ListingStreamSubject, model.ListingConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go func() {
		defer func() {
			if err := sub.Unsubscribe(); err != nil {
				c.logger.Warn("failed to unsubscribe listing consumer", zap.Error(err))
			}
		}()
		c.consume(ctx, func(ctx context.Context) ([]*nats.Msg, error) {
			fetchCtx, cancel := context.WithTimeout(ctx, fetchWait)
			defer cancel()
			return sub.Fetch(fetchBatch, nats.Context(fetchCtx))
		})
	}()
	return nil
}

func (c *NotificationConsumer) consume(ctx context.Context, fetch fetchFunc) {
	for {
		msgs, err := fetch(ctx)
		if ctx.Err() != nil {
			c.logger.Info("listing event consumer stopped")
			return
		}
		if err != nil && !errors.Is(err, nats.ErrTimeout) && !errors.Is(err, context.DeadlineExceeded) {
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			if err := c.Handle(ctx, msg.Data); err != nil {
				c.logger.Error("failed to handle listing event", zap.Error(err))
				_ = msg.Nak()
				continue
			}
			_ = msg.Ack()
		}
	}
}

// Handle decodes a single event payload and stores the matching notification.
func (c *NotificationConsumer) Handle(ctx context.Context, data []byte) error {
	var event model.ListingEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("unmarshal listing event: %w", err)
	}

	notification, err := notificationFor(event)
	if err != nil {
		return err
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("store notification for listing %s: %w", event.ListingID, err)
	}
	prometheus.AdminNotificationsStored.WithLabelValues(notification.Type).Inc()

	c.logger.Debug("admin notification stored",
		zap.String("event_id", event.ID),
		zap.String("listing_id", event.ListingID),
		zap.String("type", notification.Type),
	)
	return nil
}

func notificationFor(event model.ListingEvent) (*model.AdminNotification, error) {
	var kind, verb string
	switch timebank.Action(event.Action) {
	case timebank.ActionPause:
		kind, verb = model.NotificationListingPaused, "paused"
	case timebank.ActionResume:
		kind, verb = model.NotificationListingResumed, "resumed"
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownEventAction, event.Action)
	}

	return &model.AdminNotification{
		ID:        uuid.New().String(),
		Type:      kind,
		ListingID: event.ListingID,
		UserID:    event.UserID,
		Message:   fmt.Sprintf("Listing %s was %s by user %s at %s", event.ListingID, verb, event.UserID, event.Timestamp.UTC().Format(time.RFC3339)),
		CreatedAt: event.Timestamp,
	}, nil
}
