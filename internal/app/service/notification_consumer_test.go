package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/ListingBank/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockNotificationRepository struct {
	created []*model.AdminNotification
	err     error
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *model.AdminNotification) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepository) ListUnread(ctx context.Context, limit int) ([]model.AdminNotification, error) {
	return nil, nil
}

func eventPayload(t *testing.T, action string) []byte {
	t.Helper()
	data, err := json.Marshal(model.ListingEvent{
		ID:        "evt-1",
		ListingID: "l-1",
		UserID:    "owner",
		Action:    action,
		Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return data
}

func TestNotificationConsumer_Handle(t *testing.T) {
	repo := &mockNotificationRepository{}
	c := NewNotificationConsumer(nil, nil, repo)

	require.NoError(t, c.Handle(context.Background(), eventPayload(t, "pause")))
	require.NoError(t, c.Handle(context.Background(), eventPayload(t, "resume")))

	require.Len(t, repo.created, 2)
	assert.Equal(t, model.NotificationListingPaused, repo.created[0].Type)
	assert.Equal(t, "Listing l-1 was paused by user owner at 2025-01-01T12:00:00Z", repo.created[0].Message)
	assert.Equal(t, model.NotificationListingResumed, repo.created[1].Type)
	assert.NotEmpty(t, repo.created[1].ID)
}

func TestNotificationConsumer_Handle_Errors(t *testing.T) {
	c := NewNotificationConsumer(nil, nil, &mockNotificationRepository{})

	assert.Error(t, c.Handle(context.Background(), []byte("{not json")))
	assert.True(t, errors.Is(c.Handle(context.Background(), eventPayload(t, "delete")), errUnknownEventAction))

	storageErr := errors.New("disk full")
	failing := NewNotificationConsumer(nil, nil, &mockNotificationRepository{err: storageErr})
	assert.True(t, errors.Is(failing.Handle(context.Background(), eventPayload(t, "pause")), storageErr))
}

func TestNotificationConsumer_ConsumeStopsWithContext(t *testing.T) {
	c := NewNotificationConsumer(nil, nil, &mockNotificationRepository{})
	ctx, cancel := context.WithCancel(context.Background())

	fetching := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.consume(ctx, func(ctx context.Context) ([]*nats.Msg, error) {
			select {
			case fetching <- struct{}{}:
			default:
			}
			<-ctx.Done()
			return nil, ctx.Err()
		})
	}()

	<-fetching
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer kept running after its context was cancelled")
	}
}
