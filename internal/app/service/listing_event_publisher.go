package service

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/ListingBank/internal/app/model"
)

// ListingEventPublisher publishes listing events to NATS JetStream
type ListingEventPublisher struct {
	js nats.JetStreamContext
}

// NewListingEventPublisher creates a new listing event publisher
func NewListingEventPublisher(js nats.JetStreamContext) *ListingEventPublisher {
	return &ListingEventPublisher{js: js}
}

// Publish publishes a listing event to the stream
func (p *ListingEventPublisher) Publish(ctx context.Context, event model.ListingEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ListingStreamSubject, data, nats.Context(ctx))
	return err
}
