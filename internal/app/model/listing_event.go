package model

import "time"

// ListingEvent is published whenever a listing is paused or resumed.
type ListingEvent struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	ListingStreamName     = "LISTINGS"
	ListingStreamSubject  = "listings.events"
	ListingConsumerName   = "admin-notifier"
	ListingStreamMaxBytes = 1024 * 1024 * 64 // 64MB
)
