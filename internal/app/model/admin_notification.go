package model

import "time"

const (
	NotificationListingPaused  = "listing_paused"
	NotificationListingResumed = "listing_resumed"
)

// AdminNotification is a back-office feed entry.
type AdminNotification struct {
	ID        string    `json:"id" db:"id" gorm:"primaryKey;size:36"`
	Type      string    `json:"type" db:"type" gorm:"size:32;not null;index"`
	ListingID string    `json:"listing_id" db:"listing_id" gorm:"size:36;index"`
	UserID    string    `json:"user_id" db:"user_id" gorm:"size:64"`
	Message   string    `json:"message" db:"message" gorm:"type:text;not null"`
	IsRead    bool      `json:"is_read" db:"is_read" gorm:"not null;default:false;index"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
}
