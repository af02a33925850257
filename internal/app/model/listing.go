package model

import "time"

// Listing is a classified ad owned by a single user. A running listing carries an absolute
// ExpiresAt; a paused one carries the remaining time as Postgres interval strings instead.
type Listing struct {
	ID          string `db:"id" gorm:"primaryKey;size:36"`
	UserID      string `db:"user_id" gorm:"size:64;not null;index"`
	Title       string `db:"title" gorm:"size:200;not null"`
	Description string `db:"description" gorm:"type:text"`

	ExpiresAt        *time.Time `db:"expires_at" gorm:"index"`
	PromotionStartAt *time.Time `db:"promotion_start_at"`
	PromotionEndAt   *time.Time `db:"promotion_end_at"`

	IsPaused                   bool       `db:"is_paused" gorm:"not null;default:false"`
	PausedAt                   *time.Time `db:"paused_at"`
	RemainingExpiresAtDuration *string    `db:"remaining_expires_at_duration" gorm:"type:interval"`
	RemainingPromotionDuration *string    `db:"remaining_promotion_duration" gorm:"type:interval"`

	CreatedAt time.Time `db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `db:"updated_at" gorm:"autoUpdateTime"`
}

// HasPromotion reports whether both promotion bounds are set.
func (l *Listing) HasPromotion() bool {
	return l.PromotionStartAt != nil && l.PromotionEndAt != nil
}
