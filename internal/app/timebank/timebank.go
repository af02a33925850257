// Package timebank converts a listing's absolute expiry and promotion windows into banked
// durations on pause, and back into timestamps anchored at the resume instant.
//
// The functions are pure: they compute the next field set and leave persistence to the caller,
// which must write Changes.Columns in a single update.
package timebank

import (
	"errors"
	"fmt"
	"time"

	"github.com/sifan077/ListingBank/internal/app/model"
)

var (
	// ErrMissingExpiry signals a running listing without an expiry timestamp.
	ErrMissingExpiry = errors.New("listing has no expiry to bank")
	// ErrUnknownAction signals an action other than pause or resume.
	ErrUnknownAction = errors.New("action must be pause or resume")
)

// Action is a requested status transition.
type Action string

const (
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
)

// ParseAction validates a raw action name.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionPause, ActionResume:
		return Action(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
	}
}

// Changes is the next state of the time-bank columns.
type Changes struct {
	ExpiresAt                  *time.Time
	IsPaused                   bool
	PausedAt                   *time.Time
	RemainingExpiresAtDuration *string
	RemainingPromotionDuration *string

	// Promotion bounds are only written when TouchesPromotion is set.
	TouchesPromotion bool
	PromotionStartAt *time.Time
	PromotionEndAt   *time.Time
}

// Columns returns the column/value set for one atomic UPDATE. Nil values mean NULL.
func (c Changes) Columns() map[string]interface{} {
	cols := map[string]interface{}{
		"expires_at":                    timeValue(c.ExpiresAt),
		"is_paused":                     c.IsPaused,
		"paused_at":                     timeValue(c.PausedAt),
		"remaining_expires_at_duration": stringValue(c.RemainingExpiresAtDuration),
		"remaining_promotion_duration":  stringValue(c.RemainingPromotionDuration),
	}
	if c.TouchesPromotion {
		cols["promotion_start_at"] = timeValue(c.PromotionStartAt)
		cols["promotion_end_at"] = timeValue(c.PromotionEndAt)
	}
	return cols
}

// ApplyTo projects the changes onto l.
func (c Changes) ApplyTo(l *model.Listing) {
	l.ExpiresAt = c.ExpiresAt
	l.IsPaused = c.IsPaused
	l.PausedAt = c.PausedAt
	l.RemainingExpiresAtDuration = c.RemainingExpiresAtDuration
	l.RemainingPromotionDuration = c.RemainingPromotionDuration
	if c.TouchesPromotion {
		l.PromotionStartAt = c.PromotionStartAt
		l.PromotionEndAt = c.PromotionEndAt
	}
}

// Apply dispatches to Pause or Resume.
func Apply(action Action, l *model.Listing, now time.Time) (Changes, bool, error) {
	switch action {
	case ActionPause:
		return Pause(l, now)
	case ActionResume:
		return Resume(l, now)
	default:
		return Changes{}, false, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// Pause banks the time left on the listing's expiry and, when a promotion is running, on its
// promotion window. The bool result is false when the listing was already paused.
// Time already past is banked as zero.
func Pause(l *model.Listing, now time.Time) (Changes, bool, error) {
	if l.IsPaused {
		return Changes{}, false, nil
	}
	if l.ExpiresAt == nil {
		return Changes{}, false, ErrMissingExpiry
	}

	pausedAt := now
	changes := Changes{
		IsPaused:                   true,
		PausedAt:                   &pausedAt,
		RemainingExpiresAtDuration: bank(l.ExpiresAt.Sub(now)),
	}

	if l.HasPromotion() {
		changes.RemainingPromotionDuration = bank(l.PromotionEndAt.Sub(now))
		changes.TouchesPromotion = true
	}

	return changes, true, nil
}

// Resume re-anchors banked durations at now. The bool result is false when the listing was
// not paused.
func Resume(l *model.Listing, now time.Time) (Changes, bool, error) {
	if !l.IsPaused {
		return Changes{}, false, nil
	}

	expiresAt := now.Add(banked(l.RemainingExpiresAtDuration))
	changes := Changes{
		ExpiresAt: &expiresAt,
		IsPaused:  false,
	}

	if l.RemainingPromotionDuration != nil {
		start := now
		end := now.Add(banked(l.RemainingPromotionDuration))
		changes.TouchesPromotion = true
		changes.PromotionStartAt = &start
		changes.PromotionEndAt = &end
	}

	return changes, true, nil
}

func bank(remaining time.Duration) *string {
	if remaining < 0 {
		remaining = 0
	}
	s := FormatInterval(remaining)
	return &s
}

func banked(s *string) time.Duration {
	if s == nil {
		return 0
	}
	return ParseInterval(*s)
}

func timeValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func stringValue(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
