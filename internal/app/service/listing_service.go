package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/ListingBank/internal/app/model"
	"github.com/sifan077/ListingBank/internal/app/repository"
	"github.com/sifan077/ListingBank/internal/app/timebank"
	"github.com/sifan077/ListingBank/internal/infra/prometheus"
	"go.uber.org/zap"
)

const defaultLifetime = 30 * 24 * time.Hour

var (
	// ErrForbidden signals that the caller does not own the listing.
	ErrForbidden = errors.New("user does not own this listing")
	// ErrInvalidAction signals an action other than pause or resume.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidInput signals a request that fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// ActionError reports a pause/resume that failed after authorization.
type ActionError struct {
	Action timebank.Action
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s listing: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// ListingService defines behaviour-level operations on listings.
type ListingService interface {
	CreateListing(ctx context.Context, input CreateListingInput) (*model.Listing, error)
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	ListListings(ctx context.Context, userID string, limit, offset int) ([]model.Listing, error)
	PromoteListing(ctx context.Context, userID, id string, duration time.Duration) (*model.Listing, error)
	ApplyStatusAction(ctx context.Context, userID, id, action string) (*StatusActionResult, error)
}

// EventPublisher emits listing events after a successful pause or resume.
type EventPublisher interface {
	Publish(ctx context.Context, event model.ListingEvent) error
}

// ListingDeps groups dependencies required by the listing service.
type ListingDeps struct {
	Repo            repository.ListingRepository
	Events          EventPublisher
	Logger          *zap.Logger
	DefaultLifetime time.Duration
	Now             func() time.Time
}

type listingService struct {
	repo     repository.ListingRepository
	events   EventPublisher
	logger   *zap.Logger
	lifetime time.Duration
	now      func() time.Time
}

// NewListingService returns a service implementation backed by the given repository.
func NewListingService(deps ListingDeps) ListingService {
	s := &listingService{
		repo:     deps.Repo,
		events:   deps.Events,
		logger:   deps.Logger,
		lifetime: deps.DefaultLifetime,
		now:      deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.lifetime <= 0 {
		s.lifetime = defaultLifetime
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateListingInput captures data required to publish a listing.
type CreateListingInput struct {
	UserID      string
	Title       string
	Description string
}

// StatusActionResult describes the outcome of a pause or resume request.
type StatusActionResult struct {
	Listing *model.Listing
	Action  timebank.Action
	// Applied is false when the listing was already in the requested state.
	Applied bool
}

func (s *listingService) CreateListing(ctx context.Context, input CreateListingInput) (*model.Listing, error) {
	title := strings.TrimSpace(input.Title)
	if input.UserID == "" || title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	expires := s.now().Add(s.lifetime)
	listing := &model.Listing{
		ID:          uuid.New().String(),
		UserID:      input.UserID,
		Title:       title,
		Description: input.Description,
		ExpiresAt:   &expires,
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return listing, nil
}

func (s *listingService) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return listing, nil
}

func (s *listingService) ListListings(ctx context.Context, userID string, limit, offset int) ([]model.Listing, error) {
	listings, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

func (s *listingService) PromoteListing(ctx context.Context, userID, id string, duration time.Duration) (*model.Listing, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: promotion duration must be positive", ErrInvalidInput)
	}

	listing, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if listing.IsPaused {
		return nil, fmt.Errorf("%w: paused listings cannot be promoted", ErrInvalidInput)
	}

	start := s.now()
	end := start.Add(duration)
	updated, err := s.repo.ApplyChanges(ctx, id, map[string]interface{}{
		"promotion_start_at": start,
		"promotion_end_at":   end,
	})
	if err != nil {
		return nil, fmt.Errorf("promote listing: %w", err)
	}
	return updated, nil
}

func (s *listingService) ApplyStatusAction(ctx context.Context, userID, id, rawAction string) (*StatusActionResult, error) {
	started := time.Now()

	action, err := timebank.ParseAction(rawAction)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, rawAction)
	}

	result, err := s.applyStatusAction(ctx, userID, id, action)

	outcome := prometheus.ResultApplied
	switch {
	case err != nil:
		outcome = prometheus.ResultError
	case !result.Applied:
		outcome = prometheus.ResultNoop
	}
	prometheus.RecordStatusAction(string(action), outcome, time.Since(started).Seconds())

	return result, err
}

func (s *listingService) applyStatusAction(ctx context.Context, userID, id string, action timebank.Action) (*StatusActionResult, error) {
	listing, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	changes, applied, err := timebank.Apply(action, listing, s.now())
	if err != nil {
		return nil, &ActionError{Action: action, Err: err}
	}
	if !applied {
		return &StatusActionResult{Listing: listing, Action: action}, nil
	}

	updated, err := s.repo.ApplyChanges(ctx, id, changes.Columns())
	if err != nil {
		s.logger.Error("failed to persist listing status change",
			zap.String("listing_id", id),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return nil, &ActionError{Action: action, Err: err}
	}

	s.publish(ctx, updated, userID, action)

	return &StatusActionResult{Listing: updated, Action: action, Applied: true}, nil
}

func (s *listingService) loadOwned(ctx context.Context, userID, id string) (*model.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if listing.UserID != userID {
		s.logger.Warn("listing ownership check failed",
			zap.String("listing_id", id),
			zap.String("owner_id", listing.UserID),
			zap.String("user_id", userID),
		)
		return nil, ErrForbidden
	}
	return listing, nil
}

func (s *listingService) publish(ctx context.Context, listing *model.Listing, userID string, action timebank.Action) {
	if s.events == nil {
		return
	}

	event := model.ListingEvent{
		ID:        uuid.New().String(),
		ListingID: listing.ID,
		UserID:    userID,
		Action:    string(action),
		Timestamp: s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish listing event",
			zap.String("listing_id", listing.ID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}
