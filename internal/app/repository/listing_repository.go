package repository

import (
	"context"
	"errors"

	"github.com/sifan077/ListingBank/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrListingNotFound signals that the requested listing does not exist.
	ErrListingNotFound = errors.New("listing not found")
)

// ListingRepository defines the data access contract for listings.
type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Listing, error)
	// ApplyChanges writes columns to the listing and returns the stored row, both in one statement.
	ApplyChanges(ctx context.Context, id string, columns map[string]interface{}) (*model.Listing, error)
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository returns a GORM-backed ListingRepository.
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *model.Listing) error {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return err
	}
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	var listing model.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Listing, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var result []model.Listing
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *listingRepository) ApplyChanges(ctx context.Context, id string, columns map[string]interface{}) (*model.Listing, error) {
	// UPDATE ... RETURNING: the stored row comes back from the statement that wrote it, so a
	// committed change is never reported as a failure by a follow-up read.
	var listing model.Listing
	result := r.db.WithContext(ctx).
		Model(&listing).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(columns)

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrListingNotFound
	}

	return &listing, nil
}
