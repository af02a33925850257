package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sifan077/ListingBank/internal/app/model"
	"go.uber.org/zap"
)

const (
	listingCachePrefix   = "listing:"
	listingVersionPrefix = "listing-version:"
	// versionTTL must outlive any read that is still filling the cache.
	versionTTL = 24 * time.Hour
)

var errStaleFill = errors.New("listing changed while loading")

type cachedListingRepository struct {
	next   ListingRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedListingRepository wraps next with a Redis read-through cache keyed by listing id.
// Writes only invalidate; a fill is dropped when a write to the same listing happened while
// the row was being loaded. Redis failures are logged and fall through to next.
func NewCachedListingRepository(next ListingRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) ListingRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &cachedListingRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *cachedListingRepository) Create(ctx context.Context, listing *model.Listing) error {
	return r.next.Create(ctx, listing)
}

func (r *cachedListingRepository) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	data, err := r.client.Get(ctx, listingCachePrefix+id).Bytes()
	switch {
	case err == nil:
		var listing model.Listing
		if err := json.Unmarshal(data, &listing); err == nil {
			return &listing, nil
		}
		r.logger.Warn("discarding corrupt cached listing", zap.String("id", id))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("listing cache read failed", zap.String("id", id), zap.Error(err))
	}

	// The version is read before the row so a concurrent write is always noticed at fill time.
	version, versionErr := r.version(ctx, id)

	listing, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if versionErr == nil {
		r.fill(ctx, listing, version)
	}
	return listing, nil
}

func (r *cachedListingRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Listing, error) {
	return r.next.ListByUser(ctx, userID, limit, offset)
}

func (r *cachedListingRepository) ApplyChanges(ctx context.Context, id string, columns map[string]interface{}) (*model.Listing, error) {
	r.invalidate(ctx, id)
	listing, err := r.next.ApplyChanges(ctx, id, columns)
	// Second invalidation drops anything filled from the old row during the write.
	r.invalidate(ctx, id)
	if err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *cachedListingRepository) version(ctx context.Context, id string) (string, error) {
	v, err := r.client.Get(ctx, listingVersionPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// fill stores listing only if no write bumped its version since version was read.
func (r *cachedListingRepository) fill(ctx context.Context, listing *model.Listing, version string) {
	data, err := json.Marshal(listing)
	if err != nil {
		return
	}

	versionKey := listingVersionPrefix + listing.ID
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetNX(ctx, listingCachePrefix+listing.ID, data, r.ttl)
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		r.logger.Debug("skipped stale listing cache fill", zap.String("id", listing.ID))
	default:
		r.logger.Warn("listing cache write failed", zap.String("id", listing.ID), zap.Error(err))
	}
}

func (r *cachedListingRepository) invalidate(ctx context.Context, id string) {
	versionKey := listingVersionPrefix + id
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, versionTTL)
		pipe.Del(ctx, listingCachePrefix+id)
		return nil
	})
	if err != nil {
		r.logger.Warn("listing cache invalidation failed", zap.String("id", id), zap.Error(err))
	}
}
