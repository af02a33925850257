package repository

import (
	"context"

	"github.com/sifan077/ListingBank/internal/app/model"
	"gorm.io/gorm"
)

// AdminNotificationRepository defines the data access contract for admin notifications.
type AdminNotificationRepository interface {
	Create(ctx context.Context, notification *model.AdminNotification) error
	ListUnread(ctx context.Context, limit int) ([]model.AdminNotification, error)
}

type adminNotificationRepository struct {
	db *gorm.DB
}

// NewAdminNotificationRepository returns a GORM-backed AdminNotificationRepository.
func NewAdminNotificationRepository(db *gorm.DB) AdminNotificationRepository {
	return &adminNotificationRepository{db: db}
}

func (r *adminNotificationRepository) Create(ctx context.Context, notification *model.AdminNotification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *adminNotificationRepository) ListUnread(ctx context.Context, limit int) ([]model.AdminNotification, error) {
	if limit <= 0 {
		limit = 50
	}

	var result []model.AdminNotification
	err := r.db.WithContext(ctx).
		Where("is_read = ?", false).
		Order("created_at DESC").
		Limit(limit).
		Find(&result).Error
	return result, err
}
