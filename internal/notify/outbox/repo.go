package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erijustudio/storefront-backend/pkg/db/models"
	"github.com/erijustudio/storefront-backend/pkg/enums"
)

// Repository manages queued order notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Enqueue(ctx context.Context, orderID uuid.UUID) error
	ListDue(ctx context.Context, limit int, now time.Time) ([]models.NotificationOutbox, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkAttemptFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string, nextAttempt time.Time, exhausted bool) error
	CountPending(ctx context.Context) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

// Enqueue records one pending notification per order. The unique index on
// order_id makes double-enqueue impossible.
func (r *gormRepository) Enqueue(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&models.NotificationOutbox{
		OrderID:       orderID,
		Status:        enums.OutboxStatusPending,
		NextAttemptAt: time.Now().UTC(),
	}).Error
}

// ListDue returns pending rows whose next attempt time has passed, oldest
// first.
func (r *gormRepository) ListDue(ctx context.Context, limit int, now time.Time) ([]models.NotificationOutbox, error) {
	var rows []models.NotificationOutbox
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", enums.OutboxStatusPending, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       enums.OutboxStatusDelivered,
			"delivered_at": at,
		}).Error
}

func (r *gormRepository) MarkAttemptFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string, nextAttempt time.Time, exhausted bool) error {
	status := enums.OutboxStatusPending
	if exhausted {
		status = enums.OutboxStatusFailed
	}
	return r.db.WithContext(ctx).
		Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          status,
			"attempts":        attempts,
			"last_error":      lastErr,
			"next_attempt_at": nextAttempt,
		}).Error
}

func (r *gormRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.NotificationOutbox{}).
		Where("status = ?", enums.OutboxStatusPending).
		Count(&count).Error
	return count, err
}
