package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/erijustudio/storefront-backend/pkg/enums"
)

// NotificationOutbox queues one webhook dispatch per order when the outbox
// delivery mode is enabled. The sweeper claims pending rows and retries with
// backoff until delivery or the attempt cap.
type NotificationOutbox struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID          `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Status        enums.OutboxStatus `gorm:"column:status;type:outbox_status;not null;default:'pending';index"`
	Attempts      int                `gorm:"column:attempts;not null;default:0"`
	LastError     *string            `gorm:"column:last_error"`
	NextAttemptAt time.Time          `gorm:"column:next_attempt_at;not null"`
	DeliveredAt   *time.Time         `gorm:"column:delivered_at"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table name used in migrations.
func (NotificationOutbox) TableName() string {
	return "notification_outbox"
}
