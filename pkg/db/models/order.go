package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/erijustudio/storefront-backend/pkg/enums"
	"github.com/erijustudio/storefront-backend/pkg/types"
)

// Order is an immutable purchase record. Items is a JSONB snapshot taken at
// checkout so later catalog edits never alter what the shopper bought.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	CustomerName  string            `gorm:"column:customer_name;not null"`
	CustomerEmail string            `gorm:"column:customer_email;not null;default:''"`
	CustomerPhone string            `gorm:"column:customer_phone;not null"`
	PickupAddress string            `gorm:"column:pickup_address;not null"`
	Items         types.OrderItems  `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Total         int               `gorm:"column:total;not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	CancelReason  *string           `gorm:"column:cancel_reason"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table to the plural form used in migrations.
func (Order) TableName() string {
	return "orders"
}
