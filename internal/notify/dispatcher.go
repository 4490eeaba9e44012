package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/erijustudio/storefront-backend/pkg/db/models"
	"github.com/erijustudio/storefront-backend/pkg/types"
)

// OrderNotification is the payload pushed to the operator channel when an
// order is placed.
type OrderNotification struct {
	OrderID       uuid.UUID        `json:"order_id"`
	CustomerName  string           `json:"customer_name" validate:"required"`
	CustomerPhone string           `json:"customer_phone" validate:"required"`
	PickupAddress string           `json:"pickup_address" validate:"required"`
	Items         types.OrderItems `json:"items" validate:"required,min=1"`
	Total         int              `json:"total" validate:"min=0"`
}

// FromOrder builds a notification from a persisted order.
func FromOrder(order *models.Order) OrderNotification {
	return OrderNotification{
		OrderID:       order.ID,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		PickupAddress: order.PickupAddress,
		Items:         order.Items,
		Total:         order.Total,
	}
}

// Dispatcher delivers order notifications to the operator.
type Dispatcher interface {
	Send(ctx context.Context, notification OrderNotification) error
}
