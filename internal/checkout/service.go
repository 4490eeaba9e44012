package checkout

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erijustudio/storefront-backend/internal/cart"
	"github.com/erijustudio/storefront-backend/internal/notify"
	"github.com/erijustudio/storefront-backend/internal/notify/outbox"
	"github.com/erijustudio/storefront-backend/internal/orders"
	"github.com/erijustudio/storefront-backend/pkg/db/models"
	"github.com/erijustudio/storefront-backend/pkg/enums"
	pkgerrors "github.com/erijustudio/storefront-backend/pkg/errors"
	"github.com/erijustudio/storefront-backend/pkg/logger"
	"github.com/erijustudio/storefront-backend/pkg/types"
)

// Taiwan mobile numbers only; the pickup carrier requires one for SMS.
var phonePattern = regexp.MustCompile(`^09\d{8}$`)

const dispatchTimeout = 15 * time.Second

// Input is the shopper-submitted checkout form plus the store selected via
// the carrier map callback.
type Input struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	StoreName     string
	StoreAddress  string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartAccessor interface {
	Load(ctx context.Context, userID uuid.UUID) (*cart.View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// Service turns a cart into an immutable order.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error)
}

type service struct {
	cart          cartAccessor
	orders        orders.Repository
	outbox        outbox.Repository
	dispatcher    notify.Dispatcher
	tx            txRunner
	logg          *logger.Logger
	carrierLabel  string
	outboxEnabled bool
}

// NewService builds a checkout service. The outbox repository may be nil
// only when outbox delivery is disabled; a nil dispatcher disables direct
// notifications.
func NewService(
	cartSvc cartAccessor,
	orderRepo orders.Repository,
	outboxRepo outbox.Repository,
	dispatcher notify.Dispatcher,
	tx txRunner,
	logg *logger.Logger,
	carrierLabel string,
	outboxEnabled bool,
) (Service, error) {
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxEnabled && outboxRepo == nil {
		return nil, fmt.Errorf("outbox repository required when outbox delivery is enabled")
	}
	if strings.TrimSpace(carrierLabel) == "" {
		carrierLabel = "7-11"
	}
	return &service{
		cart:          cartSvc,
		orders:        orderRepo,
		outbox:        outboxRepo,
		dispatcher:    dispatcher,
		tx:            tx,
		logg:          logg,
		carrierLabel:  carrierLabel,
		outboxEnabled: outboxEnabled,
	}, nil
}

// Checkout validates the form, snapshots the cart into an order, clears the
// cart, and queues the operator notification.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	view, err := s.cart.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	order := &models.Order{
		UserID:        userID,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerEmail: strings.TrimSpace(input.CustomerEmail),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		PickupAddress: s.pickupAddress(input),
		Items:         snapshotItems(view),
		Total:         view.Subtotal,
		Status:        enums.OrderStatusPending,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.orders.WithTx(tx).Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		order = created

		if s.outboxEnabled {
			if err := s.outbox.WithTx(tx).Enqueue(ctx, order.ID); err != nil {
				return fmt.Errorf("enqueue notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "place order")
	}

	// The order exists now; a cart-clear failure must not undo it.
	if err := s.cart.Clear(ctx, userID); err != nil && s.logg != nil {
		cctx := s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), order.ID.String())
		s.logg.Warn(cctx, "cart clear after checkout failed: "+err.Error())
	}

	if !s.outboxEnabled {
		s.dispatchAsync(ctx, order)
	}

	return order, nil
}

// dispatchAsync fires the notification without blocking the response. One
// attempt only; a lost notification never fails a placed order. A missing
// dispatcher means the webhook is not configured, so we skip quietly.
func (s *service) dispatchAsync(ctx context.Context, order *models.Order) {
	if s.dispatcher == nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "order notification skipped, dispatcher not configured")
		}
		return
	}
	notification := notify.FromOrder(order)
	logg := s.logg
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
		defer cancel()
		if err := s.dispatcher.Send(sendCtx, notification); err != nil && logg != nil {
			nctx := logg.WithOrderID(sendCtx, order.ID.String())
			logg.Error(nctx, "order notification failed", err)
		}
	}()
}

// pickupAddress tags store pickups with the carrier label. Orders without a
// store are home deliveries and keep the address as entered.
func (s *service) pickupAddress(input Input) string {
	store := strings.TrimSpace(input.StoreName)
	address := strings.TrimSpace(input.StoreAddress)
	if store == "" {
		return address
	}
	return fmt.Sprintf("【%s %s】%s", s.carrierLabel, store, address)
}

func snapshotItems(view *cart.View) types.OrderItems {
	items := make(types.OrderItems, 0, len(view.Items))
	for _, line := range view.Items {
		items = append(items, types.OrderItem{
			ProductID:     line.ProductID,
			Name:          line.Name,
			Qty:           line.Quantity,
			Price:         line.Price,
			OriginalPrice: line.OriginalPrice,
			Image:         line.Image,
		})
	}
	return items
}

func validateInput(input Input) error {
	details := map[string]string{}
	if strings.TrimSpace(input.CustomerName) == "" {
		details["customer_name"] = "is required"
	}
	phone := strings.TrimSpace(input.CustomerPhone)
	if phone == "" {
		details["customer_phone"] = "is required"
	} else if !phonePattern.MatchString(phone) {
		details["customer_phone"] = "must be a valid mobile number"
	}
	if strings.TrimSpace(input.StoreAddress) == "" {
		details["store_address"] = "select a pickup store or enter a delivery address"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout form is incomplete").WithDetails(details)
	}
	return nil
}
