package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erijustudio/storefront-backend/internal/cart"
	"github.com/erijustudio/storefront-backend/internal/notify"
	"github.com/erijustudio/storefront-backend/internal/orders"
	"github.com/erijustudio/storefront-backend/pkg/db/models"
	"github.com/erijustudio/storefront-backend/pkg/enums"
	pkgerrors "github.com/erijustudio/storefront-backend/pkg/errors"
)

type stubCart struct {
	view    *cart.View
	cleared int
}

func (s *stubCart) Load(ctx context.Context, userID uuid.UUID) (*cart.View, error) {
	if s.view == nil {
		return &cart.View{}, nil
	}
	return s.view, nil
}

func (s *stubCart) Clear(ctx context.Context, userID uuid.UUID) error {
	s.cleared++
	return nil
}

type stubOrderRepo struct {
	created *models.Order
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	s.created = order
	return order, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) List(ctx context.Context, status *enums.OrderStatus) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) Update(ctx context.Context, order *models.Order) (*models.Order, error) {
	return order, nil
}

type stubDispatcher struct {
	mu   sync.Mutex
	sent []notify.OrderNotification
	err  error
}

func (s *stubDispatcher) Send(ctx context.Context, n notify.OrderNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return s.err
}

func (s *stubDispatcher) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func validInput() Input {
	return Input{
		CustomerName:  "林小美",
		CustomerPhone: "0912345678",
		StoreName:     "大安門市",
		StoreAddress:  "台北市大安區和平東路一段1號",
	}
}

func filledCart() *cart.View {
	return &cart.View{
		Items: []cart.Line{
			{ProductID: uuid.New(), Name: "Sticker Pack", Price: 120, Quantity: 2, LineTotal: 240},
			{ProductID: uuid.New(), Name: "Art Print", Price: 450, Quantity: 1, LineTotal: 450},
		},
		Subtotal: 690,
	}
}

func newCheckoutService(t *testing.T, cartSvc cartAccessor, repo orders.Repository, dispatcher notify.Dispatcher) Service {
	t.Helper()
	svc, err := NewService(cartSvc, repo, nil, dispatcher, stubTxRunner{}, nil, "7-11", false)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestCheckout_CreatesOrderSnapshot(t *testing.T) {
	t.Parallel()

	cartSvc := &stubCart{view: filledCart()}
	repo := &stubOrderRepo{}
	dispatcher := &stubDispatcher{}
	svc := newCheckoutService(t, cartSvc, repo, dispatcher)

	order, err := svc.Checkout(context.Background(), uuid.New(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("status = %q, want pending", order.Status)
	}
	if order.Total != 690 {
		t.Fatalf("total = %d, want 690", order.Total)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 snapshot items, got %d", len(order.Items))
	}
	want := "【7-11 大安門市】台北市大安區和平東路一段1號"
	if order.PickupAddress != want {
		t.Fatalf("pickup address = %q, want %q", order.PickupAddress, want)
	}
	if cartSvc.cleared != 1 {
		t.Fatalf("expected cart cleared once, got %d", cartSvc.cleared)
	}
}

func TestCheckout_FiresNotification(t *testing.T) {
	t.Parallel()

	dispatcher := &stubDispatcher{}
	svc := newCheckoutService(t, &stubCart{view: filledCart()}, &stubOrderRepo{}, dispatcher)

	if _, err := svc.Checkout(context.Background(), uuid.New(), validInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for dispatcher.sentCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected async notification dispatch")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	t.Parallel()

	svc := newCheckoutService(t, &stubCart{}, &stubOrderRepo{}, &stubDispatcher{})

	_, err := svc.Checkout(context.Background(), uuid.New(), validInput())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckout_FormValidation(t *testing.T) {
	t.Parallel()

	svc := newCheckoutService(t, &stubCart{view: filledCart()}, &stubOrderRepo{}, &stubDispatcher{})

	cases := []struct {
		name  string
		input Input
	}{
		{"missing name", Input{CustomerPhone: "0912345678", StoreName: "門市", StoreAddress: "地址"}},
		{"missing phone", Input{CustomerName: "林小美", StoreName: "門市", StoreAddress: "地址"}},
		{"bad phone", Input{CustomerName: "林小美", CustomerPhone: "12345", StoreName: "門市", StoreAddress: "地址"}},
		{"no store selected", Input{CustomerName: "林小美", CustomerPhone: "0912345678"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Checkout(context.Background(), uuid.New(), tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCheckout_HomeDeliveryKeepsAddressVerbatim(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{}
	svc := newCheckoutService(t, &stubCart{view: filledCart()}, repo, &stubDispatcher{})

	input := validInput()
	input.StoreName = ""
	input.StoreAddress = "台北市大安區和平東路二段99號"

	order, err := svc.Checkout(context.Background(), uuid.New(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.PickupAddress != "台北市大安區和平東路二段99號" {
		t.Fatalf("pickup address = %q, want verbatim delivery address", order.PickupAddress)
	}
}

func TestCheckout_NoDispatcherStillPlacesOrder(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{}
	svc, err := NewService(&stubCart{view: filledCart()}, repo, nil, nil, stubTxRunner{}, nil, "7-11", false)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	order, err := svc.Checkout(context.Background(), uuid.New(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID == uuid.Nil || repo.created == nil {
		t.Fatal("expected order to be created without a dispatcher")
	}
}

func TestCheckout_DispatchFailureKeepsOrder(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{}
	dispatcher := &stubDispatcher{err: errors.New("webhook unreachable")}
	svc := newCheckoutService(t, &stubCart{view: filledCart()}, repo, dispatcher)

	order, err := svc.Checkout(context.Background(), uuid.New(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for dispatcher.sentCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected a dispatch attempt")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if repo.created == nil || repo.created.ID != order.ID {
		t.Fatal("expected created order to survive the failed dispatch")
	}
	if repo.created.Status != enums.OrderStatusPending {
		t.Fatalf("status = %q, want pending after failed dispatch", repo.created.Status)
	}
}

func TestCheckout_RequiresAuthenticatedUser(t *testing.T) {
	t.Parallel()

	svc := newCheckoutService(t, &stubCart{view: filledCart()}, &stubOrderRepo{}, &stubDispatcher{})

	_, err := svc.Checkout(context.Background(), uuid.Nil, validInput())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
