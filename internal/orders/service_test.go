package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erijustudio/storefront-backend/pkg/db/models"
	"github.com/erijustudio/storefront-backend/pkg/enums"
	pkgerrors "github.com/erijustudio/storefront-backend/pkg/errors"
)

type stubOrderRepo struct {
	orders map[uuid.UUID]*models.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.orders[id]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var result []models.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			result = append(result, *order)
		}
	}
	return result, nil
}

func (s *stubOrderRepo) List(ctx context.Context, status *enums.OrderStatus) ([]models.Order, error) {
	var result []models.Order
	for _, order := range s.orders {
		if status == nil || order.Status == *status {
			result = append(result, *order)
		}
	}
	return result, nil
}

func (s *stubOrderRepo) Update(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.orders[order.ID] = order
	return order, nil
}

func seedOrder(repo *stubOrderRepo, userID uuid.UUID, status enums.OrderStatus) uuid.UUID {
	id := uuid.New()
	repo.orders[id] = &models.Order{ID: id, UserID: userID, Status: status}
	return id
}

func newOrderTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestRequestCancel_PendingBecomesCancelling(t *testing.T) {
	t.Parallel()

	repo := newStubOrderRepo()
	userID := uuid.New()
	orderID := seedOrder(repo, userID, enums.OrderStatusPending)
	svc := newOrderTestService(t, repo)

	updated, err := svc.RequestCancel(context.Background(), userID, orderID, "changed my mind")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelling {
		t.Fatalf("status = %q, want cancelling", updated.Status)
	}
	if updated.CancelReason == nil || *updated.CancelReason != "changed my mind" {
		t.Fatal("expected cancel reason recorded")
	}
}

func TestRequestCancel_DeliveredIsStateConflict(t *testing.T) {
	t.Parallel()

	repo := newStubOrderRepo()
	userID := uuid.New()
	orderID := seedOrder(repo, userID, enums.OrderStatusDelivered)
	svc := newOrderTestService(t, repo)

	_, err := svc.RequestCancel(context.Background(), userID, orderID, "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRequestCancel_OtherShoppersOrderIsNotFound(t *testing.T) {
	t.Parallel()

	repo := newStubOrderRepo()
	orderID := seedOrder(repo, uuid.New(), enums.OrderStatusPending)
	svc := newOrderTestService(t, repo)

	_, err := svc.RequestCancel(context.Background(), uuid.New(), orderID, "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetStatus_ForwardWorkflow(t *testing.T) {
	t.Parallel()

	repo := newStubOrderRepo()
	orderID := seedOrder(repo, uuid.New(), enums.OrderStatusPending)
	svc := newOrderTestService(t, repo)

	for _, next := range []enums.OrderStatus{
		enums.OrderStatusProcessing,
		enums.OrderStatusDelivered,
		enums.OrderStatusCompleted,
	} {
		updated, err := svc.SetStatus(context.Background(), orderID, next)
		if err != nil {
			t.Fatalf("move to %s failed: %v", next, err)
		}
		if updated.Status != next {
			t.Fatalf("status = %q, want %q", updated.Status, next)
		}
	}
}

func TestSetStatus_IllegalMoves(t *testing.T) {
	t.Parallel()

	repo := newStubOrderRepo()
	svc := newOrderTestService(t, repo)

	cases := []struct {
		from enums.OrderStatus
		to   enums.OrderStatus
	}{
		{enums.OrderStatusPending, enums.OrderStatusCompleted},
		{enums.OrderStatusCompleted, enums.OrderStatusCancelled},
		{enums.OrderStatusCancelled, enums.OrderStatusPending},
		{enums.OrderStatusCancelling, enums.OrderStatusDelivered},
	}

	for _, tc := range cases {
		orderID := seedOrder(repo, uuid.New(), tc.from)
		_, err := svc.SetStatus(context.Background(), orderID, tc.to)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("%s -> %s: expected state conflict, got %v", tc.from, tc.to, err)
		}
	}
}

func TestSetStatus_AdminFinalizesCancel(t *testing.T) {
	t.Parallel()

	repo := newStubOrderRepo()
	orderID := seedOrder(repo, uuid.New(), enums.OrderStatusCancelling)
	svc := newOrderTestService(t, repo)

	updated, err := svc.SetStatus(context.Background(), orderID, enums.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("status = %q, want cancelled", updated.Status)
	}
}

func TestList_UnknownStatus(t *testing.T) {
	t.Parallel()

	svc := newOrderTestService(t, newStubOrderRepo())
	bogus := enums.OrderStatus("shipped")
	if _, err := svc.List(context.Background(), &bogus); err == nil {
		t.Fatal("expected unknown status to error")
	}
}
