package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erijustudio/storefront-backend/internal/notify"
	"github.com/erijustudio/storefront-backend/pkg/config"
	"github.com/erijustudio/storefront-backend/pkg/db/models"
	"github.com/erijustudio/storefront-backend/pkg/enums"
)

type stubOutboxRepo struct {
	rows      []models.NotificationOutbox
	delivered []uuid.UUID
	failed    []failedMark
}

type failedMark struct {
	id        uuid.UUID
	attempts  int
	exhausted bool
}

func (s *stubOutboxRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOutboxRepo) Enqueue(ctx context.Context, orderID uuid.UUID) error {
	s.rows = append(s.rows, models.NotificationOutbox{
		ID:      uuid.New(),
		OrderID: orderID,
		Status:  enums.OutboxStatusPending,
	})
	return nil
}

func (s *stubOutboxRepo) ListDue(ctx context.Context, limit int, now time.Time) ([]models.NotificationOutbox, error) {
	due := []models.NotificationOutbox{}
	for _, row := range s.rows {
		if row.Status == enums.OutboxStatusPending && len(due) < limit {
			due = append(due, row)
		}
	}
	return due, nil
}

func (s *stubOutboxRepo) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.delivered = append(s.delivered, id)
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Status = enums.OutboxStatusDelivered
		}
	}
	return nil
}

func (s *stubOutboxRepo) MarkAttemptFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string, nextAttempt time.Time, exhausted bool) error {
	s.failed = append(s.failed, failedMark{id: id, attempts: attempts, exhausted: exhausted})
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Attempts = attempts
			if exhausted {
				s.rows[i].Status = enums.OutboxStatusFailed
			}
		}
	}
	return nil
}

func (s *stubOutboxRepo) CountPending(ctx context.Context) (int64, error) {
	var count int64
	for _, row := range s.rows {
		if row.Status == enums.OutboxStatusPending {
			count++
		}
	}
	return count, nil
}

type stubOrderLoader struct {
	orders map[uuid.UUID]*models.Order
}

func (s *stubOrderLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.orders[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubDispatcher struct {
	err   error
	sent  []notify.OrderNotification
	calls int
}

func (s *stubDispatcher) Send(ctx context.Context, n notify.OrderNotification) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

func newTestSweeper(t *testing.T, repo *stubOutboxRepo, orders *stubOrderLoader, dispatcher *stubDispatcher, maxAttempts int) *Sweeper {
	t.Helper()
	sweeper, err := NewSweeper(repo, orders, dispatcher, nil, nil, config.NotifyConfig{
		SweepBatchSize: 10,
		SweepInterval:  time.Second,
		MaxAttempts:    maxAttempts,
	})
	if err != nil {
		t.Fatalf("NewSweeper failed: %v", err)
	}
	return sweeper
}

func seedRow(repo *stubOutboxRepo, orders *stubOrderLoader) uuid.UUID {
	orderID := uuid.New()
	orders.orders[orderID] = &models.Order{
		ID:            orderID,
		UserID:        uuid.New(),
		CustomerName:  "林小美",
		CustomerPhone: "0912345678",
		PickupAddress: "【7-11 大安門市】台北市大安區和平東路一段1號",
		Total:         690,
		Status:        enums.OrderStatusPending,
	}
	repo.Enqueue(context.Background(), orderID)
	return orderID
}

func TestSweep_DeliversDueRows(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{}
	orders := &stubOrderLoader{orders: map[uuid.UUID]*models.Order{}}
	dispatcher := &stubDispatcher{}
	seedRow(repo, orders)
	seedRow(repo, orders)

	sweeper := newTestSweeper(t, repo, orders, dispatcher, 5)
	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if len(repo.delivered) != 2 {
		t.Fatalf("expected 2 delivered rows, got %d", len(repo.delivered))
	}
	if len(dispatcher.sent) != 2 {
		t.Fatalf("expected 2 dispatches, got %d", len(dispatcher.sent))
	}
}

func TestSweep_FailureSchedulesRetry(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{}
	orders := &stubOrderLoader{orders: map[uuid.UUID]*models.Order{}}
	dispatcher := &stubDispatcher{err: errors.New("webhook down")}
	seedRow(repo, orders)

	sweeper := newTestSweeper(t, repo, orders, dispatcher, 5)
	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep returned error: %v", err)
	}

	if len(repo.failed) != 1 {
		t.Fatalf("expected 1 failure mark, got %d", len(repo.failed))
	}
	if repo.failed[0].exhausted {
		t.Fatal("first failure must not exhaust the row")
	}
	if repo.failed[0].attempts != 1 {
		t.Fatalf("expected attempts=1, got %d", repo.failed[0].attempts)
	}
}

func TestSweep_ExhaustsAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{}
	orders := &stubOrderLoader{orders: map[uuid.UUID]*models.Order{}}
	dispatcher := &stubDispatcher{err: errors.New("webhook down")}
	seedRow(repo, orders)
	repo.rows[0].Attempts = 1

	sweeper := newTestSweeper(t, repo, orders, dispatcher, 2)
	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep returned error: %v", err)
	}

	if len(repo.failed) != 1 || !repo.failed[0].exhausted {
		t.Fatalf("expected exhausted mark, got %+v", repo.failed)
	}
	if repo.rows[0].Status != enums.OutboxStatusFailed {
		t.Fatalf("expected failed status, got %q", repo.rows[0].Status)
	}
}

func TestBackoffFor_DoublesAndCaps(t *testing.T) {
	t.Parallel()

	interval := time.Minute
	if got := backoffFor(1, interval); got != time.Minute {
		t.Fatalf("attempt 1 backoff = %v", got)
	}
	if got := backoffFor(3, interval); got != 4*time.Minute {
		t.Fatalf("attempt 3 backoff = %v", got)
	}
	if got := backoffFor(20, interval); got != time.Hour {
		t.Fatalf("expected cap at 1h, got %v", got)
	}
}
