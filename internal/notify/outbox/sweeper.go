package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/erijustudio/storefront-backend/internal/notify"
	"github.com/erijustudio/storefront-backend/pkg/config"
	"github.com/erijustudio/storefront-backend/pkg/db/models"
	"github.com/erijustudio/storefront-backend/pkg/logger"
	"github.com/erijustudio/storefront-backend/pkg/metrics"
)

const dispatchMode = "outbox"

type orderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// Sweeper drains the notification outbox: it claims due rows, attempts
// webhook delivery with a short in-process retry, and either marks the row
// delivered or schedules the next attempt with exponential backoff.
type Sweeper struct {
	repo       Repository
	orders     orderLoader
	dispatcher notify.Dispatcher
	metrics    *metrics.NotifyMetrics
	logg       *logger.Logger

	batchSize   int
	interval    time.Duration
	maxAttempts int
}

// NewSweeper builds a sweeper from notify configuration.
func NewSweeper(repo Repository, orders orderLoader, dispatcher notify.Dispatcher, m *metrics.NotifyMetrics, logg *logger.Logger, cfg config.NotifyConfig) (*Sweeper, error) {
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	batch := cfg.SweepBatchSize
	if batch <= 0 {
		batch = 50
	}
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Sweeper{
		repo:        repo,
		orders:      orders,
		dispatcher:  dispatcher,
		metrics:     m,
		logg:        logg,
		batchSize:   batch,
		interval:    interval,
		maxAttempts: maxAttempts,
	}, nil
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.Sweep(ctx); err != nil && s.logg != nil {
			s.logg.Error(ctx, "outbox sweep failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep performs one pass over due rows.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := time.Now().UTC()

	if pending, err := s.repo.CountPending(ctx); err == nil {
		s.metrics.SetPending(int(pending))
	}

	rows, err := s.repo.ListDue(ctx, s.batchSize, now)
	if err != nil {
		return fmt.Errorf("list due notifications: %w", err)
	}

	for _, row := range rows {
		if err := s.process(ctx, row); err != nil && s.logg != nil {
			rctx := s.logg.WithOrderID(ctx, row.OrderID.String())
			s.logg.Error(rctx, "outbox row processing failed", err)
		}
	}
	return nil
}

func (s *Sweeper) process(ctx context.Context, row models.NotificationOutbox) error {
	order, err := s.orders.FindByID(ctx, row.OrderID)
	if err != nil {
		return s.recordFailure(ctx, row, fmt.Errorf("load order: %w", err))
	}

	start := time.Now()
	err = s.dispatchWithRetry(ctx, notify.FromOrder(order))
	s.metrics.ObserveDispatch(dispatchMode, time.Since(start))

	if err != nil {
		s.metrics.IncFailed(dispatchMode)
		return s.recordFailure(ctx, row, err)
	}

	s.metrics.IncDelivered(dispatchMode)
	if err := s.repo.MarkDelivered(ctx, row.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, row.OrderID.String()), "order notification delivered")
	}
	return nil
}

// dispatchWithRetry makes up to three quick attempts inside one sweep before
// handing the row back to the backoff schedule.
func (s *Sweeper) dispatchWithRetry(ctx context.Context, notification notify.OrderNotification) error {
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.dispatcher.Send(ctx, notification); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (s *Sweeper) recordFailure(ctx context.Context, row models.NotificationOutbox, cause error) error {
	attempts := row.Attempts + 1
	exhausted := attempts >= s.maxAttempts
	if exhausted {
		s.metrics.IncExhausted()
	}

	next := time.Now().UTC().Add(backoffFor(attempts, s.interval))
	if err := s.repo.MarkAttemptFailed(ctx, row.ID, attempts, cause.Error(), next, exhausted); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return cause
}

// backoffFor doubles the sweep interval per attempt, capped at one hour.
func backoffFor(attempts int, interval time.Duration) time.Duration {
	delay := interval
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= time.Hour {
			return time.Hour
		}
	}
	return delay
}
