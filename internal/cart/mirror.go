package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// mirrorStore is the subset of the Redis client the mirror needs.
type mirrorStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(userID string) string
	PublishCartEvent(ctx context.Context, payload any) error
}

// Mirror keeps a Redis copy of each shopper's cart and broadcasts change
// events so other open sessions can refresh.
type Mirror struct {
	store mirrorStore
	ttl   time.Duration
}

// NewMirror builds a cart mirror. A zero ttl keeps mirrored carts forever.
func NewMirror(store mirrorStore, ttl time.Duration) (*Mirror, error) {
	if store == nil {
		return nil, fmt.Errorf("mirror store required")
	}
	return &Mirror{store: store, ttl: ttl}, nil
}

type cartEvent struct {
	UserID string `json:"user_id"`
	Action string `json:"action"`
}

// Sync writes the current cart view to the mirror and publishes a change
// event. The caller treats failures as advisory.
func (m *Mirror) Sync(ctx context.Context, userID string, view View) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode cart mirror: %w", err)
	}
	if err := m.store.Set(ctx, m.store.CartKey(userID), payload, m.ttl); err != nil {
		return fmt.Errorf("write cart mirror: %w", err)
	}
	return m.publish(ctx, userID, "sync")
}

// Clear drops the mirrored cart, typically after checkout.
func (m *Mirror) Clear(ctx context.Context, userID string) error {
	if err := m.store.Del(ctx, m.store.CartKey(userID)); err != nil {
		return fmt.Errorf("clear cart mirror: %w", err)
	}
	return m.publish(ctx, userID, "clear")
}

func (m *Mirror) publish(ctx context.Context, userID, action string) error {
	event, err := json.Marshal(cartEvent{UserID: userID, Action: action})
	if err != nil {
		return fmt.Errorf("encode cart event: %w", err)
	}
	if err := m.store.PublishCartEvent(ctx, event); err != nil {
		return fmt.Errorf("publish cart event: %w", err)
	}
	return nil
}
