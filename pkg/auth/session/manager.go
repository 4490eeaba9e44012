package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	redisclient "github.com/erijustudio/storefront-backend/pkg/redis"
)

// ErrNoSession signals a token whose session was revoked or expired.
var ErrNoSession = errors.New("session not found")

type sessionStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(accessID string) string
}

// Manager tracks live admin console sessions in Redis, keyed by the jti of
// the minted token. Logout deletes the key, which kills the token before
// its JWT expiry.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, ttl time.Duration) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Start records a live session for the provided access ID. Access IDs are
// token jtis, so an existing key means a duplicate mint and is rejected.
func (m *Manager) Start(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	created, err := m.store.SetNX(ctx, m.keyer.SessionKey(accessID), "1", m.ttl)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("session already exists for access id")
	}
	return nil
}

// HasSession reports whether the access ID still maps to a live session.
// A hit slides the TTL forward so active consoles stay signed in.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, nil
	}
	key := m.keyer.SessionKey(accessID)
	_, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	if _, err := m.store.Expire(ctx, key, m.ttl); err != nil {
		return false, err
	}
	return true, nil
}

// Revoke removes the session for the provided access ID. Revoking an absent
// session is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return nil
	}
	return m.store.Del(ctx, m.keyer.SessionKey(accessID))
}
