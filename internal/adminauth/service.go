package adminauth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erijustudio/storefront-backend/pkg/auth"
	"github.com/erijustudio/storefront-backend/pkg/config"
	pkgerrors "github.com/erijustudio/storefront-backend/pkg/errors"
	"github.com/erijustudio/storefront-backend/pkg/security"
)

// adminUserID is a stable identity for the single console operator.
var adminUserID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://eriju.art/admin"))

type sessionManager interface {
	Start(ctx context.Context, accessID string) error
	Revoke(ctx context.Context, accessID string) error
}

// Session is the minted console credential.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service gates the admin console behind the operator shared secret.
type Service interface {
	Login(ctx context.Context, secret string) (*Session, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	jwtCfg   config.JWTConfig
	adminCfg config.AdminConfig
	sessions sessionManager
	now      func() time.Time
}

// NewService builds the console auth service.
func NewService(jwtCfg config.JWTConfig, adminCfg config.AdminConfig, sessions sessionManager) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if adminCfg.Secret == "" && adminCfg.SecretHash == "" {
		return nil, fmt.Errorf("admin secret or secret hash must be configured")
	}
	return &service{
		jwtCfg:   jwtCfg,
		adminCfg: adminCfg,
		sessions: sessions,
		now:      time.Now,
	}, nil
}

// Login verifies the shared secret and mints a short-lived console token
// whose jti is tracked in Redis so logout can revoke it.
func (s *service) Login(ctx context.Context, secret string) (*Session, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "secret is required")
	}

	ok, err := s.verify(secret)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify secret")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid secret")
	}

	now := s.now()
	ttl := s.adminCfg.SessionTTL()
	jti := uuid.NewString()

	token, err := auth.MintAccessToken(s.jwtCfg, now, ttl, auth.AccessTokenPayload{
		UserID: adminUserID,
		Role:   auth.RoleAdmin,
		JTI:    jti,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint console token")
	}

	if err := s.sessions.Start(ctx, jti); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start console session")
	}

	if ttl <= 0 {
		ttl = s.jwtCfg.AccessTokenTTL()
	}
	return &Session{Token: token, ExpiresAt: now.Add(ttl)}, nil
}

// Logout revokes the session for the provided token id.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke console session")
	}
	return nil
}

// verify prefers the argon2id hash; the plaintext comparison is a dev-only
// fallback.
func (s *service) verify(secret string) (bool, error) {
	if s.adminCfg.SecretHash != "" {
		return security.VerifySecret(secret, s.adminCfg.SecretHash)
	}
	return security.ConstantTimeEquals(secret, s.adminCfg.Secret), nil
}
