package adminauth

import (
	"context"
	"testing"

	"github.com/erijustudio/storefront-backend/pkg/auth"
	"github.com/erijustudio/storefront-backend/pkg/config"
	pkgerrors "github.com/erijustudio/storefront-backend/pkg/errors"
	"github.com/erijustudio/storefront-backend/pkg/security"
)

type stubSessions struct {
	started []string
	revoked []string
}

func (s *stubSessions) Start(ctx context.Context, accessID string) error {
	s.started = append(s.started, accessID)
	return nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testConfigs() (config.JWTConfig, config.AdminConfig) {
	return config.JWTConfig{
			Secret:            "jwt-secret",
			Issuer:            "storefront",
			ExpirationMinutes: 60,
		}, config.AdminConfig{
			Secret:            "open-sesame",
			SessionTTLMinutes: 30,
		}
}

func TestLogin_MintsAdminToken(t *testing.T) {
	t.Parallel()

	jwtCfg, adminCfg := testConfigs()
	sessions := &stubSessions{}
	svc, err := NewService(jwtCfg, adminCfg, sessions)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	session, err := svc.Login(context.Background(), "open-sesame")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := auth.ParseAccessToken(jwtCfg, session.Token)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.Role != auth.RoleAdmin {
		t.Fatalf("role = %q, want admin", claims.Role)
	}
	if len(sessions.started) != 1 || sessions.started[0] != claims.ID {
		t.Fatalf("expected session started for jti %q, got %v", claims.ID, sessions.started)
	}
}

func TestLogin_WrongSecret(t *testing.T) {
	t.Parallel()

	jwtCfg, adminCfg := testConfigs()
	svc, err := NewService(jwtCfg, adminCfg, &stubSessions{})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	_, err = svc.Login(context.Background(), "guess")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogin_HashedSecret(t *testing.T) {
	t.Parallel()

	jwtCfg, adminCfg := testConfigs()
	hash, err := security.HashSecret("open-sesame", config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	})
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	adminCfg.Secret = ""
	adminCfg.SecretHash = hash

	svc, err := NewService(jwtCfg, adminCfg, &stubSessions{})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	if _, err := svc.Login(context.Background(), "open-sesame"); err != nil {
		t.Fatalf("expected hashed login to succeed, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "wrong"); err == nil {
		t.Fatal("expected wrong secret to fail")
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	t.Parallel()

	jwtCfg, adminCfg := testConfigs()
	sessions := &stubSessions{}
	svc, err := NewService(jwtCfg, adminCfg, sessions)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-1" {
		t.Fatalf("expected revoke of jti-1, got %v", sessions.revoked)
	}
}

func TestNewService_RequiresSecret(t *testing.T) {
	t.Parallel()

	jwtCfg, _ := testConfigs()
	if _, err := NewService(jwtCfg, config.AdminConfig{}, &stubSessions{}); err == nil {
		t.Fatal("expected missing secret config to error")
	}
}
