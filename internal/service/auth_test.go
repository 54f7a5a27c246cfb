package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/domain"
	"github.com/granadev/grana-go/internal/infra/sqlite"
	"github.com/granadev/grana-go/internal/service"
)

func newAuthService(t *testing.T) *service.AuthService {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := sqlite.NewAuthStore(db, zap.NewNop())
	return service.NewAuthService(store, "test-secret", 15*time.Minute, 24*time.Hour, zap.NewNop())
}

func TestAuth_RegisterLoginRefresh(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &domain.RegisterRequest{
		Email: "ana@example.com", Name: "Ana", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.AccessToken == "" || registered.RefreshToken == "" {
		t.Fatal("expected tokens on registration")
	}

	claims, err := svc.ValidateAccessToken(registered.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Sub != registered.UserID {
		t.Errorf("expected subject %s, got %s", registered.UserID, claims.Sub)
	}

	logged, err := svc.Login(ctx, &domain.LoginRequest{
		Email: "ANA@example.com", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.UserID != registered.UserID {
		t.Errorf("login resolved wrong user: %s", logged.UserID)
	}

	refreshed, err := svc.Refresh(ctx, &domain.RefreshRequest{RefreshToken: logged.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Fatal("expected new access token")
	}

	// Rotation: the exchanged refresh token is dead.
	_, err = svc.Refresh(ctx, &domain.RefreshRequest{RefreshToken: logged.RefreshToken})
	var unauth *domain.ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Fatalf("expected unauthorized on reused refresh token, got %v", err)
	}
}

func TestAuth_RejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &domain.RegisterRequest{
		Email: "ana@example.com", Name: "Ana", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	var unauth *domain.ErrUnauthorized

	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	if !errors.As(err, &unauth) {
		t.Errorf("expected unauthorized for wrong password, got %v", err)
	}
	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	if !errors.As(err, &unauth) {
		t.Errorf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestAuth_RegisterValidation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	var ve *domain.ErrValidation

	_, err := svc.Register(ctx, &domain.RegisterRequest{Email: "not-an-email", Name: "A", Password: "longenough"})
	if !errors.As(err, &ve) {
		t.Errorf("expected validation error for email, got %v", err)
	}
	_, err = svc.Register(ctx, &domain.RegisterRequest{Email: "a@b.com", Name: "A", Password: "short"})
	if !errors.As(err, &ve) {
		t.Errorf("expected validation error for short password, got %v", err)
	}

	_, err = svc.Register(ctx, &domain.RegisterRequest{Email: "a@b.com", Name: "A", Password: "longenough"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = svc.Register(ctx, &domain.RegisterRequest{Email: "a@b.com", Name: "B", Password: "longenough"})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Errorf("expected conflict for duplicate email, got %v", err)
	}
}

func TestAuth_ValidateRejectsGarbage(t *testing.T) {
	svc := newAuthService(t)

	var unauth *domain.ErrUnauthorized
	if _, err := svc.ValidateAccessToken("not.a.jwt"); !errors.As(err, &unauth) {
		t.Errorf("expected unauthorized for garbage token, got %v", err)
	}
}
