package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/domain"
)

// AuthStore implements port.AuthStore on top of SQLite. Auth writes do not
// bump the snapshot version; tokens have no bearing on derived views.
type AuthStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuthStore creates an AuthStore over an opened database.
func NewAuthStore(db *sql.DB, logger *zap.Logger) *AuthStore {
	return &AuthStore{db: db, logger: logger}
}

func (s *AuthStore) storeErr(op string, err error) error {
	s.logger.Error("auth store operation failed", zap.String("op", op), zap.Error(err))
	return &domain.ErrStoreUnavailable{Op: op, Err: err}
}

func (s *AuthStore) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.getUser(ctx, `id = ?`, userID)
}

func (s *AuthStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, `email = ?`, strings.ToLower(email))
}

func (s *AuthStore) getUser(ctx context.Context, where, arg string) (*domain.User, error) {
	var u domain.User
	var createdStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "user", ID: arg}
	}
	if err != nil {
		return nil, s.storeErr("get_user", err)
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return nil, s.storeErr("get_user", err)
	}
	return &u, nil
}

func (s *AuthStore) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID, strings.ToLower(user.Email), user.Name, user.PasswordHash,
		user.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, &domain.ErrConflict{Message: "email already registered"}
		}
		return nil, s.storeErr("create_user", err)
	}
	return user, nil
}

func (s *AuthStore) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, s.storeErr("list_user_ids", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, s.storeErr("list_user_ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeErr("list_user_ids", err)
	}
	return ids, nil
}

func (s *AuthStore) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		uuid.NewString(), userID, tokenHash,
		expiresAt.UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return s.storeErr("store_refresh_token", err)
	}
	return nil
}

func (s *AuthStore) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken
	var expiresStr, createdStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, revoked, created_at
		 FROM refresh_tokens WHERE token_hash = ?`, tokenHash).
		Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &expiresStr, &rt.Revoked, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "refresh token", ID: "token"}
	}
	if err != nil {
		return nil, s.storeErr("get_refresh_token", err)
	}
	if rt.ExpiresAt, err = time.Parse(time.RFC3339, expiresStr); err != nil {
		return nil, s.storeErr("get_refresh_token", err)
	}
	if rt.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return nil, s.storeErr("get_refresh_token", err)
	}
	return &rt, nil
}

func (s *AuthStore) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return s.storeErr("revoke_refresh_token", err)
	}
	return nil
}

func (s *AuthStore) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ?`, userID)
	if err != nil {
		return s.storeErr("revoke_all_refresh_tokens", err)
	}
	return nil
}
