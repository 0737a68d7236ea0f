package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-social-auth/app/entity"
)

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) WithTx(tx DBTX) *SessionRepository {
	return &SessionRepository{db: tx}
}

// Upsert inserts the session or, when the (user_id, device_id) pair already
// has one, overwrites it in place. The existing row keeps its id.
func (r *SessionRepository) Upsert(ctx context.Context, session *entity.AuthSession) error {
	query := `
		INSERT INTO auth_sessions (id, user_id, device_id, device_name, ip, refresh_token_id, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			device_name = VALUES(device_name),
			ip = VALUES(ip),
			refresh_token_id = VALUES(refresh_token_id),
			expires_at = VALUES(expires_at),
			updated_at = VALUES(updated_at)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.DeviceID,
		session.DeviceName,
		session.IP,
		session.RefreshTokenID,
		session.ExpiresAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

func (r *SessionRepository) FindByUserAndDevice(ctx context.Context, userID, deviceID string) (*entity.AuthSession, error) {
	query := `
		SELECT id, user_id, device_id, device_name, ip, refresh_token_id, expires_at, created_at, updated_at
		FROM auth_sessions WHERE user_id = ? AND device_id = ?
	`
	session := &entity.AuthSession{}
	err := r.db.QueryRowContext(ctx, query, userID, deviceID).Scan(
		&session.ID,
		&session.UserID,
		&session.DeviceID,
		&session.DeviceName,
		&session.IP,
		&session.RefreshTokenID,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Rotate swaps the refresh token id only if the stored one still equals
// currentTokenID. It returns false when another rotation got there first.
func (r *SessionRepository) Rotate(ctx context.Context, id, currentTokenID, newTokenID string, expiresAt, now time.Time) (bool, error) {
	query := `
		UPDATE auth_sessions SET refresh_token_id = ?, expires_at = ?, updated_at = ?
		WHERE id = ? AND refresh_token_id = ?
	`
	result, err := r.db.ExecContext(ctx, query, newTokenID, expiresAt, now, id, currentTokenID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *SessionRepository) Delete(ctx context.Context, userID, deviceID string) (int64, error) {
	query := `DELETE FROM auth_sessions WHERE user_id = ? AND device_id = ?`
	result, err := r.db.ExecContext(ctx, query, userID, deviceID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *SessionRepository) DeleteByToken(ctx context.Context, userID, deviceID, tokenID string) (int64, error) {
	query := `DELETE FROM auth_sessions WHERE user_id = ? AND device_id = ? AND refresh_token_id = ?`
	result, err := r.db.ExecContext(ctx, query, userID, deviceID, tokenID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	query := `DELETE FROM auth_sessions WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM auth_sessions WHERE expires_at < ?`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
