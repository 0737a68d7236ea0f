package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-social-auth/app/entity"
)

type CodeRepository struct {
	db DBTX
}

func NewCodeRepository(db DBTX) *CodeRepository {
	return &CodeRepository{db: db}
}

func (r *CodeRepository) Create(ctx context.Context, code *entity.VerificationCode) error {
	query := `
		INSERT INTO verification_codes (id, code, user_id, purpose, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		code.ID,
		code.Code,
		code.UserID,
		string(code.Purpose),
		code.ExpiresAt,
		code.CreatedAt,
	)
	return err
}

func (r *CodeRepository) DeleteByUserAndPurpose(ctx context.Context, userID string, purpose entity.CodePurpose) error {
	query := `DELETE FROM verification_codes WHERE user_id = ? AND purpose = ?`
	_, err := r.db.ExecContext(ctx, query, userID, string(purpose))
	return err
}

// FindByCodeForUpdate locks the matching row until the surrounding
// transaction ends. Must be called on a transaction-bound repository.
func (r *CodeRepository) FindByCodeForUpdate(ctx context.Context, code string, purpose entity.CodePurpose) (*entity.VerificationCode, error) {
	query := `
		SELECT id, code, user_id, purpose, expires_at, created_at
		FROM verification_codes WHERE code = ? AND purpose = ? FOR UPDATE
	`
	vc := &entity.VerificationCode{}
	var storedPurpose string
	err := r.db.QueryRowContext(ctx, query, code, string(purpose)).Scan(
		&vc.ID,
		&vc.Code,
		&vc.UserID,
		&storedPurpose,
		&vc.ExpiresAt,
		&vc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	vc.Purpose = entity.CodePurpose(storedPurpose)
	return vc, nil
}

func (r *CodeRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	query := `DELETE FROM verification_codes WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *CodeRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM verification_codes WHERE expires_at < ?`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
