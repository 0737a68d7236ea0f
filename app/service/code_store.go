package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-social-auth/app/entity"
	"github.com/vibast-solutions/ms-go-social-auth/app/repository"
	"github.com/vibast-solutions/ms-go-social-auth/config"
)

// CodeStore runs in its own transaction when uow is nil.
type CodeStore struct {
	db  *sql.DB
	cfg config.CodeConfig
	now func() time.Time
}

type CodeStoreOption func(*CodeStore)

func WithCodeClock(now func() time.Time) CodeStoreOption {
	return func(s *CodeStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewCodeStore(db *sql.DB, cfg config.CodeConfig, opts ...CodeStoreOption) *CodeStore {
	store := &CodeStore{
		db:  db,
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *CodeStore) TTL(purpose entity.CodePurpose) time.Duration {
	if purpose == entity.CodePurposePasswordRecovery {
		return s.cfg.RecoveryTTL
	}
	return s.cfg.ConfirmationTTL
}

func (s *CodeStore) Issue(ctx context.Context, uow repository.DBTX, userID string, purpose entity.CodePurpose) (*entity.VerificationCode, error) {
	if uow == nil {
		var code *entity.VerificationCode
		err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
			var err error
			code, err = s.issue(ctx, tx, userID, purpose)
			return err
		})
		if err != nil {
			return nil, err
		}
		return code, nil
	}

	return s.issue(ctx, uow, userID, purpose)
}

// Consume locks and deletes the row before checking expiry.
func (s *CodeStore) Consume(ctx context.Context, uow repository.DBTX, purpose entity.CodePurpose, value string) (string, error) {
	if uow == nil {
		var userID string
		err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
			var err error
			userID, err = s.consume(ctx, tx, purpose, value)
			return err
		})
		if err != nil {
			return "", err
		}
		return userID, nil
	}

	return s.consume(ctx, uow, purpose, value)
}

func (s *CodeStore) PurgeExpired(ctx context.Context) (int64, error) {
	return repository.NewCodeRepository(s.db).DeleteExpired(ctx, s.now())
}

func (s *CodeStore) issue(ctx context.Context, uow repository.DBTX, userID string, purpose entity.CodePurpose) (*entity.VerificationCode, error) {
	repo := repository.NewCodeRepository(uow)
	if err := repo.DeleteByUserAndPurpose(ctx, userID, purpose); err != nil {
		return nil, fmt.Errorf("supersede %s code: %w", purpose, err)
	}

	code := entity.NewVerificationCode(userID, purpose, s.TTL(purpose), s.now())
	if err := repo.Create(ctx, code); err != nil {
		return nil, fmt.Errorf("create %s code: %w", purpose, err)
	}

	return code, nil
}

func (s *CodeStore) consume(ctx context.Context, uow repository.DBTX, purpose entity.CodePurpose, value string) (string, error) {
	repo := repository.NewCodeRepository(uow)
	code, err := repo.FindByCodeForUpdate(ctx, value, purpose)
	if err != nil {
		return "", err
	}
	if code == nil {
		return "", ErrInvalidCode
	}

	if _, err = repo.DeleteByID(ctx, code.ID); err != nil {
		return "", err
	}

	if code.IsExpired(s.now()) {
		return "", ErrCodeExpired
	}

	return code.UserID, nil
}
