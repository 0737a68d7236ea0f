package service

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-social-auth/app/entity"
	"github.com/vibast-solutions/ms-go-social-auth/app/repository"
)

const maxDeviceNameLength = 255

type DeviceInfo struct {
	ID   string
	Name string
	IP   string
}

// SessionStore keeps at most one session per (user, device).
type SessionStore struct {
	repo *repository.SessionRepository
	now  func() time.Time
}

type SessionStoreOption func(*SessionStore)

func WithSessionClock(now func() time.Time) SessionStoreOption {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSessionStore(db repository.DBTX, opts ...SessionStoreOption) *SessionStore {
	store := &SessionStore{
		repo: repository.NewSessionRepository(db),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *SessionStore) Create(ctx context.Context, userID string, device DeviceInfo, refreshTokenID string, expiresAt time.Time) (*entity.AuthSession, error) {
	session := entity.NewAuthSession(userID, device.ID, refreshTokenID, expiresAt, s.now())
	session.DeviceName = truncateRunes(device.Name, maxDeviceNameLength)
	session.IP = device.IP

	if err := s.repo.Upsert(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) FindByUserAndDevice(ctx context.Context, userID, deviceID string) (*entity.AuthSession, error) {
	return s.repo.FindByUserAndDevice(ctx, userID, deviceID)
}

// Rotate is a compare-and-swap on the stored refresh token id.
func (s *SessionStore) Rotate(ctx context.Context, session *entity.AuthSession, presentedTokenID, newTokenID string, expiresAt time.Time) error {
	if session.RefreshTokenID != presentedTokenID {
		return ErrRefreshTokenReused
	}

	now := s.now()
	rotated, err := s.repo.Rotate(ctx, session.ID, presentedTokenID, newTokenID, expiresAt, now)
	if err != nil {
		return err
	}
	if !rotated {
		return ErrRefreshTokenReused
	}

	session.RefreshTokenID = newTokenID
	session.ExpiresAt = expiresAt
	session.UpdatedAt = now
	return nil
}

func (s *SessionStore) Invalidate(ctx context.Context, userID, deviceID string) error {
	_, err := s.repo.Delete(ctx, userID, deviceID)
	return err
}

func (s *SessionStore) InvalidateByToken(ctx context.Context, userID, deviceID, tokenID string) error {
	deleted, err := s.repo.DeleteByToken(ctx, userID, deviceID, tokenID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) InvalidateAll(ctx context.Context, uow repository.DBTX, userID string) error {
	repo := s.repo
	if uow != nil {
		repo = repo.WithTx(uow)
	}
	return repo.DeleteByUserID(ctx, userID)
}

func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
