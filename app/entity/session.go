package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuthSession is the login context of one user on one device. The refresh
// token currently bound to it is identified by RefreshTokenID (its jti).
type AuthSession struct {
	ID             string
	UserID         string
	DeviceID       string
	DeviceName     string
	IP             string
	RefreshTokenID string
	ExpiresAt      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewAuthSession(userID, deviceID, refreshTokenID string, expiresAt, now time.Time) *AuthSession {
	return &AuthSession{
		ID:             uuid.New().String(),
		UserID:         userID,
		DeviceID:       deviceID,
		RefreshTokenID: refreshTokenID,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *AuthSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
