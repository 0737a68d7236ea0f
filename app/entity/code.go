package entity

import (
	"time"

	"github.com/google/uuid"
)

type CodePurpose string

const (
	CodePurposeEmailConfirmation CodePurpose = "email_confirmation"
	CodePurposePasswordRecovery  CodePurpose = "password_recovery"
)

// VerificationCode is a single-use code bound to a user and a purpose.
type VerificationCode struct {
	ID        string
	Code      string
	UserID    string
	Purpose   CodePurpose
	ExpiresAt time.Time
	CreatedAt time.Time
}

func NewVerificationCode(userID string, purpose CodePurpose, ttl time.Duration, now time.Time) *VerificationCode {
	return &VerificationCode{
		ID:        uuid.New().String(),
		Code:      uuid.New().String(),
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// IsExpired reports whether the code can no longer be used at now.
func (c *VerificationCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
