package entity

import "time"

type Event interface {
	EventName() string
}

type UserCreated struct {
	UserID   string
	Username string
	Email    string
}

func (UserCreated) EventName() string { return "user.created" }

type ConfirmationCodeIssued struct {
	UserID    string
	Email     string
	Code      string
	ExpiresAt time.Time
}

func (ConfirmationCodeIssued) EventName() string { return "user.confirmation_code_issued" }

type RecoveryCodeIssued struct {
	UserID    string
	Email     string
	Code      string
	ExpiresAt time.Time
}

func (RecoveryCodeIssued) EventName() string { return "user.recovery_code_issued" }
