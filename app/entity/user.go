package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	IsEmailConfirmed bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewUser builds an unconfirmed user and the events describing its creation.
// Nothing is persisted; callers publish the events once the write commits.
func NewUser(username, email, passwordHash string, now time.Time) (*User, []Event) {
	user := &User{
		ID:               uuid.New().String(),
		Username:         username,
		Email:            email,
		PasswordHash:     passwordHash,
		IsEmailConfirmed: false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	return user, []Event{UserCreated{UserID: user.ID, Username: user.Username, Email: user.Email}}
}
