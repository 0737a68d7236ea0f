package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	findUserByEmailQuery     = `(?s)SELECT id, username, email, password_hash, is_email_confirmed, created_at, updated_at FROM users WHERE email = \?`
	findUserByUsernameQuery  = `(?s)SELECT id, username, email, password_hash, is_email_confirmed, created_at, updated_at FROM users WHERE username = \?`
	findUserByIDQuery        = `(?s)SELECT id, username, email, password_hash, is_email_confirmed, created_at, updated_at FROM users WHERE id = \?`
	insertUserQuery          = `(?s)INSERT INTO users \(id, username, email, password_hash, is_email_confirmed, created_at, updated_at\)`
	updatePasswordQuery      = `(?s)UPDATE users SET password_hash = \?, updated_at = \? WHERE id = \?`
	confirmEmailQuery        = `(?s)UPDATE users SET is_email_confirmed = 1, updated_at = \? WHERE id = \? AND is_email_confirmed = 0`
	upsertSessionQuery       = `(?s)INSERT INTO auth_sessions .+ ON DUPLICATE KEY UPDATE`
	findSessionQuery         = `(?s)SELECT id, user_id, device_id, device_name, ip, refresh_token_id, expires_at, created_at, updated_at\s+FROM auth_sessions WHERE user_id = \? AND device_id = \?`
	rotateSessionQuery       = `(?s)UPDATE auth_sessions SET refresh_token_id = \?, expires_at = \?, updated_at = \?\s+WHERE id = \? AND refresh_token_id = \?`
	deleteSessionQuery       = `(?s)DELETE FROM auth_sessions WHERE user_id = \? AND device_id = \?$`
	deleteSessionByToken     = `(?s)DELETE FROM auth_sessions WHERE user_id = \? AND device_id = \? AND refresh_token_id = \?$`
	deleteSessionsByUser     = `(?s)DELETE FROM auth_sessions WHERE user_id = \?$`
	deleteExpiredSessions    = `(?s)DELETE FROM auth_sessions WHERE expires_at < \?`
	insertCodeQuery          = `(?s)INSERT INTO verification_codes \(id, code, user_id, purpose, expires_at, created_at\)`
	deleteCodesByUserPurpose = `(?s)DELETE FROM verification_codes WHERE user_id = \? AND purpose = \?`
	findCodeForUpdateQuery   = `(?s)SELECT id, code, user_id, purpose, expires_at, created_at\s+FROM verification_codes WHERE code = \? AND purpose = \? FOR UPDATE`
	deleteCodeByIDQuery      = `(?s)DELETE FROM verification_codes WHERE id = \?`
	deleteExpiredCodes       = `(?s)DELETE FROM verification_codes WHERE expires_at < \?`
)

var (
	userColumns    = []string{"id", "username", "email", "password_hash", "is_email_confirmed", "created_at", "updated_at"}
	sessionColumns = []string{"id", "user_id", "device_id", "device_name", "ip", "refresh_token_id", "expires_at", "created_at", "updated_at"}
	codeColumns    = []string{"id", "code", "user_id", "purpose", "expires_at", "created_at"}
)

var baseTime = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertExpectations(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: baseTime}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMail struct {
	Kind  string
	Email string
	Code  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) SendConfirmation(_ context.Context, email, code string) error {
	return n.record("confirmation", email, code)
}

func (n *fakeNotifier) SendRecovery(_ context.Context, email, code string) error {
	return n.record("recovery", email, code)
}

func (n *fakeNotifier) record(kind, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{Kind: kind, Email: email, Code: code})
	return n.err
}

func (n *fakeNotifier) Sent() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.sent...)
}

func syncRunner(task func()) {
	task()
}
