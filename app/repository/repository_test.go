package repository_test

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	insertUserQuery          = `(?s)INSERT INTO users \(id, username, email, password_hash, is_email_confirmed, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?\)`
	findUserByEmailQuery     = `(?s)SELECT id, username, email, password_hash, is_email_confirmed, created_at, updated_at FROM users WHERE email = \?`
	findUserByUsernameQuery  = `(?s)SELECT id, username, email, password_hash, is_email_confirmed, created_at, updated_at FROM users WHERE username = \?`
	findUserByIDQuery        = `(?s)SELECT id, username, email, password_hash, is_email_confirmed, created_at, updated_at FROM users WHERE id = \?`
	updatePasswordQuery      = `(?s)UPDATE users SET password_hash = \?, updated_at = \? WHERE id = \?`
	confirmEmailQuery        = `(?s)UPDATE users SET is_email_confirmed = 1, updated_at = \? WHERE id = \? AND is_email_confirmed = 0`
	upsertSessionQuery       = `(?s)INSERT INTO auth_sessions \(id, user_id, device_id, device_name, ip, refresh_token_id, expires_at, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?, \?, \?\)\s+ON DUPLICATE KEY UPDATE`
	findSessionQuery         = `(?s)SELECT id, user_id, device_id, device_name, ip, refresh_token_id, expires_at, created_at, updated_at\s+FROM auth_sessions WHERE user_id = \? AND device_id = \?`
	rotateSessionQuery       = `(?s)UPDATE auth_sessions SET refresh_token_id = \?, expires_at = \?, updated_at = \?\s+WHERE id = \? AND refresh_token_id = \?`
	deleteSessionQuery       = `(?s)DELETE FROM auth_sessions WHERE user_id = \? AND device_id = \?$`
	deleteSessionByToken     = `(?s)DELETE FROM auth_sessions WHERE user_id = \? AND device_id = \? AND refresh_token_id = \?$`
	deleteSessionsByUser     = `(?s)DELETE FROM auth_sessions WHERE user_id = \?$`
	deleteExpiredSessions    = `(?s)DELETE FROM auth_sessions WHERE expires_at < \?`
	insertCodeQuery          = `(?s)INSERT INTO verification_codes \(id, code, user_id, purpose, expires_at, created_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?\)`
	deleteCodesByUserPurpose = `(?s)DELETE FROM verification_codes WHERE user_id = \? AND purpose = \?`
	findCodeForUpdateQuery   = `(?s)SELECT id, code, user_id, purpose, expires_at, created_at\s+FROM verification_codes WHERE code = \? AND purpose = \? FOR UPDATE`
	deleteCodeByIDQuery      = `(?s)DELETE FROM verification_codes WHERE id = \?`
	deleteExpiredCodes       = `(?s)DELETE FROM verification_codes WHERE expires_at < \?`
)

var userColumns = []string{
	"id",
	"username",
	"email",
	"password_hash",
	"is_email_confirmed",
	"created_at",
	"updated_at",
}

var sessionColumns = []string{
	"id",
	"user_id",
	"device_id",
	"device_name",
	"ip",
	"refresh_token_id",
	"expires_at",
	"created_at",
	"updated_at",
}

var codeColumns = []string{
	"id",
	"code",
	"user_id",
	"purpose",
	"expires_at",
	"created_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func assertExpectations(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
