package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-social-auth/app/entity"
	"github.com/vibast-solutions/ms-go-social-auth/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUserRepository_Create(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	user, _ := entity.NewUser("Testuser123", "e@gmail.com", "hash", time.Now())

	mock.ExpectExec(insertUserQuery).
		WithArgs(user.ID, user.Username, user.Email, user.PasswordHash, false, user.CreatedAt, user.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	assertExpectations(t, mock)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("e@gmail.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			"user-1", "Testuser123", "e@gmail.com", "hash", true, now, now,
		))

	user, err := repo.FindByEmail(context.Background(), "e@gmail.com")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user == nil || user.ID != "user-1" || user.Username != "Testuser123" || !user.IsEmailConfirmed {
		t.Fatalf("unexpected user: %+v", user)
	}
	assertExpectations(t, mock)
}

func TestUserRepository_FindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("missing@gmail.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.FindByEmail(context.Background(), "missing@gmail.com")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
	assertExpectations(t, mock)
}

func TestUserRepository_FindByUsernameAndID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(findUserByUsernameQuery).
		WithArgs("Testuser123").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			"user-1", "Testuser123", "e@gmail.com", "hash", false, now, now,
		))
	mock.ExpectQuery(findUserByIDQuery).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.FindByUsername(context.Background(), "Testuser123")
	if err != nil || user == nil {
		t.Fatalf("find by username failed: %v %+v", err, user)
	}
	user, err = repo.FindByID(context.Background(), "user-1")
	if err != nil || user != nil {
		t.Fatalf("expected nil user by id, got %+v %v", user, err)
	}
	assertExpectations(t, mock)
}

func TestUserRepository_FindPropagatesErrors(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	dbErr := errors.New("connection reset")
	mock.ExpectQuery(findUserByIDQuery).
		WithArgs("user-1").
		WillReturnError(dbErr)

	if _, err := repo.FindByID(context.Background(), "user-1"); !errors.Is(err, dbErr) {
		t.Fatalf("expected db error, got %v", err)
	}
	assertExpectations(t, mock)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	now := time.Now()
	mock.ExpectExec(updatePasswordQuery).
		WithArgs("new-hash", now, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePassword(context.Background(), "user-1", "new-hash", now); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	assertExpectations(t, mock)
}

func TestUserRepository_ConfirmEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewUserRepository(db)
	now := time.Now()

	mock.ExpectExec(confirmEmailQuery).
		WithArgs(now, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(confirmEmailQuery).
		WithArgs(now, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	confirmed, err := repo.ConfirmEmail(context.Background(), "user-1", now)
	if err != nil || !confirmed {
		t.Fatalf("expected first confirmation to succeed, got %v %v", confirmed, err)
	}
	confirmed, err = repo.ConfirmEmail(context.Background(), "user-1", now)
	if err != nil || confirmed {
		t.Fatalf("expected second confirmation to be a no-op, got %v %v", confirmed, err)
	}
	assertExpectations(t, mock)
}

func TestUserRepository_CreateInTransaction(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	user, _ := entity.NewUser("Testuser123", "e@gmail.com", "hash", time.Now())

	mock.ExpectBegin()
	mock.ExpectExec(insertUserQuery).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err = repository.NewUserRepository(tx).Create(context.Background(), user); err != nil {
		t.Fatalf("create in tx failed: %v", err)
	}
	if err = tx.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	assertExpectations(t, mock)
}
