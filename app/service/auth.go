package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-social-auth/app/dto"
	"github.com/vibast-solutions/ms-go-social-auth/app/entity"
	"github.com/vibast-solutions/ms-go-social-auth/app/repository"
	"github.com/vibast-solutions/ms-go-social-auth/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

type AuthService interface {
	Register(ctx context.Context, username, email, password string) error
	ResendConfirmation(ctx context.Context, email string) error
	ConfirmEmail(ctx context.Context, code string) error
	Login(ctx context.Context, email, password string, device DeviceInfo) (*dto.LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
	PasswordRecovery(ctx context.Context, email string) error
	SetNewPassword(ctx context.Context, newPassword, recoveryCode string) error
	Me(ctx context.Context, userID string) (*entity.User, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
}

type AuthServiceOption func(*authService)

func WithClock(now func() time.Time) AuthServiceOption {
	return func(s *authService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithHashCost(cost int) AuthServiceOption {
	return func(s *authService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.hashCost = cost
		}
	}
}

type authService struct {
	db       *sql.DB
	users    userRepository
	sessions *SessionStore
	codes    *CodeStore
	tokens   *TokenIssuer
	events   *EventDispatcher
	policy   config.PasswordPolicy
	hashCost int
	now      func() time.Time
}

func NewAuthService(
	db *sql.DB,
	users userRepository,
	sessions *SessionStore,
	codes *CodeStore,
	tokens *TokenIssuer,
	events *EventDispatcher,
	policy config.PasswordPolicy,
	opts ...AuthServiceOption,
) AuthService {
	svc := &authService{
		db:       db,
		users:    users,
		sessions: sessions,
		codes:    codes,
		tokens:   tokens,
		events:   events,
		policy:   policy,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *authService) Register(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = NormalizeEmail(email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUserExists
	}

	existing, err = s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUserExists
	}

	if err = s.policy.Validate(password); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return err
	}

	user, events := entity.NewUser(username, email, string(hashedPassword), s.now())

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := repository.NewUserRepository(tx).Create(ctx, user); err != nil {
			if repository.IsDuplicateKey(err) {
				return ErrUserExists
			}
			return err
		}

		code, err := s.codes.Issue(ctx, tx, user.ID, entity.CodePurposeEmailConfirmation)
		if err != nil {
			return err
		}

		events = append(events, entity.ConfirmationCodeIssued{
			UserID:    user.ID,
			Email:     user.Email,
			Code:      code.Code,
			ExpiresAt: code.ExpiresAt,
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Dispatch(events...)
	return nil
}

func (s *authService) ResendConfirmation(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsEmailConfirmed {
		return ErrAccountAlreadyConfirmed
	}

	code, err := s.codes.Issue(ctx, nil, user.ID, entity.CodePurposeEmailConfirmation)
	if err != nil {
		return err
	}

	s.events.Dispatch(entity.ConfirmationCodeIssued{
		UserID:    user.ID,
		Email:     user.Email,
		Code:      code.Code,
		ExpiresAt: code.ExpiresAt,
	})
	return nil
}

func (s *authService) ConfirmEmail(ctx context.Context, code string) error {
	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		userID, err := s.codes.Consume(ctx, tx, entity.CodePurposeEmailConfirmation, code)
		if err != nil {
			return err
		}

		confirmed, err := repository.NewUserRepository(tx).ConfirmEmail(ctx, userID, s.now())
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrAccountAlreadyConfirmed
		}
		return nil
	})
}

func (s *authService) Login(ctx context.Context, email, password string, device DeviceInfo) (*dto.LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsEmailConfirmed {
		return nil, ErrAccountNotConfirmed
	}

	if device.ID == "" {
		device.ID = uuid.New().String()
	}

	pair, err := s.tokens.IssuePair(user.ID, device.ID)
	if err != nil {
		return nil, err
	}

	if _, err = s.sessions.Create(ctx, user.ID, device, pair.RefreshTokenID, pair.RefreshExpiresAt); err != nil {
		return nil, err
	}

	return newLoginResult(user.ID, device.ID, pair), nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.LoginResult, error) {
	claims, err := s.tokens.Verify(refreshToken, RefreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.FindByUserAndDevice(ctx, claims.UserID, claims.DeviceID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.IsExpired(s.now()) {
		return nil, ErrSessionNotFound
	}

	pair, err := s.tokens.IssuePair(claims.UserID, claims.DeviceID)
	if err != nil {
		return nil, err
	}

	err = s.sessions.Rotate(ctx, session, claims.ID, pair.RefreshTokenID, pair.RefreshExpiresAt)
	if err != nil {
		// A lost race counts as reuse too. The revoke also drops the session
		// the winner just rotated, so every holder of the token logs in again.
		if errors.Is(err, ErrRefreshTokenReused) {
			s.revoke(ctx, claims)
		}
		return nil, err
	}

	return newLoginResult(claims.UserID, claims.DeviceID, pair), nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.Verify(refreshToken, RefreshToken)
	if err != nil {
		return err
	}

	return s.sessions.InvalidateByToken(ctx, claims.UserID, claims.DeviceID, claims.ID)
}

// PasswordRecovery never reports whether the email belongs to an account.
func (s *authService) PasswordRecovery(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		logrus.Debug("Password recovery requested for unknown email")
		return nil
	}

	code, err := s.codes.Issue(ctx, nil, user.ID, entity.CodePurposePasswordRecovery)
	if err != nil {
		return err
	}

	s.events.Dispatch(entity.RecoveryCodeIssued{
		UserID:    user.ID,
		Email:     user.Email,
		Code:      code.Code,
		ExpiresAt: code.ExpiresAt,
	})
	return nil
}

func (s *authService) SetNewPassword(ctx context.Context, newPassword, recoveryCode string) error {
	if err := s.policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return err
	}

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		userID, err := s.codes.Consume(ctx, tx, entity.CodePurposePasswordRecovery, recoveryCode)
		if err != nil {
			return err
		}

		if err = repository.NewUserRepository(tx).UpdatePassword(ctx, userID, string(hashedPassword), s.now()); err != nil {
			return err
		}

		return s.sessions.InvalidateAll(ctx, tx, userID)
	})
}

func (s *authService) Me(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *authService) ValidateAccessToken(token string) (*TokenClaims, error) {
	return s.tokens.Verify(token, AccessToken)
}

func (s *authService) revoke(ctx context.Context, claims *TokenClaims) {
	fields := logrus.Fields{
		"user_id":   claims.UserID,
		"device_id": claims.DeviceID,
	}
	logrus.WithFields(fields).Warn("Refresh token reuse detected, revoking device session")

	if err := s.sessions.Invalidate(ctx, claims.UserID, claims.DeviceID); err != nil {
		logrus.WithError(err).WithFields(fields).Error("Failed to revoke device session")
	}
}

func newLoginResult(userID, deviceID string, pair *TokenPair) *dto.LoginResult {
	return &dto.LoginResult{
		UserID:           userID,
		DeviceID:         deviceID,
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
