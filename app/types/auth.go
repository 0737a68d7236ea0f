package types

import (
	"errors"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{6,30}$`)
	emailPattern    = regexp.MustCompile(`^[\w.+-]+@([\w-]+\.)+[\w-]{2,}$`)
)

type SignupRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func NewSignupRequestFromContext(ctx echo.Context) (*SignupRequest, error) {
	var body SignupRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *SignupRequest) Validate() error {
	if !usernamePattern.MatchString(r.Username) {
		return errors.New("username must be 6 to 30 characters of letters, digits, '_' or '-'")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	if r.Password != r.PasswordConfirm {
		return errors.New("passwords do not match")
	}

	return nil
}

type ConfirmationCodeRequest struct {
	Code string `json:"code"`
}

func NewConfirmationCodeRequestFromContext(ctx echo.Context) (*ConfirmationCodeRequest, error) {
	var body ConfirmationCodeRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ConfirmationCodeRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return errors.New("code is required")
	}

	return nil
}

// EmailRequest is the body of the endpoints that only take an address:
// confirmation resending and password recovery.
type EmailRequest struct {
	Email string `json:"email"`
}

func NewEmailRequestFromContext(ctx echo.Context) (*EmailRequest, error) {
	var body EmailRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *EmailRequest) Validate() error {
	return validateEmail(r.Email)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return errors.New("email and password are required")
	}

	return nil
}

type NewPasswordRequest struct {
	NewPassword  string `json:"newPassword"`
	RecoveryCode string `json:"recoveryCode"`
}

func NewNewPasswordRequestFromContext(ctx echo.Context) (*NewPasswordRequest, error) {
	var body NewPasswordRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *NewPasswordRequest) Validate() error {
	if r.NewPassword == "" || strings.TrimSpace(r.RecoveryCode) == "" {
		return errors.New("newPassword and recoveryCode are required")
	}

	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("email is invalid")
	}

	return nil
}
