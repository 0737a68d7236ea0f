package service

import "errors"

var (
	ErrUserExists              = errors.New("user already exists")
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrAccountNotConfirmed     = errors.New("account not confirmed")
	ErrAccountAlreadyConfirmed = errors.New("account is already confirmed")
	ErrWeakPassword            = errors.New("password does not meet policy requirements")
	ErrInvalidToken            = errors.New("invalid or expired token")
	ErrSessionNotFound         = errors.New("session not found")
	ErrRefreshTokenReused      = errors.New("refresh token reuse detected")
	ErrInvalidCode             = errors.New("invalid code")
	ErrCodeExpired             = errors.New("code has expired")
)
