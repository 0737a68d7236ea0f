package dto

import "time"

// LoginResult is what a successful login or refresh hands back to the
// transport: the access token for the body and the refresh token for the
// cookie.
type LoginResult struct {
	UserID           string
	DeviceID         string
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}
