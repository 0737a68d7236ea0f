package middleware

import (
	"net/http"
	"strings"

	httpdto "github.com/vibast-solutions/ms-go-social-auth/app/dto/http"
	"github.com/vibast-solutions/ms-go-social-auth/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	ContextUserID   = "user_id"
	ContextDeviceID = "device_id"
)

type accessTokenValidator interface {
	ValidateAccessToken(tokenString string) (*service.TokenClaims, error)
}

type AuthMiddleware struct {
	authService accessTokenValidator
}

func NewAuthMiddleware(authService accessTokenValidator) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			logrus.Debug("Missing authorization header")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "missing authorization header"})
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logrus.Debug("Invalid authorization header format")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid authorization header format"})
		}

		claims, err := m.authService.ValidateAccessToken(parts[1])
		if err != nil {
			logrus.Debug("Invalid or expired access token")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid or expired token"})
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextDeviceID, claims.DeviceID)

		return next(c)
	}
}
