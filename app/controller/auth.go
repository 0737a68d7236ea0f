package controller

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-social-auth/app/dto"
	httpdto "github.com/vibast-solutions/ms-go-social-auth/app/dto/http"
	"github.com/vibast-solutions/ms-go-social-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-social-auth/app/service"
	"github.com/vibast-solutions/ms-go-social-auth/app/types"
	"github.com/vibast-solutions/ms-go-social-auth/config"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const DeviceIDHeader = "X-Device-Id"

type AuthController struct {
	authService service.AuthService
	cookie      config.CookieConfig
}

func NewAuthController(authService service.AuthService, cookie config.CookieConfig) *AuthController {
	return &AuthController{
		authService: authService,
		cookie:      cookie,
	}
}

func (c *AuthController) Signup(ctx echo.Context) error {
	req, err := types.NewSignupRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind signup request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", maskEmail(req.Email)).Debug("Signup validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", maskEmail(req.Email)).Info("Signup request received")
	err = c.authService.Register(ctx.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			logrus.WithField("email", maskEmail(req.Email)).Warn("Signup failed: user already exists")
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: "user already exists"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", maskEmail(req.Email)).Warn("Signup failed: weak password")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("email", maskEmail(req.Email)).Error("Signup failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("email", maskEmail(req.Email)).Info("User registered")
	return ctx.NoContent(http.StatusNoContent)
}

func (c *AuthController) ConfirmRegistration(ctx echo.Context) error {
	req, err := types.NewConfirmationCodeRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind registration confirmation request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Registration confirmation validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.Info("Registration confirmation request received")
	if err = c.authService.ConfirmEmail(ctx.Request().Context(), req.Code); err != nil {
		if isCodeError(err) {
			logrus.WithError(err).Warn("Registration confirmation failed")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid or expired code"})
		}
		logrus.WithError(err).Error("Registration confirmation failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.Info("Email confirmed")
	return ctx.NoContent(http.StatusNoContent)
}

func (c *AuthController) ResendConfirmation(ctx echo.Context) error {
	req, err := types.NewEmailRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind confirmation resending request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Confirmation resending validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", maskEmail(req.Email)).Info("Confirmation resending requested")
	if err = c.authService.ResendConfirmation(ctx.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrAccountAlreadyConfirmed) {
			logrus.WithError(err).Debug("Confirmation resending skipped")
			return ctx.NoContent(http.StatusNoContent)
		}
		logrus.WithError(err).WithField("email", maskEmail(req.Email)).Error("Confirmation resending failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (c *AuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", maskEmail(req.Email)).Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	device, err := deviceFromContext(ctx)
	if err != nil {
		logrus.WithField("email", maskEmail(req.Email)).Debug("Login failed: invalid device id")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", maskEmail(req.Email)).Info("Login request received")
	result, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password, device)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", maskEmail(req.Email)).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid credentials"})
		}
		if errors.Is(err, service.ErrAccountNotConfirmed) {
			logrus.WithField("email", maskEmail(req.Email)).Warn("Login failed: account not confirmed")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "account not confirmed"})
		}
		logrus.WithError(err).WithField("email", maskEmail(req.Email)).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   result.UserID,
		"device_id": result.DeviceID,
	}).Info("Login successful")
	return c.writeTokens(ctx, result)
}

func (c *AuthController) RefreshToken(ctx echo.Context) error {
	refreshToken, ok := c.refreshTokenFromCookie(ctx)
	if !ok {
		logrus.Debug("Refresh token failed: missing cookie")
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "missing refresh token"})
	}

	result, err := c.authService.RefreshToken(ctx.Request().Context(), refreshToken)
	if err != nil {
		if isSessionError(err) {
			logrus.WithError(err).Warn("Refresh token failed")
			c.clearRefreshCookie(ctx)
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid or expired refresh token"})
		}
		logrus.WithError(err).Error("Refresh token failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   result.UserID,
		"device_id": result.DeviceID,
	}).Info("Refresh token successful")
	return c.writeTokens(ctx, result)
}

func (c *AuthController) Logout(ctx echo.Context) error {
	refreshToken, ok := c.refreshTokenFromCookie(ctx)
	if !ok {
		logrus.Debug("Logout failed: missing cookie")
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "missing refresh token"})
	}

	if err := c.authService.Logout(ctx.Request().Context(), refreshToken); err != nil {
		if isSessionError(err) {
			logrus.WithError(err).Warn("Logout failed")
			c.clearRefreshCookie(ctx)
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid or expired refresh token"})
		}
		logrus.WithError(err).Error("Logout failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.Info("Logout successful")
	c.clearRefreshCookie(ctx)
	return ctx.NoContent(http.StatusNoContent)
}

// PasswordRecovery answers 204 whether or not the address is registered.
func (c *AuthController) PasswordRecovery(ctx echo.Context) error {
	req, err := types.NewEmailRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind password recovery request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("Password recovery validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", maskEmail(req.Email)).Info("Password recovery requested")
	if err = c.authService.PasswordRecovery(ctx.Request().Context(), req.Email); err != nil {
		logrus.WithError(err).WithField("email", maskEmail(req.Email)).Error("Password recovery failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (c *AuthController) NewPassword(ctx echo.Context) error {
	req, err := types.NewNewPasswordRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind new password request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.Debug("New password validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.Info("New password request received")
	if err = c.authService.SetNewPassword(ctx.Request().Context(), req.NewPassword, req.RecoveryCode); err != nil {
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.Warn("New password failed: weak password")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		if isCodeError(err) {
			logrus.WithError(err).Warn("New password failed")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid or expired code"})
		}
		logrus.WithError(err).Error("New password failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.Info("Password reset successful")
	return ctx.NoContent(http.StatusNoContent)
}

func (c *AuthController) Me(ctx echo.Context) error {
	userID, ok := ctx.Get(middleware.ContextUserID).(string)
	if !ok || userID == "" {
		logrus.Warn("Me failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
	}

	user, err := c.authService.Me(ctx.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("user_id", userID).Warn("Me failed: user not found")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Me failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, httpdto.MeResponse{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

func (c *AuthController) writeTokens(ctx echo.Context, result *dto.LoginResult) error {
	ctx.SetCookie(&http.Cookie{
		Name:     c.cookie.Name,
		Value:    result.RefreshToken,
		Path:     c.cookie.Path,
		Domain:   c.cookie.Domain,
		Expires:  result.RefreshExpiresAt,
		MaxAge:   int(time.Until(result.RefreshExpiresAt).Seconds()),
		Secure:   c.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	ctx.Response().Header().Set(DeviceIDHeader, result.DeviceID)

	return ctx.JSON(http.StatusOK, httpdto.AccessTokenResponse{AccessToken: result.AccessToken})
}

func (c *AuthController) clearRefreshCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     c.cookie.Name,
		Value:    "",
		Path:     c.cookie.Path,
		Domain:   c.cookie.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   c.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c *AuthController) refreshTokenFromCookie(ctx echo.Context) (string, bool) {
	cookie, err := ctx.Cookie(c.cookie.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// deviceFromContext reads the client's device id from X-Device-Id. Clients
// that send none get a fresh id from the service, returned in the same header.
func deviceFromContext(ctx echo.Context) (service.DeviceInfo, error) {
	device := service.DeviceInfo{
		Name: ctx.Request().UserAgent(),
		IP:   ctx.RealIP(),
	}

	raw := ctx.Request().Header.Get(DeviceIDHeader)
	if raw == "" {
		return device, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return device, errors.New("X-Device-Id must be a UUID")
	}
	device.ID = id.String()
	return device, nil
}

func isCodeError(err error) bool {
	return errors.Is(err, service.ErrInvalidCode) ||
		errors.Is(err, service.ErrCodeExpired) ||
		errors.Is(err, service.ErrAccountAlreadyConfirmed)
}

func isSessionError(err error) bool {
	return errors.Is(err, service.ErrInvalidToken) ||
		errors.Is(err, service.ErrSessionNotFound) ||
		errors.Is(err, service.ErrRefreshTokenReused)
}

// maskEmail keeps the first character of the local part and the domain.
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	local := []rune(email[:at])
	return string(local[0]) + "***" + email[at:]
}
