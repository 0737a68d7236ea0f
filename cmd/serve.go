package cmd

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-social-auth/app/controller"
	"github.com/vibast-solutions/ms-go-social-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-social-auth/app/migrations"
	"github.com/vibast-solutions/ms-go-social-auth/app/notification"
	"github.com/vibast-solutions/ms-go-social-auth/app/ratelimit"
	"github.com/vibast-solutions/ms-go-social-auth/app/repository"
	"github.com/vibast-solutions/ms-go-social-auth/app/service"
	"github.com/vibast-solutions/ms-go-social-auth/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server exposing the /auth endpoints.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err = configureLogging(cfg.Log); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if cfg.MySQL.AutoMigrate {
		if err = migrations.Up(ctx, db); err != nil {
			logrus.WithError(err).Fatal("Failed to apply migrations")
		}
		logrus.Info("Migrations applied")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err = redisClient.Ping(ctx).Err(); err != nil {
		// the limiter fails closed, so the service still starts
		logrus.WithError(err).Warn("Redis is not reachable, rate limited endpoints will answer 503")
	}

	authService := newAuthService(cfg, db)
	recoveryLimiter := ratelimit.NewFixedWindowLimiter(redisClient, ratelimit.Config{
		Prefix: "rl:password-recovery:",
		Limit:  cfg.RateLimit.PasswordRecoveryLimit,
		Window: cfg.RateLimit.PasswordRecoveryWindow,
	})

	e := newHTTPServer(cfg, authService, recoveryLimiter)
	defer e.Close()

	go func() {
		logrus.WithField("addr", cfg.HTTPAddr()).Info("Starting HTTP server")
		if err := e.Start(cfg.HTTPAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
}

func newAuthService(cfg *config.Config, db *sql.DB) service.AuthService {
	var notifier service.Notifier
	if cfg.Mail.ResendAPIKey != "" {
		notifier = notification.NewResendNotifier(cfg.Mail.ResendAPIKey, cfg.Mail.From, cfg.Mail.AppURL)
	} else {
		logrus.Warn("MAIL_RESEND_API_KEY is not set, verification codes are only logged")
		notifier = notification.NewLogNotifier()
	}

	return service.NewAuthService(
		db,
		repository.NewUserRepository(db),
		service.NewSessionStore(db),
		service.NewCodeStore(db, cfg.Codes),
		service.NewTokenIssuer(cfg.JWT),
		service.NewEventDispatcher(notifier),
		cfg.Password.Policy,
	)
}

func newHTTPServer(cfg *config.Config, authService service.AuthService, recoveryLimiter *ratelimit.FixedWindowLimiter) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())

	authController := controller.NewAuthController(authService, cfg.Cookie)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	auth := e.Group("/auth")
	auth.POST("/signup", authController.Signup)
	auth.POST("/registration-confirmation", authController.ConfirmRegistration)
	auth.POST("/registration-email-resending", authController.ResendConfirmation)
	auth.POST("/login", authController.Login)
	auth.POST("/refresh-token", authController.RefreshToken)
	auth.POST("/logout", authController.Logout)
	auth.POST("/password-recovery", authController.PasswordRecovery, middleware.RateLimit(recoveryLimiter))
	auth.POST("/new-password", authController.NewPassword)
	auth.GET("/me", authController.Me, authMiddleware.RequireAuth)

	return e
}
