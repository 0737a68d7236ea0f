package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTP      HTTPConfig      `envPrefix:"HTTP_"`
	MySQL     MySQLConfig     `envPrefix:"MYSQL_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	JWT       JWTConfig       `envPrefix:"JWT_"`
	Codes     CodeConfig      `envPrefix:"CODE_"`
	Password  PasswordConfig  `envPrefix:"PASSWORD_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Cookie    CookieConfig    `envPrefix:"COOKIE_"`
	Mail      MailConfig      `envPrefix:"MAIL_"`
	Log       LogConfig       `envPrefix:"LOG_"`
}

type HTTPConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8080"`
}

type MySQLConfig struct {
	DSN         string `env:"DSN"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type JWTConfig struct {
	AccessSecret    string        `env:"ACCESS_SECRET"`
	RefreshSecret   string        `env:"REFRESH_SECRET"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"10m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`
}

type CodeConfig struct {
	ConfirmationTTL time.Duration `env:"CONFIRMATION_TTL" envDefault:"15m"`
	RecoveryTTL     time.Duration `env:"RECOVERY_TTL" envDefault:"15m"`
}

type PasswordConfig struct {
	Policy PasswordPolicy
}

type RateLimitConfig struct {
	PasswordRecoveryLimit  int           `env:"PASSWORD_RECOVERY_LIMIT" envDefault:"5"`
	PasswordRecoveryWindow time.Duration `env:"PASSWORD_RECOVERY_WINDOW" envDefault:"10s"`
}

type CookieConfig struct {
	Name   string `env:"NAME" envDefault:"refreshToken"`
	Path   string `env:"PATH" envDefault:"/auth"`
	Domain string `env:"DOMAIN"`
	Secure bool   `env:"SECURE" envDefault:"true"`
}

type MailConfig struct {
	ResendAPIKey string `env:"RESEND_API_KEY"`
	From         string `env:"FROM" envDefault:"noreply@example.com"`
	AppURL       string `env:"APP_URL" envDefault:"http://localhost:3000"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

type PasswordPolicy struct {
	MinLength        int  `env:"MIN_LENGTH" envDefault:"6"`
	MaxLength        int  `env:"MAX_LENGTH" envDefault:"20"`
	RequireUppercase bool `env:"REQUIRE_UPPERCASE" envDefault:"true"`
	RequireLowercase bool `env:"REQUIRE_LOWERCASE" envDefault:"true"`
	RequireNumber    bool `env:"REQUIRE_NUMBER" envDefault:"true"`
	RequireSpecial   bool `env:"REQUIRE_SPECIAL" envDefault:"true"`
}

func (p PasswordPolicy) Validate(password string) error {
	length := len([]rune(password))
	if length < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		return fmt.Errorf("password must be at most %d characters long", p.MaxLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MySQL.DSN == "" {
		return errors.New("MYSQL_DSN environment variable is required")
	}
	dsn, err := mysql.ParseDSN(c.MySQL.DSN)
	if err != nil {
		return fmt.Errorf("invalid MYSQL_DSN: %w", err)
	}
	// repositories scan DATETIME columns into time.Time
	dsn.ParseTime = true
	c.MySQL.DSN = dsn.FormatDSN()

	if c.JWT.AccessSecret == "" {
		return errors.New("JWT_ACCESS_SECRET environment variable is required")
	}
	if c.JWT.RefreshSecret == "" {
		return errors.New("JWT_REFRESH_SECRET environment variable is required")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= 0 {
		return errors.New("jwt token ttl values must be positive")
	}
	if c.JWT.AccessTokenTTL >= c.JWT.RefreshTokenTTL {
		return errors.New("JWT_ACCESS_TOKEN_TTL must be shorter than JWT_REFRESH_TOKEN_TTL")
	}
	if c.Codes.ConfirmationTTL <= 0 || c.Codes.RecoveryTTL <= 0 {
		return errors.New("code ttl values must be positive")
	}
	if c.RateLimit.PasswordRecoveryLimit <= 0 || c.RateLimit.PasswordRecoveryWindow <= 0 {
		return errors.New("rate limit settings must be positive")
	}
	if c.Cookie.Name == "" {
		return errors.New("COOKIE_NAME must not be empty")
	}

	return nil
}

func (c *Config) DSN() string {
	return c.MySQL.DSN
}

func (c *Config) HTTPAddr() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}
