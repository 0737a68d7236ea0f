package service

import (
	"time"

	"github.com/vibast-solutions/ms-go-social-auth/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

func (k TokenKind) String() string {
	if k == RefreshToken {
		return "refresh"
	}
	return "access"
}

type TokenClaims struct {
	UserID   string `json:"userId"`
	DeviceID string `json:"deviceId"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshTokenID   string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type TokenIssuerOption func(*TokenIssuer)

func WithTokenClock(now func() time.Time) TokenIssuerOption {
	return func(i *TokenIssuer) {
		if now != nil {
			i.now = now
		}
	}
}

type TokenIssuer struct {
	cfg config.JWTConfig
	now func() time.Time
}

func NewTokenIssuer(cfg config.JWTConfig, opts ...TokenIssuerOption) *TokenIssuer {
	issuer := &TokenIssuer{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer
}

func (i *TokenIssuer) IssuePair(userID, deviceID string) (*TokenPair, error) {
	now := i.now()
	accessExpiresAt := now.Add(i.cfg.AccessTokenTTL)
	refreshExpiresAt := now.Add(i.cfg.RefreshTokenTTL)

	accessToken, err := i.sign(AccessToken, userID, deviceID, uuid.New().String(), now, accessExpiresAt)
	if err != nil {
		return nil, err
	}

	refreshTokenID := uuid.New().String()
	refreshToken, err := i.sign(RefreshToken, userID, deviceID, refreshTokenID, now, refreshExpiresAt)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshTokenID:   refreshTokenID,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Verify reports every failure as ErrInvalidToken.
func (i *TokenIssuer) Verify(tokenString string, kind TokenKind) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret(kind), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" || claims.DeviceID == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (i *TokenIssuer) sign(kind TokenKind, userID, deviceID, tokenID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := &TokenClaims{
		UserID:   userID,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret(kind))
}

func (i *TokenIssuer) secret(kind TokenKind) []byte {
	if kind == RefreshToken {
		return []byte(i.cfg.RefreshSecret)
	}
	return []byte(i.cfg.AccessSecret)
}
