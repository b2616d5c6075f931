package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"userauth/api/internal/config"
)

var (
	// ErrInvalidToken covers every verification failure: bad signature,
	// expiry, malformed input or a missing subject.
	ErrInvalidToken = errors.New("invalid token")

	ErrMissingSecret = errors.New("token signing secret is not configured")
)

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type TokenOption func(*TokenIssuer)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(i *TokenIssuer) {
		i.now = now
	}
}

func NewTokenIssuer(cfg config.SecurityConfig, opts ...TokenOption) *TokenIssuer {
	issuer := &TokenIssuer{
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.JWTAccessTTL,
		refreshTTL:    cfg.JWTRefreshTTL,
		now:           time.Now,
	}
	if issuer.accessTTL <= 0 {
		issuer.accessTTL = 15 * time.Minute
	}
	if issuer.refreshTTL <= 0 {
		issuer.refreshTTL = 7 * 24 * time.Hour
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer
}

func (i *TokenIssuer) IssueAccess(userID string) (IssuedToken, error) {
	return i.issue(userID, i.accessSecret, i.accessTTL)
}

func (i *TokenIssuer) IssueRefresh(userID string) (IssuedToken, error) {
	return i.issue(userID, i.refreshSecret, i.refreshTTL)
}

func (i *TokenIssuer) VerifyAccess(token string) (*Claims, error) {
	return i.Verify(token, i.accessSecret)
}

func (i *TokenIssuer) VerifyRefresh(token string) (*Claims, error) {
	return i.Verify(token, i.refreshSecret)
}

// Verify checks signature and expiry against secret. Any failure yields ErrInvalidToken.
func (i *TokenIssuer) Verify(tokenStr string, secret []byte) (*Claims, error) {
	if tokenStr == "" || len(secret) == 0 {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *TokenIssuer) issue(userID string, secret []byte, ttl time.Duration) (IssuedToken, error) {
	if len(secret) == 0 {
		return IssuedToken{}, ErrMissingSecret
	}

	now := i.now()
	expiresAt := now.Add(ttl)
	tokenID := uuid.NewString()

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign jwt: %w", err)
	}

	return IssuedToken{
		Token:     signed,
		ID:        tokenID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
