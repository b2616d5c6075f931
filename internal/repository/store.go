package repository

import (
	"context"
	"errors"
	"time"

	"userauth/api/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// UserStore persists user records. Implementations must provide atomic
// single-record writes; ConsumeResetToken in particular looks up and clears
// the reset fields in one operation so a token validates at most once.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	// ConsumeResetToken returns the user holding token with an expiry after
	// now and clears both reset fields. Expired and unknown tokens both
	// yield ErrUserNotFound.
	ConsumeResetToken(ctx context.Context, token string, now time.Time) (models.User, error)
	Update(ctx context.Context, id string, update models.UserUpdate) (models.User, error)
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}
