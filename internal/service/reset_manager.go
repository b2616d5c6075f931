package service

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"

	"userauth/api/internal/models"
	"userauth/api/internal/repository"
	"userauth/api/internal/security"
)

// ResetTokenManager owns the password reset token lifecycle: issue, single
// use consume, invalidate after a failed delivery, and purge of expired pairs.
type ResetTokenManager struct {
	users    repository.UserStore
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

func NewResetTokenManager(users repository.UserStore, ttl time.Duration, now func() time.Time) *ResetTokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &ResetTokenManager{
		users:    users,
		ttl:      ttl,
		now:      now,
		generate: security.GenerateResetToken,
	}
}

// Issue stores a fresh token on the user, replacing any previous one.
func (m *ResetTokenManager) Issue(ctx context.Context, user models.User) (models.PasswordReset, error) {
	token, err := m.generate()
	if err != nil {
		return models.PasswordReset{}, oops.Code("RESET_TOKEN_GENERATE").With("user_id", user.ID).Wrap(err)
	}

	reset := models.PasswordReset{
		Token:     token,
		ExpiresAt: m.now().Add(m.ttl).UTC(),
	}
	if _, err := m.users.Update(ctx, user.ID, models.UserUpdate{Reset: models.Some(&reset)}); err != nil {
		return models.PasswordReset{}, oops.Code("RESET_TOKEN_STORE").With("user_id", user.ID).Wrap(err)
	}
	return reset, nil
}

// Consume returns the owner of a live token and clears it. Unknown, expired
// and already used tokens all yield ErrInvalidResetToken.
func (m *ResetTokenManager) Consume(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrInvalidResetToken
	}

	user, err := m.users.ConsumeResetToken(ctx, token, m.now())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrInvalidResetToken
		}
		return models.User{}, oops.Code("RESET_TOKEN_CONSUME").Wrap(err)
	}
	return user, nil
}

func (m *ResetTokenManager) Invalidate(ctx context.Context, userID string) error {
	_, err := m.users.Update(ctx, userID, models.UserUpdate{Reset: models.Null[*models.PasswordReset]()})
	if err != nil {
		return oops.Code("RESET_TOKEN_INVALIDATE").With("user_id", userID).Wrap(err)
	}
	return nil
}

func (m *ResetTokenManager) Purge(ctx context.Context) (int64, error) {
	n, err := m.users.PurgeExpiredResetTokens(ctx, m.now())
	if err != nil {
		return 0, oops.Code("RESET_TOKEN_PURGE").Wrap(err)
	}
	return n, nil
}
