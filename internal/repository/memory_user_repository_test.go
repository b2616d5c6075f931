package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userauth/api/internal/models"
)

func seedUser(t *testing.T, repo *MemoryUserRepository, id, email string) models.User {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        email,
		Name:         "Ann",
		PasswordHash: "hash",
		Role:         models.UserRoleUser,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestMemoryUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	user := seedUser(t, repo, "u1", "a@x.com")

	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user, byEmail)

	byID, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, user, byID)

	_, err = repo.FindByEmail(ctx, "A@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound, "emails are case sensitive as stored")

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	original := seedUser(t, repo, "u1", "a@x.com")

	err := repo.Create(context.Background(), models.User{ID: "u2", Email: "a@x.com", Name: "Other"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	stored, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, original, stored)
}

func TestMemoryUserRepository_ConsumeResetToken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryUserRepository()
	seedUser(t, repo, "u1", "a@x.com")

	_, err := repo.Update(ctx, "u1", models.UserUpdate{
		Reset: models.Some(&models.PasswordReset{Token: "tok", ExpiresAt: now.Add(time.Hour)}),
	})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		_, err := repo.ConsumeResetToken(ctx, "tok", now.Add(time.Hour))
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := repo.ConsumeResetToken(ctx, "other", now)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("exactly once", func(t *testing.T) {
		user, err := repo.ConsumeResetToken(ctx, "tok", now.Add(59*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Nil(t, user.Reset)

		_, err = repo.ConsumeResetToken(ctx, "tok", now.Add(59*time.Minute))
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestMemoryUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	seedUser(t, repo, "u1", "a@x.com")
	seedUser(t, repo, "u2", "b@x.com")

	t.Run("email taken by another account", func(t *testing.T) {
		_, err := repo.Update(ctx, "u1", models.UserUpdate{Email: models.Some("b@x.com")})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("same email is not a conflict", func(t *testing.T) {
		_, err := repo.Update(ctx, "u1", models.UserUpdate{Email: models.Some("a@x.com")})
		assert.NoError(t, err)
	})

	t.Run("partial update reindexes email", func(t *testing.T) {
		updated, err := repo.Update(ctx, "u1", models.UserUpdate{
			Email: models.Some("c@x.com"),
			Phone: models.Some("555"),
		})
		require.NoError(t, err)
		assert.Equal(t, "c@x.com", updated.Email)
		assert.Equal(t, "Ann", updated.Name)
		require.NotNil(t, updated.Phone)
		assert.Equal(t, "555", *updated.Phone)

		_, err = repo.FindByEmail(ctx, "a@x.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
		found, err := repo.FindByEmail(ctx, "c@x.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", found.ID)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repo.Update(ctx, "nope", models.UserUpdate{Name: models.Some("x")})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestMemoryUserRepository_PurgeExpiredResetTokens(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryUserRepository()
	seedUser(t, repo, "u1", "a@x.com")
	seedUser(t, repo, "u2", "b@x.com")
	seedUser(t, repo, "u3", "c@x.com")

	_, err := repo.Update(ctx, "u1", models.UserUpdate{
		Reset: models.Some(&models.PasswordReset{Token: "old", ExpiresAt: now.Add(-time.Minute)}),
	})
	require.NoError(t, err)
	_, err = repo.Update(ctx, "u2", models.UserUpdate{
		Reset: models.Some(&models.PasswordReset{Token: "fresh", ExpiresAt: now.Add(time.Minute)}),
	})
	require.NoError(t, err)

	purged, err := repo.PurgeExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	u1, _ := repo.FindByID(ctx, "u1")
	assert.Nil(t, u1.Reset)
	u2, _ := repo.FindByID(ctx, "u2")
	assert.NotNil(t, u2.Reset)
}
