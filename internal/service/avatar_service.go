package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"userauth/api/internal/ids"
	"userauth/api/internal/media/sniffer"
	"userauth/api/internal/models"
	"userauth/api/internal/repository"
)

// AvatarStore persists profile images and returns their public URL.
type AvatarStore interface {
	PutAvatar(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type AvatarService struct {
	users    repository.UserStore
	store    AvatarStore
	maxBytes int64
	log      zerolog.Logger
}

func NewAvatarService(users repository.UserStore, store AvatarStore, maxBytes int64, log zerolog.Logger) *AvatarService {
	return &AvatarService{
		users:    users,
		store:    store,
		maxBytes: maxBytes,
		log:      log,
	}
}

type AvatarInput struct {
	UserID       string
	File         io.Reader
	DeclaredType string
}

// Upload validates and stores a profile image, then points the user's
// imageUrl at it.
func (s *AvatarService) Upload(ctx context.Context, input AvatarInput) (models.User, error) {
	if input.File == nil {
		return models.User{}, ErrImageRequired
	}

	limited := io.LimitReader(input.File, s.maxBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return models.User{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return models.User{}, ErrImageRequired
	}
	if int64(len(data)) > s.maxBytes {
		return models.User{}, ErrImageTooLarge
	}

	result, err := sniffer.DetectHead(data[:min(len(data), 512)])
	if err != nil {
		return models.User{}, ErrUnsupportedImage
	}
	if !result.MatchesDeclared(input.DeclaredType) {
		return models.User{}, ErrUnsupportedImage
	}

	if _, err := s.users.FindByID(ctx, input.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, storeError(err, "avatar_upload")
	}

	objectKey := path.Join(input.UserID, ids.New()+"."+result.Extension())
	url, err := s.store.PutAvatar(ctx, objectKey, bytes.NewReader(data), int64(len(data)), result.MIME)
	if err != nil {
		return models.User{}, oops.Code("AVATAR_STORE_FAILED").With("user_id", input.UserID).Wrap(err)
	}

	user, err := s.users.Update(ctx, input.UserID, models.UserUpdate{ImageURL: models.Some(url)})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, storeError(err, "avatar_upload")
	}

	s.log.Info().Str("user_id", user.ID).Str("object", objectKey).Msg("profile image updated")
	return user, nil
}
