package repository

import (
	"context"
	"sync"
	"time"

	"userauth/api/internal/models"
)

type MemoryUserRepository struct {
	mu      sync.RWMutex
	users   map[string]models.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return ErrEmailTaken
	}
	r.users[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return r.users[id], nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) ConsumeResetToken(_ context.Context, token string, now time.Time) (models.User, error) {
	if token == "" {
		return models.User{}, ErrUserNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, user := range r.users {
		if user.Reset == nil || user.Reset.Token != token || !user.Reset.Live(now) {
			continue
		}
		user.Reset = nil
		user.UpdatedAt = now
		r.users[id] = user
		return user, nil
	}
	return models.User{}, ErrUserNotFound
}

func (r *MemoryUserRepository) Update(_ context.Context, id string, update models.UserUpdate) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	if update.Empty() {
		return current, nil
	}

	if update.Email.Set && update.Email.Value != current.Email {
		if owner, taken := r.byEmail[update.Email.Value]; taken && owner != id {
			return models.User{}, ErrEmailTaken
		}
	}

	next := update.Apply(current)
	next.UpdatedAt = r.now()

	if next.Email != current.Email {
		delete(r.byEmail, current.Email)
		r.byEmail[next.Email] = id
	}
	r.users[id] = next
	return next, nil
}

func (r *MemoryUserRepository) PurgeExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var purged int64
	for id, user := range r.users {
		if user.Reset == nil || user.Reset.Live(now) {
			continue
		}
		user.Reset = nil
		r.users[id] = user
		purged++
	}
	return purged, nil
}

func (r *MemoryUserRepository) Ping(context.Context) error {
	return nil
}
