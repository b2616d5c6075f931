package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"userauth/api/internal/config"
	"userauth/api/internal/metrics"
	"userauth/api/internal/models"
	"userauth/api/internal/repository"
	"userauth/api/internal/security"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeMailer struct {
	sent []sentReset
	err  error
}

type sentReset struct {
	to    string
	token string
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, token string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentReset{to: to, token: token})
	return nil
}

type fakeRevocationList struct {
	revoked map[string]time.Time
	err     error
}

func newFakeRevocationList() *fakeRevocationList {
	return &fakeRevocationList{revoked: make(map[string]time.Time)}
}

func (f *fakeRevocationList) Revoke(_ context.Context, tokenID string, until time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.revoked[tokenID] = until
	return nil
}

func (f *fakeRevocationList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.revoked[tokenID]
	return ok, nil
}

// failingStore fails every call with err.
type failingStore struct {
	repository.UserStore
	err error
}

func (f failingStore) FindByEmail(context.Context, string) (models.User, error) {
	return models.User{}, f.err
}

func (f failingStore) FindByID(context.Context, string) (models.User, error) {
	return models.User{}, f.err
}

var errStoreDown = errors.New("store unavailable")

type fixture struct {
	svc     *AuthService
	users   *repository.MemoryUserRepository
	tokens  *security.TokenIssuer
	resets  *ResetTokenManager
	mailer  *fakeMailer
	revoked *fakeRevocationList
	clock   *testClock
	cfg     *config.AppConfig
	metrics *metrics.Metrics
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: "development",
		Security: config.SecurityConfig{
			JWTAccessSecret:   "access-secret",
			JWTRefreshSecret:  "refresh-secret",
			JWTAccessTTL:      15 * time.Minute,
			JWTRefreshTTL:     7 * 24 * time.Hour,
			ResetTokenTTL:     time.Hour,
			PasswordHasher:    config.HasherBcrypt,
			BcryptCost:        4,
			MinPasswordLength: 6,
		},
	}
}

func newFixture(t *testing.T, mutate ...func(*config.AppConfig)) *fixture {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	clock := &testClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	users := repository.NewMemoryUserRepository()
	hasher, err := security.NewHasher(cfg.Security.PasswordHasher, cfg.Security.BcryptCost)
	require.NoError(t, err)
	tokens := security.NewTokenIssuer(cfg.Security, security.WithClock(clock.Now))
	resets := NewResetTokenManager(users, cfg.Security.ResetTokenTTL, clock.Now)
	mailer := &fakeMailer{}
	revoked := newFakeRevocationList()
	m := metrics.New()

	svc := NewAuthService(users, hasher, tokens, resets, mailer, cfg, zerolog.New(io.Discard),
		WithRevocationList(revoked),
		WithMetrics(m),
		WithClock(clock.Now),
	)

	return &fixture{
		svc:     svc,
		users:   users,
		tokens:  tokens,
		resets:  resets,
		mailer:  mailer,
		revoked: revoked,
		clock:   clock,
		cfg:     cfg,
		metrics: m,
	}
}

func (f *fixture) register(t *testing.T, email, name, password string) models.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), RegisterInput{Email: email, Name: name, Password: password})
	require.NoError(t, err)
	return user
}
