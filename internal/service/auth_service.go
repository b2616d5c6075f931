package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"userauth/api/internal/config"
	"userauth/api/internal/ids"
	"userauth/api/internal/metrics"
	"userauth/api/internal/models"
	"userauth/api/internal/repository"
	"userauth/api/internal/security"
)

// PasswordResetMailer delivers reset tokens out of band.
type PasswordResetMailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}

// hashUpgrader is implemented by hashers that can tell when a stored hash
// was produced by a different algorithm than the current one.
type hashUpgrader interface {
	NeedsUpgrade(encodedHash string) bool
}

type AuthService struct {
	users   repository.UserStore
	hasher  security.PasswordHasher
	tokens  *security.TokenIssuer
	resets  *ResetTokenManager
	revoked security.RevocationList
	mailer  PasswordResetMailer
	metrics *metrics.Metrics
	cfg     *config.AppConfig
	log     zerolog.Logger
	now     func() time.Time
}

type AuthOption func(*AuthService)

func WithRevocationList(list security.RevocationList) AuthOption {
	return func(s *AuthService) {
		s.revoked = list
	}
}

func WithMetrics(m *metrics.Metrics) AuthOption {
	return func(s *AuthService) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) {
		s.now = now
	}
}

func NewAuthService(
	users repository.UserStore,
	hasher security.PasswordHasher,
	tokens *security.TokenIssuer,
	resets *ResetTokenManager,
	mailer PasswordResetMailer,
	cfg *config.AppConfig,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		resets:  resets,
		revoked: security.NopRevocationList{},
		mailer:  mailer,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (user models.User, err error) {
	defer s.observe("register", &err)

	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if input.Email == "" || input.Name == "" || input.Password == "" {
		return models.User{}, ErrMissingRegistration
	}

	role := models.UserRoleUser
	if input.Role != "" {
		role = models.UserRole(input.Role)
		if !role.Valid() {
			return models.User{}, ErrInvalidRole
		}
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return models.User{}, ErrUserExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, storeError(err, "register")
	}

	passwordHash, err := s.hashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	now := s.now().UTC()
	user = models.User{
		ID:           ids.New(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, storeError(err, "register")
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         models.User
}

func (s *AuthService) Login(ctx context.Context, email, password string) (result LoginResult, err error) {
	defer s.observe("login", &err)

	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, storeError(err, "login")
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidPassword
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return LoginResult{}, tokenError(err, user.ID)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return LoginResult{}, tokenError(err, user.ID)
	}

	s.upgradeHash(ctx, user, password)

	return LoginResult{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		User:         user,
	}, nil
}

// upgradeHash rehashes the password with the configured algorithm after a
// successful login against a hash produced by another one. Failures are logged only.
func (s *AuthService) upgradeHash(ctx context.Context, user models.User, password string) {
	upgrader, ok := s.hasher.(hashUpgrader)
	if !ok || !upgrader.NeedsUpgrade(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err == nil {
		_, err = s.users.Update(ctx, user.ID, models.UserUpdate{PasswordHash: models.Some(hash)})
	}
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("password hash upgrade failed")
	}
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (issued security.IssuedToken, err error) {
	defer s.observe("refresh_token", &err)

	if refreshToken == "" {
		return security.IssuedToken{}, ErrRefreshTokenRequired
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return security.IssuedToken{}, ErrInvalidRefreshToken
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return security.IssuedToken{}, oops.Code("AUTH_REVOCATION_CHECK").With("user_id", claims.UserID).Wrap(err)
	}
	if revoked {
		return security.IssuedToken{}, ErrInvalidRefreshToken
	}

	issued, err = s.tokens.IssueAccess(claims.UserID)
	if err != nil {
		return security.IssuedToken{}, tokenError(err, claims.UserID)
	}
	return issued, nil
}

// Logout revokes the presented access token and, when supplied and valid,
// the refresh token. With the no-op revocation list this does nothing.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time, refreshToken string) (err error) {
	defer s.observe("logout", &err)

	if err := s.revoked.Revoke(ctx, tokenID, expiresAt); err != nil {
		return oops.Code("AUTH_REVOKE_FAILED").With("token_id", tokenID).Wrap(err)
	}

	if refreshToken == "" {
		return nil
	}
	claims, verr := s.tokens.VerifyRefresh(refreshToken)
	if verr != nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return oops.Code("AUTH_REVOKE_FAILED").With("token_id", claims.ID).Wrap(err)
	}
	return nil
}

type ForgotPasswordResult struct {
	// ResetToken is only populated when the deployment may expose it.
	ResetToken string
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) (result ForgotPasswordResult, err error) {
	defer s.observe("forgot_password", &err)

	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ForgotPasswordResult{}, ErrAccountNotFound
		}
		return ForgotPasswordResult{}, storeError(err, "forgot_password")
	}

	reset, err := s.resets.Issue(ctx, user)
	if err != nil {
		return ForgotPasswordResult{}, err
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, reset.Token); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("password reset email failed")
		if ierr := s.resets.Invalidate(ctx, user.ID); ierr != nil {
			s.log.Error().Err(ierr).Str("user_id", user.ID).Msg("reset token invalidation failed")
		}
		return ForgotPasswordResult{}, ErrEmailDelivery
	}

	if s.cfg.ExposeResetToken() {
		result.ResetToken = reset.Token
	}
	return result, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) (err error) {
	defer s.observe("reset_password", &err)

	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if newPassword == "" {
		return ErrResetFieldsRequired
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	user, err := s.resets.Consume(ctx, token)
	if err != nil {
		return err
	}

	if _, err := s.users.Update(ctx, user.ID, models.UserUpdate{PasswordHash: models.Some(passwordHash)}); err != nil {
		return storeError(err, "reset_password")
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (err error) {
	defer s.observe("change_password", &err)

	if currentPassword == "" || newPassword == "" {
		return ErrPasswordsRequired
	}
	if minLen := s.cfg.Security.MinPasswordLength; utf8.RuneCountInString(newPassword) < minLen {
		return PasswordLengthError{Min: minLen}
	}

	user, err := s.findUser(ctx, userID, "change_password")
	if err != nil {
		return err
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return ErrIncorrectPassword
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	if _, err := s.users.Update(ctx, userID, models.UserUpdate{PasswordHash: models.Some(passwordHash)}); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return storeError(err, "change_password")
	}
	return nil
}

// CheckAuth returns the caller's record for the session check endpoint.
func (s *AuthService) CheckAuth(ctx context.Context, userID string) (user models.User, err error) {
	defer s.observe("check_auth", &err)
	return s.findUser(ctx, userID, "check_auth")
}

func (s *AuthService) Profile(ctx context.Context, userID string) (user models.User, err error) {
	defer s.observe("profile", &err)
	return s.findUser(ctx, userID, "profile")
}

// ProfileUpdate carries only the fields the caller sent.
type ProfileUpdate struct {
	Name     models.Optional[string] `json:"name"`
	Email    models.Optional[string] `json:"email"`
	Phone    models.Optional[string] `json:"phone"`
	ImageURL models.Optional[string] `json:"imageUrl"`
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input ProfileUpdate) (user models.User, err error) {
	defer s.observe("update_profile", &err)

	input.Name.Value = strings.TrimSpace(input.Name.Value)
	input.Email.Value = strings.TrimSpace(input.Email.Value)
	if input.Name.Set && (input.Name.Null || input.Name.Value == "") {
		return models.User{}, ErrNameEmailRequired
	}
	if input.Email.Set && (input.Email.Null || input.Email.Value == "") {
		return models.User{}, ErrNameEmailRequired
	}

	current, err := s.findUser(ctx, userID, "update_profile")
	if err != nil {
		return models.User{}, err
	}

	if input.Email.Set && input.Email.Value != current.Email {
		existing, err := s.users.FindByEmail(ctx, input.Email.Value)
		switch {
		case err == nil && existing.ID != userID:
			return models.User{}, ErrEmailInUse
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return models.User{}, storeError(err, "update_profile")
		}
	}

	update := models.UserUpdate{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		ImageURL: input.ImageURL,
	}
	if update.Empty() {
		return current, nil
	}

	user, err = s.users.Update(ctx, userID, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			return models.User{}, ErrEmailInUse
		case errors.Is(err, repository.ErrUserNotFound):
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, storeError(err, "update_profile")
	}
	return user, nil
}

func (s *AuthService) findUser(ctx context.Context, userID, workflow string) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, storeError(err, workflow)
	}
	return user, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return hash, nil
}

// observe records the workflow outcome. Errors that carry an oops code are
// dependency failures; everything else is a rejected request.
func (s *AuthService) observe(workflow string, errp *error) {
	outcome := metrics.OutcomeSuccess
	if err := *errp; err != nil {
		outcome = metrics.OutcomeRejected
		if IsInternal(err) || errors.Is(err, ErrEmailDelivery) {
			outcome = metrics.OutcomeError
		}
	}
	s.metrics.ObserveWorkflow(workflow, outcome)
}

// IsInternal reports whether err is a dependency failure rather than a user
// facing outcome.
func IsInternal(err error) bool {
	_, ok := oops.AsOops(err)
	return ok
}

func storeError(err error, workflow string) error {
	return oops.Code("AUTH_STORE_FAILED").With("workflow", workflow).Wrap(err)
}

func tokenError(err error, userID string) error {
	code := "AUTH_TOKEN_FAILED"
	if errors.Is(err, security.ErrMissingSecret) {
		code = "AUTH_SECRET_MISSING"
	}
	return oops.Code(code).With("user_id", userID).Wrap(err)
}
