package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"userauth/api/internal/models"
)

// PgxPool is the subset of *pgxpool.Pool the postgres store uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const userColumns = `id, email, name, password_hash, role, phone, image_url, reset_token, reset_expires_at, created_at, updated_at`

type PostgresUserRepository struct {
	pool PgxPool
}

func NewPostgresUserRepository(pool PgxPool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, email, name, password_hash, role, phone, image_url, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		string(user.Role),
		user.Phone,
		user.ImageURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresUserRepository) ConsumeResetToken(ctx context.Context, token string, now time.Time) (models.User, error) {
	if token == "" {
		return models.User{}, ErrUserNotFound
	}

	query := `
		UPDATE users
		SET reset_token = NULL, reset_expires_at = NULL, updated_at = $2
		WHERE reset_token = $1 AND reset_expires_at > $2
		RETURNING ` + userColumns

	return scanUser(r.pool.QueryRow(ctx, query, token, now))
}

func (r *PostgresUserRepository) Update(ctx context.Context, id string, update models.UserUpdate) (models.User, error) {
	if update.Empty() {
		return r.FindByID(ctx, id)
	}

	sets := make([]string, 0, 8)
	args := []any{id}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name.Set {
		set("name", update.Name.Value)
	}
	if update.Email.Set {
		set("email", update.Email.Value)
	}
	if update.Phone.Set {
		set("phone", update.Phone.Ptr())
	}
	if update.ImageURL.Set {
		set("image_url", update.ImageURL.Ptr())
	}
	if update.PasswordHash.Set {
		set("password_hash", update.PasswordHash.Value)
	}
	if update.Reset.Set {
		if update.Reset.Null || update.Reset.Value == nil {
			sets = append(sets, "reset_token = NULL", "reset_expires_at = NULL")
		} else {
			set("reset_token", update.Reset.Value.Token)
			set("reset_expires_at", update.Reset.Value.ExpiresAt)
		}
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *PostgresUserRepository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE users SET reset_token = NULL, reset_expires_at = NULL
		WHERE reset_expires_at IS NOT NULL AND reset_expires_at <= $1
	`
	cmd, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *PostgresUserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user         models.User
		role         string
		resetToken   *string
		resetExpires *time.Time
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&role,
		&user.Phone,
		&user.ImageURL,
		&resetToken,
		&resetExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	user.Role = models.UserRole(role)
	if resetToken != nil && resetExpires != nil {
		user.Reset = &models.PasswordReset{Token: *resetToken, ExpiresAt: *resetExpires}
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
