package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	queryTimeout    = 3 * time.Second
	uniqueViolation = "23505"
	userColumns     = `id, email, display_name, password_hash, created_at, updated_at,
	                   bio, phone, birthday, city, linkedin, twitter, photo_url`
)

type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{
		db: db,
	}
}

// isUniqueViolation recognizes duplicate keys from either postgres driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at,
		                   bio, phone, birthday, city, linkedin, twitter, photo_url)
		VALUES (:id, :email, :display_name, :password_hash, :created_at, :updated_at,
		        :bio, :phone, :birthday, :city, :linkedin, :twitter, :photo_url)
	`

	_, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("repository: create user failed: %w", err)
	}

	return nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user domain.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = $1`, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("repository: get user by email failed: %w", err)
	}

	return &user, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user domain.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("repository: get user by id failed: %w", err)
	}

	return &user, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE users SET
			display_name = :display_name, bio = :bio, phone = :phone, birthday = :birthday,
			city = :city, linkedin = :linkedin, twitter = :twitter, photo_url = :photo_url,
			updated_at = NOW()
		WHERE id = :id
		RETURNING updated_at
	`

	rows, err := r.db.NamedQueryContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("repository: update user failed: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("repository: update user failed: %w", err)
		}
		return domain.ErrUserNotFound
	}
	return rows.Scan(&user.UpdatedAt)
}

// Delete removes the user row; habits are dropped by ON DELETE CASCADE.
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: delete user failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) GetBadges(ctx context.Context, userID string) (domain.BadgeSet, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var badges pq.StringArray
	err := r.db.QueryRowContext(ctx, `SELECT badges FROM users WHERE id = $1`, userID).Scan(&badges)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("repository: get badges failed: %w", err)
	}

	return domain.ParseBadgeSet(badges), nil
}

// MergeBadges unions keys into the stored array in a single statement, so the
// row lock serializes concurrent merges and none of them can drop a key.
func (r *PostgresUserRepository) MergeBadges(ctx context.Context, userID string, keys domain.BadgeSet) (domain.BadgeSet, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE users
		SET badges = ARRAY(SELECT DISTINCT b FROM unnest(badges || $2::text[]) AS b ORDER BY b),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING badges
	`

	var badges pq.StringArray
	err := r.db.QueryRowContext(ctx, query, userID, pq.Array(keys.Strings())).Scan(&badges)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("repository: merge badges failed: %w", err)
	}

	return domain.ParseBadgeSet(badges), nil
}
