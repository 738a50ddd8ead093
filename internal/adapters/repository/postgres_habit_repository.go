package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const habitColumns = `id, user_id, name, category, difficulty, color, completed_dates,
            likes, shared, reminder_time, reminder_frequency,
            version, deleted_at, created_at, updated_at`

type PostgresHabitRepository struct {
	db *sqlx.DB
}

func NewPostgresHabitRepository(db *sqlx.DB) *PostgresHabitRepository {
	return &PostgresHabitRepository{db: db}
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func (r *PostgresHabitRepository) scanRow(row scannable) (*domain.Habit, error) {
	var h domain.Habit
	var dates pq.StringArray

	err := row.Scan(
		&h.ID, &h.UserID, &h.Name, &h.Category, &h.Difficulty, &h.Color, &dates,
		&h.Likes, &h.Shared, &h.ReminderTime, &h.ReminderFrequency,
		&h.Version, &h.DeletedAt, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	h.CompletedDates = []string(dates)
	if h.CompletedDates == nil {
		h.CompletedDates = []string{}
	}

	return &h, nil
}

func (r *PostgresHabitRepository) scanAll(rows *sqlx.Rows) ([]*domain.Habit, error) {
	defer rows.Close()

	habits := []*domain.Habit{}
	for rows.Next() {
		h, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("row scan error: %w", err)
		}
		habits = append(habits, h)
	}

	return habits, rows.Err()
}

func (r *PostgresHabitRepository) Create(ctx context.Context, h *domain.Habit) error {
	query := `
        INSERT INTO habits (
            id, user_id, name, category, difficulty, color, completed_dates,
            likes, shared, reminder_time, reminder_frequency,
            version, deleted_at, created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7,
            $8, $9, $10, $11,
            1, NULL, $12, $13
        )`

	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.UserID, h.Name, h.Category, h.Difficulty, h.Color, pq.Array(dateList(h.CompletedDates)),
		h.Likes, h.Shared, h.ReminderTime, h.ReminderFrequency,
		h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert habit: %w", err)
	}

	h.Version = 1
	return nil
}

func (r *PostgresHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1 AND deleted_at IS NULL`

	h, err := r.scanRow(r.db.QueryRowxContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	return h, nil
}

func (r *PostgresHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	query := `
        SELECT ` + habitColumns + ` FROM habits
        WHERE user_id = $1 AND deleted_at IS NULL
        ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return r.scanAll(rows)
}

func (r *PostgresHabitRepository) ListPublic(ctx context.Context, limit int) ([]*domain.Habit, error) {
	query := `
        SELECT ` + habitColumns + ` FROM habits
        WHERE deleted_at IS NULL AND (shared OR likes > 0)
        ORDER BY likes DESC, created_at ASC
        LIMIT $1`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("feed query error: %w", err)
	}
	return r.scanAll(rows)
}

func (r *PostgresHabitRepository) ListWithReminders(ctx context.Context) ([]*domain.Habit, error) {
	query := `
        SELECT ` + habitColumns + ` FROM habits
        WHERE deleted_at IS NULL AND reminder_time IS NOT NULL AND reminder_frequency <> 'none'
        ORDER BY created_at ASC`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reminder query error: %w", err)
	}
	return r.scanAll(rows)
}

// Update never writes likes, so cheers landing between a read and a write are kept.
func (r *PostgresHabitRepository) Update(ctx context.Context, h *domain.Habit) error {
	query := `
        UPDATE habits SET
            name=$1, category=$2, difficulty=$3, color=$4, completed_dates=$5,
            shared=$6, reminder_time=$7, reminder_frequency=$8,
            updated_at=NOW(), version = version + 1
        WHERE id=$9 AND version=$10 AND deleted_at IS NULL
        RETURNING version, updated_at, likes`

	row := r.db.QueryRowContext(ctx, query,
		h.Name, h.Category, h.Difficulty, h.Color, pq.Array(dateList(h.CompletedDates)),
		h.Shared, h.ReminderTime, h.ReminderFrequency,
		h.ID, h.Version,
	)

	var newVersion, likes int
	var newUpdatedAt time.Time

	err := row.Scan(&newVersion, &newUpdatedAt, &likes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			existsQuery := `SELECT count(*) FROM habits WHERE id = $1 AND deleted_at IS NULL`
			var count int
			if checkErr := r.db.QueryRowContext(ctx, existsQuery, h.ID).Scan(&count); checkErr != nil {
				return fmt.Errorf("existence check failed: %w", checkErr)
			}

			if count == 0 {
				return domain.ErrHabitNotFound
			}
			return domain.ErrHabitConflict
		}
		return fmt.Errorf("update query failed: %w", err)
	}

	h.Version = newVersion
	h.UpdatedAt = newUpdatedAt
	h.Likes = likes

	return nil
}

func (r *PostgresHabitRepository) Delete(ctx context.Context, id string) error {
	query := `
        UPDATE habits
        SET deleted_at = NOW(), updated_at = NOW(), version = version + 1
        WHERE id = $1 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete query failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrHabitNotFound
	}

	return nil
}

func (r *PostgresHabitRepository) IncrementLikes(ctx context.Context, id string) (*domain.Habit, error) {
	query := `
        UPDATE habits SET likes = likes + 1
        WHERE id = $1 AND deleted_at IS NULL
        RETURNING ` + habitColumns

	h, err := r.scanRow(r.db.QueryRowxContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("increment likes failed: %w", err)
	}

	return h, nil
}

func dateList(dates []string) []string {
	if dates == nil {
		return []string{}
	}
	return dates
}
