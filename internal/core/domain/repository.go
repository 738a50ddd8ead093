package domain

import (
	"context"
	"errors"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrHabitConflict = errors.New("habit version conflict")
	ErrUnauthorized  = errors.New("unauthorized access to resource")
)

type HabitRepository interface {
	// Create persists a new habit definition in the storage.
	Create(ctx context.Context, habit *Habit) error

	// GetByID retrieves a non-deleted habit by its unique identifier.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// ListByUserID retrieves all habits of a user, in creation order.
	ListByUserID(ctx context.Context, userID string) ([]*Habit, error)

	// ListPublic returns shared or cheered habits, most cheered first.
	ListPublic(ctx context.Context, limit int) ([]*Habit, error)

	// ListWithReminders returns every habit that has a reminder configured.
	ListWithReminders(ctx context.Context) ([]*Habit, error)

	// Update modifies an existing habit.
	// Implementations must reject stale versions with ErrHabitConflict.
	Update(ctx context.Context, habit *Habit) error

	// Delete soft-deletes a habit.
	Delete(ctx context.Context, id string) error

	// IncrementLikes atomically adds one cheer and returns the updated habit.
	IncrementLikes(ctx context.Context, id string) (*Habit, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)

	// Update stores the display name and profile fields of an existing user.
	Update(ctx context.Context, user *User) error

	// Delete removes the account. Its habits go with it.
	Delete(ctx context.Context, id string) error
}

type BadgeRepository interface {
	// GetBadges returns the badges already unlocked by a user.
	GetBadges(ctx context.Context, userID string) (BadgeSet, error)

	// MergeBadges adds keys to the stored set and returns the result.
	// It must never remove keys, even when racing another writer.
	MergeBadges(ctx context.Context, userID string, keys BadgeSet) (BadgeSet, error)
}
