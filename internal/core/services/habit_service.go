package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/stats"
	"github.com/comitanigiacomo/kanso-habits/internal/core/workers"
	"github.com/comitanigiacomo/kanso-habits/internal/metrics"
)

type BadgeEnqueuer interface {
	Enqueue(job workers.BadgeJob) bool
}

type ReminderPlanner interface {
	Schedule(h *domain.Habit)
	Cancel(habitID string)
}

type ColorResolver interface {
	CategoryColor(category string) string
}

type HabitService struct {
	repo      domain.HabitRepository
	badges    BadgeEnqueuer
	refresher workers.BadgeRefresher
	reminders ReminderPlanner
	colors    ColorResolver
	metrics   *metrics.Metrics
}

type HabitOption func(*HabitService)

func WithBadgeQueue(q BadgeEnqueuer) HabitOption {
	return func(s *HabitService) { s.badges = q }
}

// WithBadgeRefresher evaluates share badges inline. The share signal is not
// derivable from stored data, so it must not depend on the queue.
func WithBadgeRefresher(r workers.BadgeRefresher) HabitOption {
	return func(s *HabitService) { s.refresher = r }
}

func WithReminders(r ReminderPlanner) HabitOption {
	return func(s *HabitService) { s.reminders = r }
}

func WithCategoryColors(c ColorResolver) HabitOption {
	return func(s *HabitService) { s.colors = c }
}

func WithHabitMetrics(m *metrics.Metrics) HabitOption {
	return func(s *HabitService) { s.metrics = m }
}

func NewHabitService(repo domain.HabitRepository, opts ...HabitOption) *HabitService {
	s := &HabitService{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateHabitInput struct {
	UserID            string
	Name              string
	Category          string
	Difficulty        string
	Color             string
	ReminderTime      string
	ReminderFrequency string
}

// UpdateHabitInput leaves fields unchanged when empty. ReminderTime is kept
// when nil and cleared when it points to an empty string.
type UpdateHabitInput struct {
	ID                string
	UserID            string
	Name              string
	Category          string
	Difficulty        string
	Color             string
	ReminderTime      *string
	ReminderFrequency string
	Version           int
}

func mergeString(newVal, oldVal string) string {
	if newVal == "" {
		return oldVal
	}
	return newVal
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	habit, err := domain.NewHabit(
		input.UserID,
		input.Name,
		input.Category,
		input.Difficulty,
		input.Color,
		input.ReminderTime,
		input.ReminderFrequency,
	)
	if err != nil {
		return nil, err
	}

	if habit.Color == "" && s.colors != nil {
		habit.Color = s.colors.CategoryColor(habit.Category)
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	s.schedule(habit)
	s.enqueue(workers.BadgeJob{UserID: habit.UserID})

	return habit, nil
}

func (s *HabitService) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *HabitService) Get(ctx context.Context, id, userID string) (*domain.Habit, error) {
	return s.owned(ctx, id, userID)
}

func (s *HabitService) Update(ctx context.Context, input UpdateHabitInput) (*domain.Habit, error) {
	habit, err := s.owned(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && habit.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrHabitConflict, input.Version, habit.Version)
	}

	reminder := ""
	if habit.ReminderTime != nil {
		reminder = *habit.ReminderTime
	}
	frequency := habit.ReminderFrequency
	if input.ReminderTime != nil {
		reminder = *input.ReminderTime
		if reminder == "" {
			frequency = domain.ReminderNone
		} else if frequency == domain.ReminderNone {
			frequency = ""
		}
	}

	err = habit.Update(
		mergeString(input.Name, habit.Name),
		mergeString(input.Category, habit.Category),
		mergeString(input.Difficulty, habit.Difficulty),
		mergeString(input.Color, habit.Color),
		reminder,
		mergeString(input.ReminderFrequency, frequency),
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	s.schedule(habit)
	return habit, nil
}

func (s *HabitService) Delete(ctx context.Context, id string, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.reminders != nil {
		s.reminders.Cancel(id)
	}
	return nil
}

// ToggleCompletion checks the habit off on day, or un-checks it when it was
// already completed. It reports whether the day is now completed.
func (s *HabitService) ToggleCompletion(ctx context.Context, id, userID string, day time.Time) (*domain.Habit, bool, error) {
	habit, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, false, err
	}

	completed, err := habit.ToggleCompletion(day)
	if err != nil {
		return nil, false, err
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, false, err
	}

	s.metrics.CompletionToggled(completed)
	if completed {
		s.enqueue(workers.BadgeJob{UserID: userID})
	}
	return habit, completed, nil
}

// Share makes the habit visible in the public feed and signals the share badge.
func (s *HabitService) Share(ctx context.Context, id, userID string) (*domain.Habit, error) {
	habit, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if !habit.Shared {
		if err := habit.Share(); err != nil {
			return nil, err
		}
		if err := s.repo.Update(ctx, habit); err != nil {
			return nil, err
		}
	}

	s.refreshShared(ctx, userID)
	return habit, nil
}

// Export returns every habit of the user for download.
func (s *HabitService) Export(ctx context.Context, userID string) ([]*domain.Habit, error) {
	habits, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("habit service: export failed: %w", err)
	}
	return habits, nil
}

func (s *HabitService) owned(ctx context.Context, id, userID string) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}
	return habit, nil
}

func (s *HabitService) schedule(h *domain.Habit) {
	if s.reminders != nil {
		s.reminders.Schedule(h)
	}
}

func (s *HabitService) refreshShared(ctx context.Context, userID string) {
	if s.refresher == nil {
		s.enqueue(workers.BadgeJob{UserID: userID, Shared: true})
		return
	}
	if _, err := s.refresher.RefreshBadges(ctx, userID, stats.Signals{Shared: true}); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("share badge refresh failed, retrying in background")
		s.enqueue(workers.BadgeJob{UserID: userID, Shared: true})
	}
}

func (s *HabitService) enqueue(job workers.BadgeJob) {
	if s.badges != nil {
		s.badges.Enqueue(job)
	}
}
