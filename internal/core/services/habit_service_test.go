package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
	"github.com/comitanigiacomo/kanso-habits/internal/core/workers"
)

type habitFixture struct {
	repo      *MockRepo
	queue     *recordingQueue
	reminders *recordingPlanner
	svc       *services.HabitService
}

func newHabitFixture() habitFixture {
	f := habitFixture{
		repo:      NewMockRepo(),
		queue:     &recordingQueue{},
		reminders: &recordingPlanner{},
	}
	f.svc = services.NewHabitService(f.repo,
		services.WithBadgeQueue(f.queue),
		services.WithReminders(f.reminders),
		services.WithCategoryColors(staticColors{"Health": "#43cea2", "Other": "#888"}),
	)
	return f
}

func TestHabitService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Should create and persist a valid habit", func(t *testing.T) {
		f := newHabitFixture()

		created, err := f.svc.Create(ctx, services.CreateHabitInput{
			UserID:     "user-1",
			Name:       "Drink water",
			Category:   "Health",
			Difficulty: domain.DifficultyMedium,
		})

		require.NoError(t, err)
		assert.Equal(t, "Drink water", created.Name)
		assert.Equal(t, 1, created.Version)
		assert.Equal(t, "#43cea2", created.Color, "color defaults to the category color")
		assert.NotEmpty(t, created.ID)

		stored, err := f.repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, stored.ID)

		assert.Equal(t, []workers.BadgeJob{{UserID: "user-1"}}, f.queue.jobs)
		assert.Equal(t, []string{created.ID}, f.reminders.scheduled)
	})

	t.Run("Success: Explicit color is kept", func(t *testing.T) {
		f := newHabitFixture()

		created, err := f.svc.Create(ctx, services.CreateHabitInput{UserID: "user-1", Name: "Code", Color: "#123456"})

		require.NoError(t, err)
		assert.Equal(t, "#123456", created.Color)
		assert.Equal(t, domain.CategoryOther, created.Category)
	})

	t.Run("Fail: Validation errors are returned and nothing is stored", func(t *testing.T) {
		f := newHabitFixture()

		_, err := f.svc.Create(ctx, services.CreateHabitInput{UserID: "user-1", Name: "   "})
		assert.ErrorIs(t, err, domain.ErrHabitNameEmpty)

		_, err = f.svc.Create(ctx, services.CreateHabitInput{UserID: "user-1", Name: "x", Difficulty: "Insane"})
		assert.ErrorIs(t, err, domain.ErrInvalidDifficulty)

		list, _ := f.repo.ListByUserID(ctx, "user-1")
		assert.Empty(t, list)
		assert.Empty(t, f.queue.jobs)
	})

	t.Run("Fail: Repository error is propagated", func(t *testing.T) {
		f := newHabitFixture()
		f.repo.simulateError = errors.New("db down")

		_, err := f.svc.Create(ctx, services.CreateHabitInput{UserID: "user-1", Name: "Walk"})
		assert.EqualError(t, err, "db down")
		assert.Empty(t, f.reminders.scheduled)
	})
}

func TestHabitService_Update(t *testing.T) {
	ctx := context.Background()

	seed := func(f habitFixture) *domain.Habit {
		h, err := f.svc.Create(ctx, services.CreateHabitInput{
			UserID:       "user-1",
			Name:         "Read",
			Category:     "Study",
			Difficulty:   domain.DifficultyHard,
			ReminderTime: "21:00",
		})
		require.NoError(t, err)
		return h
	}

	t.Run("Success: Partial update keeps unspecified fields", func(t *testing.T) {
		f := newHabitFixture()
		h := seed(f)

		updated, err := f.svc.Update(ctx, services.UpdateHabitInput{ID: h.ID, UserID: "user-1", Name: "Read fiction", Version: 1})

		require.NoError(t, err)
		assert.Equal(t, "Read fiction", updated.Name)
		assert.Equal(t, "Study", updated.Category)
		assert.Equal(t, domain.DifficultyHard, updated.Difficulty)
		require.NotNil(t, updated.ReminderTime)
		assert.Equal(t, "21:00", *updated.ReminderTime)
		assert.Equal(t, domain.ReminderDaily, updated.ReminderFrequency)
		assert.Equal(t, 2, updated.Version)
	})

	t.Run("Success: Empty reminder clears it", func(t *testing.T) {
		f := newHabitFixture()
		h := seed(f)

		updated, err := f.svc.Update(ctx, services.UpdateHabitInput{ID: h.ID, UserID: "user-1", ReminderTime: ptr("")})

		require.NoError(t, err)
		assert.Nil(t, updated.ReminderTime)
		assert.Equal(t, domain.ReminderNone, updated.ReminderFrequency)
		assert.False(t, updated.HasReminder())
		assert.Len(t, f.reminders.scheduled, 2)
	})

	t.Run("Success: Switching to weekly", func(t *testing.T) {
		f := newHabitFixture()
		h := seed(f)

		updated, err := f.svc.Update(ctx, services.UpdateHabitInput{ID: h.ID, UserID: "user-1", ReminderFrequency: domain.ReminderWeekly})

		require.NoError(t, err)
		assert.Equal(t, domain.ReminderWeekly, updated.ReminderFrequency)
	})

	t.Run("Fail: Stale version is a conflict", func(t *testing.T) {
		f := newHabitFixture()
		h := seed(f)
		_, err := f.svc.Update(ctx, services.UpdateHabitInput{ID: h.ID, UserID: "user-1", Name: "v2", Version: 1})
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, services.UpdateHabitInput{ID: h.ID, UserID: "user-1", Name: "stale", Version: 1})
		assert.ErrorIs(t, err, domain.ErrHabitConflict)
	})

	t.Run("Fail: Other users cannot see the habit", func(t *testing.T) {
		f := newHabitFixture()
		h := seed(f)

		_, err := f.svc.Update(ctx, services.UpdateHabitInput{ID: h.ID, UserID: "intruder", Name: "mine"})
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
	})

	t.Run("Fail: Invalid color", func(t *testing.T) {
		f := newHabitFixture()
		h := seed(f)

		_, err := f.svc.Update(ctx, services.UpdateHabitInput{ID: h.ID, UserID: "user-1", Color: "red"})
		assert.ErrorIs(t, err, domain.ErrInvalidColor)
	})
}

func TestHabitService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newHabitFixture()
	h, err := f.svc.Create(ctx, services.CreateHabitInput{UserID: "user-1", Name: "Walk"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, h.ID, "user-2"), domain.ErrHabitNotFound)
	require.NoError(t, f.svc.Delete(ctx, h.ID, "user-1"))
	assert.Equal(t, []string{h.ID}, f.reminders.cancelled)

	_, err = f.svc.Get(ctx, h.ID, "user-1")
	assert.ErrorIs(t, err, domain.ErrHabitNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, h.ID, "user-1"), domain.ErrHabitNotFound)
}

func TestHabitService_ToggleCompletion(t *testing.T) {
	ctx := context.Background()
	f := newHabitFixture()
	h, err := f.svc.Create(ctx, services.CreateHabitInput{UserID: "user-1", Name: "Stretch"})
	require.NoError(t, err)
	f.queue.jobs = nil

	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	updated, completed, err := f.svc.ToggleCompletion(ctx, h.ID, "user-1", day)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, []string{"2024-05-02"}, updated.CompletedDates)
	assert.Len(t, f.queue.jobs, 1)

	updated, completed, err = f.svc.ToggleCompletion(ctx, h.ID, "user-1", day)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Empty(t, updated.CompletedDates)
	assert.Len(t, f.queue.jobs, 1, "un-checking does not trigger badge evaluation")

	stored, _ := f.repo.GetByID(ctx, h.ID)
	assert.Equal(t, 3, stored.Version)

	_, _, err = f.svc.ToggleCompletion(ctx, h.ID, "user-2", day)
	assert.ErrorIs(t, err, domain.ErrHabitNotFound)
}

func TestHabitService_Share(t *testing.T) {
	ctx := context.Background()
	f := newHabitFixture()
	h, err := f.svc.Create(ctx, services.CreateHabitInput{UserID: "user-1", Name: "Meditate"})
	require.NoError(t, err)
	f.queue.jobs = nil

	shared, err := f.svc.Share(ctx, h.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, shared.Shared)

	again, err := f.svc.Share(ctx, h.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, shared.Version, again.Version, "sharing twice does not write")

	assert.Equal(t, []workers.BadgeJob{{UserID: "user-1", Shared: true}, {UserID: "user-1", Shared: true}}, f.queue.jobs)

	_, err = f.svc.Share(ctx, h.ID, "user-2")
	assert.ErrorIs(t, err, domain.ErrHabitNotFound)
}

func TestHabitService_Share_UnlocksFirstShareWithoutTheQueue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	habits, badges, statsSvc := newStatsFixture(t, now)

	svc := services.NewHabitService(habits,
		services.WithBadgeQueue(droppingQueue{}),
		services.WithBadgeRefresher(statsSvc),
	)

	h, err := svc.Create(ctx, services.CreateHabitInput{UserID: "user-1", Name: "Meditate"})
	require.NoError(t, err)
	_, err = svc.Share(ctx, h.ID, "user-1")
	require.NoError(t, err)

	assert.Contains(t, badges.stored("user-1"), domain.BadgeFirstShare)

	for i := 0; i < 3; i++ {
		_, err := statsSvc.Dashboard(ctx, domain.StatsInput{UserID: "user-1"})
		require.NoError(t, err)
	}
	assert.ElementsMatch(t, []domain.BadgeKey{domain.BadgeFirstHabit, domain.BadgeFirstShare}, badges.stored("user-1"))
}

func TestHabitService_Share_FailedRefreshFallsBackToQueue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	habits, badges, statsSvc := newStatsFixture(t, now)
	badges.mergeErr = errors.New("db down")
	queue := &recordingQueue{}

	svc := services.NewHabitService(habits,
		services.WithBadgeQueue(queue),
		services.WithBadgeRefresher(statsSvc),
	)

	h, err := svc.Create(ctx, services.CreateHabitInput{UserID: "user-1", Name: "Meditate"})
	require.NoError(t, err)
	queue.jobs = nil

	_, err = svc.Share(ctx, h.ID, "user-1")
	require.NoError(t, err, "sharing succeeds even when badges cannot be stored")
	assert.Equal(t, []workers.BadgeJob{{UserID: "user-1", Shared: true}}, queue.jobs)
}

func TestHabitService_ListAndExport(t *testing.T) {
	ctx := context.Background()
	f := newHabitFixture()
	for _, name := range []string{"A", "B"} {
		_, err := f.svc.Create(ctx, services.CreateHabitInput{UserID: "user-1", Name: name})
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, services.CreateHabitInput{UserID: "user-2", Name: "C"})
	require.NoError(t, err)

	list, err := f.svc.ListByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	exported, err := f.svc.Export(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "A", exported[0].Name)
	assert.Equal(t, "B", exported[1].Name)

	f.repo.simulateError = errors.New("db down")
	_, err = f.svc.Export(ctx, "user-1")
	assert.ErrorContains(t, err, "export failed")
}
