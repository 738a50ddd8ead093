package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHabit(t *testing.T) {
	t.Run("Success: Creates valid habit with defaults", func(t *testing.T) {
		h, err := domain.NewHabit("u1", "Drink Water", "", "", "", "", "")

		require.NoError(t, err)
		assert.Equal(t, "Drink Water", h.Name)
		assert.Equal(t, "u1", h.UserID)
		assert.NotEmpty(t, h.ID)

		assert.Equal(t, domain.CategoryOther, h.Category)
		assert.Equal(t, domain.DifficultyEasy, h.Difficulty)
		assert.Equal(t, domain.ReminderNone, h.ReminderFrequency)
		assert.Nil(t, h.ReminderTime)
		assert.Empty(t, h.CompletedDates)
		assert.NotNil(t, h.CompletedDates, "completed dates must serialize as [] not null")
		assert.Equal(t, 0, h.Likes)
		assert.False(t, h.Shared)

		assert.Equal(t, 1, h.Version, "New habits MUST start at Version 1 for Optimistic Locking")
		assert.Nil(t, h.DeletedAt)
		assert.WithinDuration(t, time.Now().UTC(), h.CreatedAt, 2*time.Second)
	})

	t.Run("Error: Empty Name", func(t *testing.T) {
		_, err := domain.NewHabit("u1", "   ", "Health", "", "", "", "")
		assert.Equal(t, domain.ErrHabitNameEmpty, err)
	})

	t.Run("Error: Invalid UserID", func(t *testing.T) {
		_, err := domain.NewHabit("", "Read", "Study", "", "", "", "")
		assert.Equal(t, domain.ErrHabitInvalidUserID, err)
	})
}

func TestHabit_Validation(t *testing.T) {
	tests := []struct {
		name       string
		habitName  string
		category   string
		difficulty string
		color      string
		reminder   string
		frequency  string
		wantErr    error
		wantFreq   string
		wantCat    string
	}{
		{
			name:      "Success: Reminder defaults to daily",
			habitName: "Wake up",
			category:  domain.CategoryHealth,
			reminder:  "07:30",
			wantFreq:  domain.ReminderDaily,
			wantCat:   domain.CategoryHealth,
		},
		{
			name:      "Success: Weekly reminder",
			habitName: "Review week",
			category:  domain.CategoryWork,
			reminder:  "18:00",
			frequency: "Weekly",
			wantFreq:  domain.ReminderWeekly,
			wantCat:   domain.CategoryWork,
		},
		{
			name:      "Success: Caller-defined category",
			habitName: "Guitar",
			category:  "Music",
			wantFreq:  domain.ReminderNone,
			wantCat:   "Music",
		},
		{
			name:      "Success: Short Hex Color",
			habitName: "Color",
			color:     "#FFF",
			wantFreq:  domain.ReminderNone,
			wantCat:   domain.CategoryOther,
		},
		{
			name:      "Error: Name Too Long",
			habitName: strings.Repeat("a", 101),
			wantErr:   domain.ErrHabitNameTooLong,
		},
		{
			name:      "Error: Category Too Long",
			habitName: "Ok",
			category:  strings.Repeat("c", 31),
			wantErr:   domain.ErrHabitCategoryTooLong,
		},
		{
			name:       "Error: Invalid Difficulty",
			habitName:  "Ok",
			difficulty: "Legendary",
			wantErr:    domain.ErrInvalidDifficulty,
		},
		{
			name:      "Error: Invalid Color",
			habitName: "Ok",
			color:     "red",
			wantErr:   domain.ErrInvalidColor,
		},
		{
			name:      "Error: Invalid Reminder (25:00)",
			habitName: "Ok",
			reminder:  "25:00",
			wantErr:   domain.ErrInvalidReminder,
		},
		{
			name:      "Error: Invalid Reminder Frequency",
			habitName: "Ok",
			reminder:  "08:00",
			frequency: "hourly",
			wantErr:   domain.ErrInvalidReminderFreq,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := domain.NewHabit("u1", tt.habitName, tt.category, tt.difficulty, tt.color, tt.reminder, tt.frequency)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, h)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantFreq, h.ReminderFrequency)
			assert.Equal(t, tt.wantCat, h.Category)
		})
	}
}

func TestHabit_Update(t *testing.T) {
	t.Run("Success: Updates fields and timestamp", func(t *testing.T) {
		h, _ := domain.NewHabit("u1", "Old", "", "", "", "", "")
		before := h.UpdatedAt
		time.Sleep(time.Millisecond)

		err := h.Update("New", domain.CategoryStudy, domain.DifficultyHard, "#112233", "", "")

		require.NoError(t, err)
		assert.Equal(t, "New", h.Name)
		assert.Equal(t, domain.CategoryStudy, h.Category)
		assert.Equal(t, domain.DifficultyHard, h.Difficulty)
		assert.Equal(t, "#112233", h.Color)
		assert.True(t, h.UpdatedAt.After(before))
	})

	t.Run("Success: Clearing reminder resets frequency", func(t *testing.T) {
		h, _ := domain.NewHabit("u1", "Run", "", "", "", "06:00", "daily")
		require.True(t, h.HasReminder())

		require.NoError(t, h.Update("Run", "", "", "", "", ""))

		assert.Nil(t, h.ReminderTime)
		assert.False(t, h.HasReminder())
	})

	t.Run("Error: Deleted habit cannot be updated", func(t *testing.T) {
		h, _ := domain.NewHabit("u1", "Gone", "", "", "", "", "")
		now := time.Now()
		h.DeletedAt = &now

		assert.ErrorIs(t, h.Update("Back", "", "", "", "", ""), domain.ErrHabitDeleted)
	})

	t.Run("Error: Invalid data leaves habit untouched", func(t *testing.T) {
		h, _ := domain.NewHabit("u1", "Keep", "", "", "", "", "")

		err := h.Update("", "", "", "", "", "")

		assert.ErrorIs(t, err, domain.ErrHabitNameEmpty)
		assert.Equal(t, "Keep", h.Name)
	})
}

func TestHabit_ToggleCompletion(t *testing.T) {
	day := time.Date(2024, 1, 3, 22, 15, 0, 0, time.UTC)

	t.Run("Adds then removes the same day", func(t *testing.T) {
		h, _ := domain.NewHabit("u1", "Read", "", "", "", "", "")

		done, err := h.ToggleCompletion(day)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Equal(t, []string{"2024-01-03"}, h.CompletedDates)
		assert.True(t, h.IsCompletedOn(day))

		done, err = h.ToggleCompletion(day)
		require.NoError(t, err)
		assert.False(t, done)
		assert.Empty(t, h.CompletedDates)
	})

	t.Run("Keeps dates sorted", func(t *testing.T) {
		h, _ := domain.NewHabit("u1", "Read", "", "", "", "", "")
		h.CompletedDates = []string{"2024-01-01", "2024-01-05"}

		_, err := h.ToggleCompletion(day)

		require.NoError(t, err)
		assert.Equal(t, []string{"2024-01-01", "2024-01-03", "2024-01-05"}, h.CompletedDates)
	})

	t.Run("Removal does not alias the previous slice", func(t *testing.T) {
		h, _ := domain.NewHabit("u1", "Read", "", "", "", "", "")
		original := []string{"2024-01-02", "2024-01-03", "2024-01-04"}
		h.CompletedDates = original

		_, err := h.ToggleCompletion(day)

		require.NoError(t, err)
		assert.Equal(t, []string{"2024-01-02", "2024-01-04"}, h.CompletedDates)
		assert.Equal(t, []string{"2024-01-02", "2024-01-03", "2024-01-04"}, original)
	})

	t.Run("Error: Deleted habit", func(t *testing.T) {
		h, _ := domain.NewHabit("u1", "Read", "", "", "", "", "")
		now := time.Now()
		h.DeletedAt = &now

		_, err := h.ToggleCompletion(day)
		assert.ErrorIs(t, err, domain.ErrHabitDeleted)
	})
}

func TestHabit_ShareAndPublic(t *testing.T) {
	h, _ := domain.NewHabit("u1", "Meditate", "", "", "", "", "")
	assert.False(t, h.Public())

	require.NoError(t, h.Share())
	assert.True(t, h.Shared)
	assert.True(t, h.Public())

	cheered, _ := domain.NewHabit("u1", "Walk", "", "", "", "", "")
	cheered.Likes = 3
	assert.True(t, cheered.Public(), "cheered habits appear in the feed even if never shared")
}
