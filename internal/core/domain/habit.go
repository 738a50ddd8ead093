package domain

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrHabitNameEmpty       = errors.New("habit name cannot be empty")
	ErrHabitNameTooLong     = errors.New("habit name is too long (max 100 chars)")
	ErrHabitCategoryTooLong = errors.New("habit category is too long (max 30 chars)")
	ErrHabitInvalidUserID   = errors.New("invalid user id")
	ErrInvalidColor         = errors.New("invalid color format (must be #RRGGBB)")
	ErrInvalidDifficulty    = errors.New("invalid difficulty (must be Easy, Medium or Hard)")
	ErrInvalidReminder      = errors.New("invalid reminder format (must be HH:MM 24h)")
	ErrInvalidReminderFreq  = errors.New("invalid reminder frequency (must be daily, weekly or none)")
	ErrHabitDeleted         = errors.New("cannot modify a deleted habit")
)

var colorRegex = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
var reminderRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

const (
	CategoryHealth   = "Health"
	CategoryStudy    = "Study"
	CategoryWork     = "Work"
	CategoryPersonal = "Personal"
	CategoryOther    = "Other"

	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"

	ReminderDaily  = "daily"
	ReminderWeekly = "weekly"
	ReminderNone   = "none"

	MaxNameLen     = 100
	MaxCategoryLen = 30
)

// Difficulties lists the recognized difficulty levels in ascending order.
var Difficulties = []string{DifficultyEasy, DifficultyMedium, DifficultyHard}

func IsDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Habit struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Name              string     `json:"name"`
	Category          string     `json:"category"`
	Difficulty        string     `json:"difficulty,omitempty"`
	Color             string     `json:"color"`
	CompletedDates    []string   `json:"completed_dates"`
	Likes             int        `json:"likes"`
	Shared            bool       `json:"shared"`
	ReminderTime      *string    `json:"reminder_time,omitempty"`
	ReminderFrequency string     `json:"reminder_frequency,omitempty"`
	Version           int        `json:"version"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
}

type habitFields struct {
	name       string
	category   string
	difficulty string
	color      string
	reminder   *string
	frequency  string
}

func validateAndNormalize(name, category, difficulty, color, reminder, frequency string) (habitFields, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return habitFields{}, ErrHabitNameEmpty
	}
	if utf8.RuneCountInString(trimmedName) > MaxNameLen {
		return habitFields{}, ErrHabitNameTooLong
	}

	cat := strings.TrimSpace(category)
	if cat == "" {
		cat = CategoryOther
	}
	if utf8.RuneCountInString(cat) > MaxCategoryLen {
		return habitFields{}, ErrHabitCategoryTooLong
	}

	diff := strings.TrimSpace(difficulty)
	if diff == "" {
		diff = DifficultyEasy
	}
	if !IsDifficulty(diff) {
		return habitFields{}, ErrInvalidDifficulty
	}

	if color != "" && !colorRegex.MatchString(color) {
		return habitFields{}, ErrInvalidColor
	}

	var remPtr *string
	if reminder != "" {
		if !reminderRegex.MatchString(reminder) {
			return habitFields{}, ErrInvalidReminder
		}
		remPtr = &reminder
	}

	freq := strings.ToLower(strings.TrimSpace(frequency))
	switch freq {
	case "":
		freq = ReminderNone
		if remPtr != nil {
			freq = ReminderDaily
		}
	case ReminderDaily, ReminderWeekly, ReminderNone:
	default:
		return habitFields{}, ErrInvalidReminderFreq
	}

	return habitFields{
		name:       trimmedName,
		category:   cat,
		difficulty: diff,
		color:      color,
		reminder:   remPtr,
		frequency:  freq,
	}, nil
}

func NewHabit(userID, name, category, difficulty, color, reminder, frequency string) (*Habit, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrHabitInvalidUserID
	}

	f, err := validateAndNormalize(name, category, difficulty, color, reminder, frequency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Habit{
		ID:                uuid.New().String(),
		UserID:            userID,
		Name:              f.name,
		Category:          f.category,
		Difficulty:        f.difficulty,
		Color:             f.color,
		CompletedDates:    []string{},
		ReminderTime:      f.reminder,
		ReminderFrequency: f.frequency,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func (h *Habit) Update(name, category, difficulty, color, reminder, frequency string) error {
	if h.DeletedAt != nil {
		return ErrHabitDeleted
	}

	f, err := validateAndNormalize(name, category, difficulty, color, reminder, frequency)
	if err != nil {
		return err
	}

	h.Name = f.name
	h.Category = f.category
	h.Difficulty = f.difficulty
	h.Color = f.color
	h.ReminderTime = f.reminder
	h.ReminderFrequency = f.frequency

	h.UpdatedAt = time.Now().UTC()
	return nil
}

// ToggleCompletion marks day as completed, or un-marks it if it already was.
// It reports whether the day is completed after the call.
func (h *Habit) ToggleCompletion(day time.Time) (bool, error) {
	if h.DeletedAt != nil {
		return false, ErrHabitDeleted
	}

	key := FormatDate(day)
	h.UpdatedAt = time.Now().UTC()

	for i, d := range h.CompletedDates {
		if d == key {
			h.CompletedDates = append(h.CompletedDates[:i:i], h.CompletedDates[i+1:]...)
			return false, nil
		}
	}

	h.CompletedDates = append(h.CompletedDates, key)
	sort.Strings(h.CompletedDates)
	return true, nil
}

func (h *Habit) IsCompletedOn(day time.Time) bool {
	key := FormatDate(day)
	for _, d := range h.CompletedDates {
		if d == key {
			return true
		}
	}
	return false
}

func (h *Habit) Share() error {
	if h.DeletedAt != nil {
		return ErrHabitDeleted
	}
	if h.Shared {
		return nil
	}
	h.Shared = true
	h.UpdatedAt = time.Now().UTC()
	return nil
}

// Public reports whether the habit may be shown to other users.
func (h *Habit) Public() bool {
	return h.DeletedAt == nil && (h.Shared || h.Likes > 0)
}

func (h *Habit) HasReminder() bool {
	return h.ReminderTime != nil && h.ReminderFrequency != ReminderNone
}
