package domain

import "time"

// AggregateStats are the collection-wide counters shown on the dashboard.
type AggregateStats struct {
	TodayCompletedCount     int            `json:"today_completed_count"`
	WeeklyCompletedCount    int            `json:"weekly_completed_count"`
	MissedSlotsThisWeek     int            `json:"missed_slots_this_week"`
	CompletionsByDifficulty map[string]int `json:"completions_by_difficulty"`
	MostConsistentHabitName *string        `json:"most_consistent_habit_name"`
}

// StatsSnapshot is recomputed on every request and never stored.
type StatsSnapshot struct {
	AsOf                   string         `json:"as_of"`
	CurrentStreakByHabit   map[string]int `json:"current_streak_by_habit"`
	AggregateCurrentStreak int            `json:"aggregate_current_streak"`
	BestStreakByHabit      map[string]int `json:"best_streak_by_habit"`
	AggregateBestStreak    int            `json:"aggregate_best_streak"`
	AggregateStats
	NewlyUnlockedBadges BadgeSet `json:"newly_unlocked_badges"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Habits   int    `json:"habits"`
}

type WeekComparison struct {
	ThisWeek int `json:"this_week"`
	LastWeek int `json:"last_week"`
}

type Insights struct {
	AsOf         string          `json:"as_of"`
	Heatmap      []DayCount      `json:"heatmap"`
	Categories   []CategoryCount `json:"categories"`
	WeekOverWeek WeekComparison  `json:"week_over_week"`
}

type RangeStats struct {
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	TotalHabits int         `json:"total_habits"`
	OverallRate float64     `json:"overall_completion_rate"`
	HabitStats  []HabitStat `json:"habits"`
}

type HabitStat struct {
	HabitID        string  `json:"habit_id"`
	HabitName      string  `json:"habit_name"`
	Category       string  `json:"category"`
	Color          string  `json:"color"`
	CompletionRate float64 `json:"completion_rate"`
	DaysCompleted  int     `json:"days_completed"`
	DailyProgress  []int   `json:"daily_progress"`
}

type BadgeView struct {
	Key         BadgeKey `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Unlocked    bool     `json:"unlocked"`
}

type Dashboard struct {
	Stats             StatsSnapshot `json:"stats"`
	Badges            []BadgeView   `json:"badges"`
	WeeklyProgress    []DayCount    `json:"weekly_progress"`
	AllCompletedToday bool          `json:"all_completed_today"`
	Motivation        string        `json:"motivation"`
	PersonalizedQuote string        `json:"personalized_quote"`
	DailyQuote        string        `json:"daily_quote"`
	Suggestion        *string       `json:"suggestion,omitempty"`
}

type StatsInput struct {
	UserID    string
	AsOf      time.Time
	StartDate time.Time
	EndDate   time.Time
}
