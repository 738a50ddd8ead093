package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// DefaultHeatmapDays is the heatmap window used when the caller passes none.
const DefaultHeatmapDays = 90

// Heatmap returns, for each of the last days days ending at asOf (oldest
// first), how many habits were completed on that day.
func Heatmap(habits []*domain.Habit, asOf time.Time, days int) []domain.DayCount {
	if days <= 0 {
		days = DefaultHeatmapDays
	}
	return dailyCounts(indexHabits(habits), domain.CalendarDay(asOf), days)
}

// WeeklyProgress is the seven day heatmap shown on the dashboard.
func WeeklyProgress(habits []*domain.Habit, asOf time.Time) []domain.DayCount {
	return dailyCounts(indexHabits(habits), domain.CalendarDay(asOf), WeekDays)
}

func dailyCounts(idx []indexedHabit, today time.Time, days int) []domain.DayCount {
	out := make([]domain.DayCount, 0, days)
	for day := today.AddDate(0, 0, -(days - 1)); !day.After(today); day = day.AddDate(0, 0, 1) {
		count := 0
		for _, ih := range idx {
			if ih.dates.has(day) {
				count++
			}
		}
		out = append(out, domain.DayCount{Date: day.Format(domain.DateLayout), Count: count})
	}
	return out
}

// CategoryBreakdown counts habits per category, largest first. Habits without
// a category are reported under Other.
func CategoryBreakdown(habits []*domain.Habit) []domain.CategoryCount {
	counts := make(map[string]int)
	for _, ih := range indexHabits(habits) {
		cat := strings.TrimSpace(ih.habit.Category)
		if cat == "" {
			cat = domain.CategoryOther
		}
		counts[cat]++
	}

	out := make([]domain.CategoryCount, 0, len(counts))
	for cat, n := range counts {
		out = append(out, domain.CategoryCount{Category: cat, Habits: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Habits != out[j].Habits {
			return out[i].Habits > out[j].Habits
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// WeekOverWeek compares completions in [asOf-6, asOf] with the seven days before.
func WeekOverWeek(habits []*domain.Habit, asOf time.Time) domain.WeekComparison {
	today := domain.CalendarDay(asOf)
	thisStart := today.AddDate(0, 0, -(WeekDays - 1))
	lastEnd := thisStart.AddDate(0, 0, -1)
	lastStart := lastEnd.AddDate(0, 0, -(WeekDays - 1))

	var cmp domain.WeekComparison
	for _, ih := range indexHabits(habits) {
		cmp.ThisWeek += ih.dates.countBetween(thisStart, today)
		cmp.LastWeek += ih.dates.countBetween(lastStart, lastEnd)
	}
	return cmp
}

// AllCompletedToday reports whether there is at least one habit and every
// habit is completed on asOf.
func AllCompletedToday(habits []*domain.Habit, asOf time.Time) bool {
	idx := indexHabits(habits)
	if len(idx) == 0 {
		return false
	}
	today := domain.CalendarDay(asOf)
	for _, ih := range idx {
		if !ih.dates.has(today) {
			return false
		}
	}
	return true
}

func ComputeInsights(habits []*domain.Habit, asOf time.Time, days int) domain.Insights {
	return domain.Insights{
		AsOf:         domain.FormatDate(asOf),
		Heatmap:      Heatmap(habits, asOf, days),
		Categories:   CategoryBreakdown(habits),
		WeekOverWeek: WeekOverWeek(habits, asOf),
	}
}

// ComputeRangeStats reports per-habit daily progress over the inclusive range
// [from, to]. An inverted range yields no days and zero rates.
func ComputeRangeStats(habits []*domain.Habit, from, to time.Time) domain.RangeStats {
	startDate := domain.CalendarDay(from)
	endDate := domain.CalendarDay(to)
	idx := indexHabits(habits)

	stats := domain.RangeStats{
		StartDate:   startDate.Format(domain.DateLayout),
		EndDate:     endDate.Format(domain.DateLayout),
		TotalHabits: len(idx),
		HabitStats:  make([]domain.HabitStat, 0, len(idx)),
	}

	totalDaysPossible := 0
	totalDaysCompleted := 0

	for _, ih := range idx {
		hStat := domain.HabitStat{
			HabitID:       ih.habit.ID,
			HabitName:     ih.habit.Name,
			Category:      ih.habit.Category,
			Color:         ih.habit.Color,
			DailyProgress: make([]int, 0),
		}

		daysInPeriod := 0
		for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
			done := 0
			if ih.dates.has(day) {
				done = 1
				hStat.DaysCompleted++
			}
			hStat.DailyProgress = append(hStat.DailyProgress, done)
			daysInPeriod++
		}

		totalDaysPossible += daysInPeriod
		totalDaysCompleted += hStat.DaysCompleted
		if daysInPeriod > 0 {
			hStat.CompletionRate = float64(hStat.DaysCompleted) / float64(daysInPeriod) * 100
		}

		stats.HabitStats = append(stats.HabitStats, hStat)
	}

	if totalDaysPossible > 0 {
		stats.OverallRate = float64(totalDaysCompleted) / float64(totalDaysPossible) * 100
	}

	return stats
}
