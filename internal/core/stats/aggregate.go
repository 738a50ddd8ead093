package stats

import (
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// WeekDays is the length of the trailing weekly window, today included.
const WeekDays = 7

func ComputeAggregateStats(habits []*domain.Habit, asOf time.Time) domain.AggregateStats {
	return aggregate(indexHabits(habits), domain.CalendarDay(asOf))
}

func aggregate(idx []indexedHabit, today time.Time) domain.AggregateStats {
	out := domain.AggregateStats{
		CompletionsByDifficulty: make(map[string]int, len(domain.Difficulties)),
	}
	for _, d := range domain.Difficulties {
		out.CompletionsByDifficulty[d] = 0
	}

	weekStart := today.AddDate(0, 0, -(WeekDays - 1))
	mostCompleted := -1

	for _, ih := range idx {
		if ih.dates.has(today) {
			out.TodayCompletedCount++
		}

		inWeek := ih.dates.countBetween(weekStart, today)
		out.WeeklyCompletedCount += inWeek
		out.MissedSlotsThisWeek += WeekDays - inWeek

		total := len(ih.dates)
		if domain.IsDifficulty(ih.habit.Difficulty) {
			out.CompletionsByDifficulty[ih.habit.Difficulty] += total
		}

		// strict comparison keeps the first habit on ties
		if total > mostCompleted {
			mostCompleted = total
			name := ih.habit.Name
			out.MostConsistentHabitName = &name
		}
	}

	return out
}
