package stats

import (
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

func ComputeSnapshot(habits []*domain.Habit, prior domain.BadgeSet, asOf time.Time, sig Signals) domain.StatsSnapshot {
	idx := indexHabits(habits)
	today := domain.CalendarDay(asOf)

	snap := domain.StatsSnapshot{
		AsOf:                 today.Format(domain.DateLayout),
		CurrentStreakByHabit: make(map[string]int, len(idx)),
		BestStreakByHabit:    make(map[string]int, len(idx)),
	}

	for _, ih := range idx {
		current := ih.dates.streak(today)
		best := ih.dates.best()

		snap.CurrentStreakByHabit[ih.habit.ID] = current
		snap.BestStreakByHabit[ih.habit.ID] = best

		if current > snap.AggregateCurrentStreak {
			snap.AggregateCurrentStreak = current
		}
		if best > snap.AggregateBestStreak {
			snap.AggregateBestStreak = best
		}
	}

	snap.AggregateStats = aggregate(idx, today)
	snap.NewlyUnlockedBadges = evaluate(collectFacts(idx, today, sig), prior)

	return snap
}
