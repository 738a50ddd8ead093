// Package stats derives streaks, aggregates, insights and achievements from
// in-memory habit records. Every function is pure: inputs are never mutated
// and no state is kept between calls.
package stats

import (
	"sort"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// dateSet holds the valid completion days of one habit. Malformed entries are
// dropped and duplicates collapse.
type dateSet map[string]struct{}

func newDateSet(dates []string) dateSet {
	set := make(dateSet, len(dates))
	for _, d := range dates {
		if _, err := domain.ParseDate(d); err != nil {
			continue
		}
		set[d] = struct{}{}
	}
	return set
}

func (s dateSet) has(day time.Time) bool {
	_, ok := s[day.Format(domain.DateLayout)]
	return ok
}

// streak counts consecutive days present in the set, walking back from day.
func (s dateSet) streak(day time.Time) int {
	n := 0
	for s.has(day) {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

func (s dateSet) best() int {
	if len(s) == 0 {
		return 0
	}

	days := make([]time.Time, 0, len(s))
	for d := range s {
		t, _ := domain.ParseDate(d)
		days = append(days, t)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	best, run := 0, 0
	for i, d := range days {
		if i > 0 && days[i-1].AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// countBetween counts the days in [from, to] present in the set.
func (s dateSet) countBetween(from, to time.Time) int {
	n := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if s.has(day) {
			n++
		}
	}
	return n
}

// ComputeStreak returns the number of consecutive completed days ending at
// asOf. It is 0 when asOf itself is not completed.
func ComputeStreak(dates []string, asOf time.Time) int {
	return newDateSet(dates).streak(domain.CalendarDay(asOf))
}

// ComputeBestStreak returns the longest run of consecutive completed days
// anywhere in the history.
func ComputeBestStreak(dates []string) int {
	return newDateSet(dates).best()
}

type indexedHabit struct {
	habit *domain.Habit
	dates dateSet
}

func indexHabits(habits []*domain.Habit) []indexedHabit {
	idx := make([]indexedHabit, 0, len(habits))
	for _, h := range habits {
		if h == nil {
			continue
		}
		idx = append(idx, indexedHabit{habit: h, dates: newDateSet(h.CompletedDates)})
	}
	return idx
}
