package stats

import (
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

const (
	StreakBadgeDays          = 7
	CompletionBadgeTotal     = 30
	CheerBadgeLikes          = 100
	HardcoreBadgeCompletions = 10
)

// Signals carries achievement events that cannot be derived from habit data.
type Signals struct {
	// Shared is set when the user has just shared a habit publicly.
	Shared bool
}

type badgeFacts struct {
	habits           int
	maxStreak        int
	totalCompletions int
	maxLikes         int
	hardCompletions  int
	shared           bool
}

type badgeRule struct {
	key      domain.BadgeKey
	unlocked func(badgeFacts) bool
}

var badgeRules = []badgeRule{
	{key: domain.BadgeFirstHabit, unlocked: func(f badgeFacts) bool { return f.habits > 0 }},
	{key: domain.BadgeSevenDayStreak, unlocked: func(f badgeFacts) bool { return f.maxStreak >= StreakBadgeDays }},
	{key: domain.BadgeThirtyCompletions, unlocked: func(f badgeFacts) bool { return f.totalCompletions >= CompletionBadgeTotal }},
	{key: domain.BadgeFirstShare, unlocked: func(f badgeFacts) bool { return f.shared }},
	{key: domain.BadgeHundredLikes, unlocked: func(f badgeFacts) bool { return f.maxLikes >= CheerBadgeLikes }},
	{key: domain.BadgeHardcore, unlocked: func(f badgeFacts) bool { return f.hardCompletions >= HardcoreBadgeCompletions }},
}

func collectFacts(idx []indexedHabit, today time.Time, sig Signals) badgeFacts {
	f := badgeFacts{habits: len(idx), shared: sig.Shared}
	for _, ih := range idx {
		if s := ih.dates.streak(today); s > f.maxStreak {
			f.maxStreak = s
		}
		total := len(ih.dates)
		f.totalCompletions += total
		if ih.habit.Difficulty == domain.DifficultyHard {
			f.hardCompletions += total
		}
		if ih.habit.Likes > f.maxLikes {
			f.maxLikes = ih.habit.Likes
		}
	}
	return f
}

func evaluate(f badgeFacts, prior domain.BadgeSet) domain.BadgeSet {
	unlocked := domain.NewBadgeSet()
	for _, rule := range badgeRules {
		if prior.Has(rule.key) {
			continue
		}
		if rule.unlocked(f) {
			unlocked[rule.key] = struct{}{}
		}
	}
	return unlocked
}

// EvaluateBadges returns the badges the habits qualify for that are not yet in
// prior. It never returns a key contained in prior and never modifies prior.
func EvaluateBadges(habits []*domain.Habit, prior domain.BadgeSet, asOf time.Time, sig Signals) domain.BadgeSet {
	return evaluate(collectFacts(indexHabits(habits), domain.CalendarDay(asOf), sig), prior)
}
