package stats

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// MaxHabitsForSuggestion is the habit count from which no suggestion is offered.
const MaxHabitsForSuggestion = 3

var (
	ErrNoFallback       = errors.New("message table requires a fallback text")
	ErrUnknownPredicate = errors.New("unknown message predicate")
)

// MessageFacts are the values message predicates can inspect.
type MessageFacts struct {
	CurrentStreak  int
	TodayCompleted int
	Habits         int
}

// FactsFromSnapshot derives message facts from a snapshot computed over
// habits. The habit count comes from the slice, since snapshot maps are keyed
// by id and collapse repeated or empty ids.
func FactsFromSnapshot(snap domain.StatsSnapshot, habits []*domain.Habit) MessageFacts {
	return MessageFacts{
		CurrentStreak:  snap.AggregateCurrentStreak,
		TodayCompleted: snap.TodayCompletedCount,
		Habits:         len(indexHabits(habits)),
	}
}

type Predicate func(MessageFacts) bool

// predicates are addressable by name from the content catalog.
var predicates = map[string]Predicate{
	"streak_at_least_7": func(f MessageFacts) bool { return f.CurrentStreak >= 7 },
	"streak_at_least_3": func(f MessageFacts) bool { return f.CurrentStreak >= 3 },
	"streak_zero":       func(f MessageFacts) bool { return f.CurrentStreak == 0 },
	"completed_today":   func(f MessageFacts) bool { return f.TodayCompleted > 0 },
	"no_habits":         func(f MessageFacts) bool { return f.Habits == 0 },
}

func LookupPredicate(name string) (Predicate, error) {
	p, ok := predicates[name]
	if !ok {
		return nil, ErrUnknownPredicate
	}
	return p, nil
}

type MessageRule struct {
	Name string
	When Predicate
	Text string
}

// MessageTable picks the text of the first rule whose predicate holds, and
// the fallback when none does. A table always yields a message.
type MessageTable struct {
	rules    []MessageRule
	fallback string
}

func NewMessageTable(fallback string, rules ...MessageRule) (MessageTable, error) {
	if strings.TrimSpace(fallback) == "" {
		return MessageTable{}, ErrNoFallback
	}
	kept := make([]MessageRule, 0, len(rules))
	for _, r := range rules {
		if r.When != nil {
			kept = append(kept, r)
		}
	}
	return MessageTable{rules: kept, fallback: fallback}, nil
}

func (t MessageTable) Pick(f MessageFacts) string {
	text := t.fallback
	for _, r := range t.rules {
		if r.When(f) {
			text = r.Text
			break
		}
	}
	return render(text, f)
}

func render(text string, f MessageFacts) string {
	if !strings.Contains(text, "{") {
		return text
	}
	return strings.NewReplacer(
		"{streak}", strconv.Itoa(f.CurrentStreak),
		"{today}", strconv.Itoa(f.TodayCompleted),
	).Replace(text)
}

// DailyQuote rotates through quotes by day of month.
func DailyQuote(quotes []string, asOf time.Time) string {
	if len(quotes) == 0 {
		return ""
	}
	return quotes[asOf.Day()%len(quotes)]
}

// Suggest returns the first suggestion the user does not already track, as
// long as they have fewer than MaxHabitsForSuggestion habits.
func Suggest(habits []*domain.Habit, suggestions []string) (string, bool) {
	idx := indexHabits(habits)
	if len(idx) >= MaxHabitsForSuggestion {
		return "", false
	}

	existing := make(map[string]struct{}, len(idx))
	for _, ih := range idx {
		existing[strings.ToLower(strings.TrimSpace(ih.habit.Name))] = struct{}{}
	}

	for _, s := range suggestions {
		if _, taken := existing[strings.ToLower(strings.TrimSpace(s))]; !taken {
			return s, true
		}
	}
	return "", false
}
