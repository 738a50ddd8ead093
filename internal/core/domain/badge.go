package domain

import (
	"encoding/json"
	"sort"
)

type BadgeKey string

const (
	BadgeFirstHabit        BadgeKey = "first_habit"
	BadgeSevenDayStreak    BadgeKey = "7_day_streak"
	BadgeThirtyCompletions BadgeKey = "30_completions"
	BadgeFirstShare        BadgeKey = "first_share"
	BadgeHundredLikes      BadgeKey = "100_likes"
	BadgeHardcore          BadgeKey = "hardcore"
)

// AllBadgeKeys is the display order of every achievement.
var AllBadgeKeys = []BadgeKey{
	BadgeFirstHabit,
	BadgeSevenDayStreak,
	BadgeThirtyCompletions,
	BadgeFirstShare,
	BadgeHundredLikes,
	BadgeHardcore,
}

func (k BadgeKey) Known() bool {
	for _, known := range AllBadgeKeys {
		if k == known {
			return true
		}
	}
	return false
}

// BadgeSet is a set of unlocked badge keys. The zero value is an empty, read-only set.
type BadgeSet map[BadgeKey]struct{}

func NewBadgeSet(keys ...BadgeKey) BadgeSet {
	s := make(BadgeSet, len(keys))
	for _, k := range keys {
		if k != "" {
			s[k] = struct{}{}
		}
	}
	return s
}

// ParseBadgeSet builds a set from stored keys. Unknown keys are kept so that
// badges written by newer releases survive a round trip.
func ParseBadgeSet(raw []string) BadgeSet {
	s := make(BadgeSet, len(raw))
	for _, k := range raw {
		if k != "" {
			s[BadgeKey(k)] = struct{}{}
		}
	}
	return s
}

func (s BadgeSet) Has(k BadgeKey) bool {
	_, ok := s[k]
	return ok
}

func (s BadgeSet) Len() int {
	return len(s)
}

// Union returns a new set holding the keys of both sets.
func (s BadgeSet) Union(other BadgeSet) BadgeSet {
	out := make(BadgeSet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Without returns a new set holding the keys of s that are absent from other.
func (s BadgeSet) Without(other BadgeSet) BadgeSet {
	out := make(BadgeSet)
	for k := range s {
		if !other.Has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

func (s BadgeSet) Keys() []BadgeKey {
	keys := make([]BadgeKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (s BadgeSet) Strings() []string {
	keys := s.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

func (s BadgeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *BadgeSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseBadgeSet(raw)
	return nil
}
