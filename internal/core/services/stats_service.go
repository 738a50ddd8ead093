package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/comitanigiacomo/kanso-habits/internal/content"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/stats"
	"github.com/comitanigiacomo/kanso-habits/internal/metrics"
)

type StatsService struct {
	habitRepo domain.HabitRepository
	badgeRepo domain.BadgeRepository
	catalog   *content.Catalog
	metrics   *metrics.Metrics
	loc       *time.Location
	now       func() time.Time
}

type StatsOption func(*StatsService)

func WithClock(now func() time.Time) StatsOption {
	return func(s *StatsService) { s.now = now }
}

// WithLocation sets the time zone that decides which calendar day is today.
func WithLocation(loc *time.Location) StatsOption {
	return func(s *StatsService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithStatsMetrics(m *metrics.Metrics) StatsOption {
	return func(s *StatsService) { s.metrics = m }
}

func NewStatsService(habitRepo domain.HabitRepository, badgeRepo domain.BadgeRepository, catalog *content.Catalog, opts ...StatsOption) *StatsService {
	s := &StatsService{
		habitRepo: habitRepo,
		badgeRepo: badgeRepo,
		catalog:   catalog,
		loc:       time.UTC,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar day in the configured location.
func (s *StatsService) Today() time.Time {
	return domain.CalendarDay(s.now().In(s.loc))
}

func (s *StatsService) asOf(t time.Time) time.Time {
	if t.IsZero() {
		return s.Today()
	}
	return domain.CalendarDay(t)
}

func (s *StatsService) load(ctx context.Context, userID string) ([]*domain.Habit, domain.BadgeSet, error) {
	var (
		habits []*domain.Habit
		prior  domain.BadgeSet
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		habits, err = s.habitRepo.ListByUserID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		prior, err = s.badgeRepo.GetBadges(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("stats service: load failed: %w", err)
	}
	return habits, prior, nil
}

// persist merges newly unlocked badges and returns the full unlocked set.
// A failed merge is logged and the in-memory union is returned; the next
// evaluation retries because prior still lacks the keys.
func (s *StatsService) persist(ctx context.Context, userID string, prior, unlocked domain.BadgeSet) domain.BadgeSet {
	if unlocked.Len() == 0 {
		return prior
	}

	merged, err := s.badgeRepo.MergeBadges(ctx, userID, unlocked)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("failed to persist unlocked badges")
		return prior.Union(unlocked)
	}

	for _, k := range unlocked.Keys() {
		s.metrics.BadgeUnlocked(string(k))
	}
	return merged
}

func (s *StatsService) Dashboard(ctx context.Context, input domain.StatsInput) (*domain.Dashboard, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDashboard(time.Since(start)) }()

	asOf := s.asOf(input.AsOf)

	habits, prior, err := s.load(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	snap := stats.ComputeSnapshot(habits, prior, asOf, stats.Signals{})
	all := s.persist(ctx, input.UserID, prior, snap.NewlyUnlockedBadges)

	facts := stats.FactsFromSnapshot(snap, habits)
	dash := &domain.Dashboard{
		Stats:             snap,
		Badges:            s.catalog.BadgeViews(all),
		WeeklyProgress:    stats.WeeklyProgress(habits, asOf),
		AllCompletedToday: stats.AllCompletedToday(habits, asOf),
		Motivation:        s.catalog.Motivation(facts),
		PersonalizedQuote: s.catalog.PersonalizedQuote(facts),
		DailyQuote:        stats.DailyQuote(s.catalog.Quotes, asOf),
	}
	if suggestion, ok := stats.Suggest(habits, s.catalog.Suggestions); ok {
		dash.Suggestion = &suggestion
	}

	return dash, nil
}

// RefreshBadges evaluates the user's achievements and stores the ones newly
// unlocked, which it returns.
func (s *StatsService) RefreshBadges(ctx context.Context, userID string, sig stats.Signals) (domain.BadgeSet, error) {
	habits, prior, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlocked := stats.EvaluateBadges(habits, prior, s.Today(), sig)
	if unlocked.Len() == 0 {
		return unlocked, nil
	}

	if _, err := s.badgeRepo.MergeBadges(ctx, userID, unlocked); err != nil {
		return nil, fmt.Errorf("stats service: failed to merge badges: %w", err)
	}
	for _, k := range unlocked.Keys() {
		s.metrics.BadgeUnlocked(string(k))
	}
	return unlocked, nil
}

func (s *StatsService) Badges(ctx context.Context, userID string) ([]domain.BadgeView, error) {
	unlocked, err := s.badgeRepo.GetBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.catalog.BadgeViews(unlocked), nil
}

func (s *StatsService) Insights(ctx context.Context, userID string, asOf time.Time, days int) (*domain.Insights, error) {
	habits, err := s.habitRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	insights := stats.ComputeInsights(habits, s.asOf(asOf), days)
	return &insights, nil
}

func (s *StatsService) RangeStats(ctx context.Context, input domain.StatsInput) (*domain.RangeStats, error) {
	habits, err := s.habitRepo.ListByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	end := s.asOf(input.EndDate)
	start := input.StartDate
	if start.IsZero() {
		start = end.AddDate(0, 0, -(stats.WeekDays - 1))
	}

	rs := stats.ComputeRangeStats(habits, start, end)
	return &rs, nil
}
