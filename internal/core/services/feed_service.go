package services

import (
	"context"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/stats"
	"github.com/comitanigiacomo/kanso-habits/internal/core/workers"
	"github.com/comitanigiacomo/kanso-habits/internal/metrics"
)

const (
	DefaultFeedLimit = 50
	MaxFeedLimit     = 100
)

type Publisher interface {
	Publish(event domain.CheerEvent)
}

type FeedService struct {
	repo      domain.HabitRepository
	publisher Publisher
	badges    BadgeEnqueuer
	metrics   *metrics.Metrics
	today     func() time.Time
}

func NewFeedService(repo domain.HabitRepository, publisher Publisher, badges BadgeEnqueuer, m *metrics.Metrics, today func() time.Time) *FeedService {
	if today == nil {
		today = func() time.Time { return domain.CalendarDay(time.Now().UTC()) }
	}
	return &FeedService{
		repo:      repo,
		publisher: publisher,
		badges:    badges,
		metrics:   m,
		today:     today,
	}
}

// Feed lists public habits, most cheered first.
func (s *FeedService) Feed(ctx context.Context, limit int) ([]domain.FeedItem, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	habits, err := s.repo.ListPublic(ctx, limit)
	if err != nil {
		return nil, err
	}

	today := s.today()
	items := make([]domain.FeedItem, 0, len(habits))
	for _, h := range habits {
		items = append(items, domain.NewFeedItem(h, stats.ComputeStreak(h.CompletedDates, today)))
	}
	return items, nil
}

func (s *FeedService) GetShared(ctx context.Context, id string) (*domain.FeedItem, error) {
	h, err := s.public(ctx, id)
	if err != nil {
		return nil, err
	}
	item := domain.NewFeedItem(h, stats.ComputeStreak(h.CompletedDates, s.today()))
	return &item, nil
}

// Cheer adds one like to a public habit and lets its owner's badges catch up.
func (s *FeedService) Cheer(ctx context.Context, id string) (*domain.FeedItem, error) {
	if _, err := s.public(ctx, id); err != nil {
		return nil, err
	}

	h, err := s.repo.IncrementLikes(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.Cheered()
	if s.publisher != nil {
		s.publisher.Publish(domain.CheerEvent{
			Type:    domain.EventCheer,
			HabitID: h.ID,
			Name:    h.Name,
			Likes:   h.Likes,
		})
	}
	if s.badges != nil {
		s.badges.Enqueue(workers.BadgeJob{UserID: h.UserID})
	}

	item := domain.NewFeedItem(h, stats.ComputeStreak(h.CompletedDates, s.today()))
	return &item, nil
}

func (s *FeedService) public(ctx context.Context, id string) (*domain.Habit, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !h.Public() {
		return nil, domain.ErrHabitNotFound
	}
	return h, nil
}
