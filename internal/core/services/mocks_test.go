package services_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/workers"
)

func ptr[T any](v T) *T {
	return &v
}

type MockRepo struct {
	mu            sync.Mutex
	store         map[string]*domain.Habit
	order         []string
	simulateError error
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		store: make(map[string]*domain.Habit),
	}
}

func clone(h *domain.Habit) *domain.Habit {
	c := *h
	c.CompletedDates = append([]string(nil), h.CompletedDates...)
	return &c
}

func (m *MockRepo) Create(ctx context.Context, habit *domain.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return m.simulateError
	}
	if _, exists := m.store[habit.ID]; exists {
		return errors.New("duplicate key value violates unique constraint")
	}
	if habit.Version == 0 {
		habit.Version = 1
	}
	m.store[habit.ID] = clone(habit)
	m.order = append(m.order, habit.ID)
	return nil
}

func (m *MockRepo) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	h, ok := m.store[id]
	if !ok || h.DeletedAt != nil {
		return nil, domain.ErrHabitNotFound
	}
	return clone(h), nil
}

func (m *MockRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []*domain.Habit
	for _, id := range m.order {
		h := m.store[id]
		if h.UserID == userID && h.DeletedAt == nil {
			list = append(list, clone(h))
		}
	}
	return list, nil
}

func (m *MockRepo) ListPublic(ctx context.Context, limit int) ([]*domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*domain.Habit
	for _, id := range m.order {
		if h := m.store[id]; h.Public() {
			list = append(list, clone(h))
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Likes > list[j].Likes })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockRepo) ListWithReminders(ctx context.Context) ([]*domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*domain.Habit
	for _, id := range m.order {
		if h := m.store[id]; h.DeletedAt == nil && h.HasReminder() {
			list = append(list, clone(h))
		}
	}
	return list, nil
}

func (m *MockRepo) Update(ctx context.Context, habit *domain.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return m.simulateError
	}
	current, ok := m.store[habit.ID]
	if !ok || current.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	if current.Version != habit.Version {
		return domain.ErrHabitConflict
	}
	habit.Version++
	m.store[habit.ID] = clone(habit)
	return nil
}

func (m *MockRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return m.simulateError
	}
	h, ok := m.store[id]
	if !ok || h.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	now := time.Now().UTC()
	h.DeletedAt = &now
	h.Version++
	h.UpdatedAt = now
	return nil
}

func (m *MockRepo) IncrementLikes(ctx context.Context, id string) (*domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.store[id]
	if !ok || h.DeletedAt != nil {
		return nil, domain.ErrHabitNotFound
	}
	h.Likes++
	return clone(h), nil
}

// put stores a habit as is, bypassing version bookkeeping.
func (m *MockRepo) put(h *domain.Habit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.Version == 0 {
		h.Version = 1
	}
	m.store[h.ID] = clone(h)
	m.order = append(m.order, h.ID)
}

type MockBadgeRepo struct {
	mu       sync.Mutex
	badges   map[string]domain.BadgeSet
	getErr   error
	mergeErr error
	merges   int
}

func NewMockBadgeRepo() *MockBadgeRepo {
	return &MockBadgeRepo{badges: make(map[string]domain.BadgeSet)}
}

func (m *MockBadgeRepo) GetBadges(ctx context.Context, userID string) (domain.BadgeSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.badges[userID].Union(nil), nil
}

func (m *MockBadgeRepo) MergeBadges(ctx context.Context, userID string, keys domain.BadgeSet) (domain.BadgeSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mergeErr != nil {
		return nil, m.mergeErr
	}
	m.merges++
	m.badges[userID] = m.badges[userID].Union(keys)
	return m.badges[userID].Union(nil), nil
}

func (m *MockBadgeRepo) stored(userID string) []domain.BadgeKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.badges[userID].Keys()
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []workers.BadgeJob
}

func (q *recordingQueue) Enqueue(job workers.BadgeJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return true
}

// droppingQueue reports every job as lost, like a full badge queue.
type droppingQueue struct{}

func (droppingQueue) Enqueue(workers.BadgeJob) bool { return false }

type recordingPlanner struct {
	scheduled []string
	cancelled []string
}

func (p *recordingPlanner) Schedule(h *domain.Habit) { p.scheduled = append(p.scheduled, h.ID) }
func (p *recordingPlanner) Cancel(id string)         { p.cancelled = append(p.cancelled, id) }

type recordingPublisher struct {
	events []domain.CheerEvent
}

func (p *recordingPublisher) Publish(e domain.CheerEvent) { p.events = append(p.events, e) }

type staticColors map[string]string

func (c staticColors) CategoryColor(category string) string { return c[category] }

type userStore struct {
	mu        sync.Mutex
	users     map[string]domain.User
	updateErr error
}

func newUserStore(users ...*domain.User) *userStore {
	s := &userStore{users: make(map[string]domain.User)}
	for _, u := range users {
		s.users[u.ID] = *u
	}
	return s
}

func (s *userStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *userStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (s *userStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	s.users[user.ID] = *user
	return nil
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}
