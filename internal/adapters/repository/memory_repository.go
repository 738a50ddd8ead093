package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

var (
	_ domain.HabitRepository = (*InMemoryHabitRepository)(nil)
	_ domain.UserRepository  = (*InMemoryUserRepository)(nil)
	_ domain.BadgeRepository = (*InMemoryUserRepository)(nil)
)

// InMemoryHabitRepository keeps private copies of every habit, so callers
// never share memory with the store.
type InMemoryHabitRepository struct {
	store map[string]*domain.Habit
	order []string

	mu sync.RWMutex
}

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return &InMemoryHabitRepository{
		store: make(map[string]*domain.Habit),
	}
}

func cloneHabit(h *domain.Habit) *domain.Habit {
	c := *h
	c.CompletedDates = append([]string{}, h.CompletedDates...)
	if h.ReminderTime != nil {
		rt := *h.ReminderTime
		c.ReminderTime = &rt
	}
	if h.DeletedAt != nil {
		d := *h.DeletedAt
		c.DeletedAt = &d
	}
	return &c
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	habit.Version = 1
	if _, exists := r.store[habit.ID]; !exists {
		r.order = append(r.order, habit.ID)
	}
	r.store[habit.ID] = cloneHabit(habit)
	return nil
}

func (r *InMemoryHabitRepository) live(id string) (*domain.Habit, bool) {
	h, ok := r.store[id]
	if !ok || h.DeletedAt != nil {
		return nil, false
	}
	return h, true
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.live(id)
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	return cloneHabit(habit), nil
}

func (r *InMemoryHabitRepository) collect(keep func(*domain.Habit) bool) []*domain.Habit {
	habits := []*domain.Habit{}
	for _, id := range r.order {
		h, ok := r.live(id)
		if ok && keep(h) {
			habits = append(habits, cloneHabit(h))
		}
	}
	return habits
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(h *domain.Habit) bool { return h.UserID == userID }), nil
}

func (r *InMemoryHabitRepository) ListPublic(ctx context.Context, limit int) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habits := r.collect((*domain.Habit).Public)
	sort.SliceStable(habits, func(i, j int) bool {
		return habits[i].Likes > habits[j].Likes
	})

	if limit > 0 && len(habits) > limit {
		habits = habits[:limit]
	}
	return habits, nil
}

func (r *InMemoryHabitRepository) ListWithReminders(ctx context.Context) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect((*domain.Habit).HasReminder), nil
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.live(habit.ID)
	if !ok {
		return domain.ErrHabitNotFound
	}
	if stored.Version != habit.Version {
		return domain.ErrHabitConflict
	}

	next := cloneHabit(habit)
	next.Likes = stored.Likes
	next.Version = stored.Version + 1
	next.UpdatedAt = time.Now().UTC()
	r.store[habit.ID] = next

	habit.Version = next.Version
	habit.UpdatedAt = next.UpdatedAt
	habit.Likes = next.Likes
	return nil
}

func (r *InMemoryHabitRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.live(id)
	if !ok {
		return domain.ErrHabitNotFound
	}

	now := time.Now().UTC()
	stored.DeletedAt = &now
	stored.UpdatedAt = now
	stored.Version++
	return nil
}

func (r *InMemoryHabitRepository) IncrementLikes(ctx context.Context, id string) (*domain.Habit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.live(id)
	if !ok {
		return nil, domain.ErrHabitNotFound
	}

	stored.Likes++
	return cloneHabit(stored), nil
}

type memoryUser struct {
	user   domain.User
	badges domain.BadgeSet
}

// InMemoryUserRepository stores accounts and their unlocked badges.
type InMemoryUserRepository struct {
	byID    map[string]*memoryUser
	byEmail map[string]string

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		byID:    make(map[string]*memoryUser),
		byEmail: make(map[string]string),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := domain.NormalizeEmail(user.Email)
	if _, taken := r.byEmail[email]; taken {
		return domain.ErrEmailAlreadyExists
	}

	r.byID[user.ID] = &memoryUser{user: *user, badges: domain.NewBadgeSet()}
	r.byEmail[email] = user.ID
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := r.byID[id].user
	return &u, nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := entry.user
	return &u, nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byID[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}

	entry.user.DisplayName = user.DisplayName
	entry.user.Profile = user.Profile
	entry.user.UpdatedAt = time.Now().UTC()
	user.UpdatedAt = entry.user.UpdatedAt
	return nil
}

func (r *InMemoryUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byEmail, domain.NormalizeEmail(entry.user.Email))
	delete(r.byID, id)
	return nil
}

func (r *InMemoryUserRepository) GetBadges(ctx context.Context, userID string) (domain.BadgeSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byID[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return entry.badges.Union(nil), nil
}

func (r *InMemoryUserRepository) MergeBadges(ctx context.Context, userID string, keys domain.BadgeSet) (domain.BadgeSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byID[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	entry.badges = entry.badges.Union(keys)
	entry.user.UpdatedAt = time.Now().UTC()
	return entry.badges.Union(nil), nil
}
