package workers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

var ErrInvalidReminderTime = errors.New("reminder time must be HH:MM")

const notifyTimeout = 5 * time.Second

// Reminder is the payload delivered when a registration fires.
type Reminder struct {
	HabitID   string
	UserID    string
	HabitName string
	Time      string
	Frequency string
}

type Registration struct {
	HabitID string
	FireAt  time.Time
	Payload Reminder
}

type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

type scheduled struct {
	reg   Registration
	timer *time.Timer
}

// ReminderScheduler keeps at most one pending timer per habit. Daily and
// weekly reminders re-register their next occurrence after firing.
type ReminderScheduler struct {
	mu       sync.Mutex
	pending  map[string]*scheduled
	notifier Notifier
	now      func() time.Time
	loc      *time.Location
	stopped  bool
	log      *logrus.Entry
}

type SchedulerOption func(*ReminderScheduler)

func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *ReminderScheduler) { s.now = now }
}

func WithSchedulerLocation(loc *time.Location) SchedulerOption {
	return func(s *ReminderScheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewReminderScheduler(notifier Notifier, opts ...SchedulerOption) *ReminderScheduler {
	s := &ReminderScheduler{
		pending:  make(map[string]*scheduled),
		notifier: notifier,
		now:      time.Now,
		loc:      time.UTC,
		log:      logrus.WithField("component", "reminder_scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextFireTime returns the next occurrence of reminderTime (HH:MM) after now:
// today if still ahead, otherwise one day (daily) or seven days (weekly) later.
// It reports false for frequency none.
func NextFireTime(reminderTime, frequency string, now time.Time) (time.Time, bool, error) {
	var step int
	switch frequency {
	case domain.ReminderDaily:
		step = 1
	case domain.ReminderWeekly:
		step = 7
	default:
		return time.Time{}, false, nil
	}

	clock, err := time.Parse("15:04", reminderTime)
	if err != nil {
		return time.Time{}, false, ErrInvalidReminderTime
	}

	y, m, d := now.Date()
	fireAt := time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, now.Location())
	if !fireAt.After(now) {
		fireAt = fireAt.AddDate(0, 0, step)
	}
	return fireAt, true, nil
}

// Plan derives the registration for a habit. It reports false when the habit
// has no active reminder.
func (s *ReminderScheduler) Plan(h *domain.Habit) (Registration, bool) {
	if h == nil || h.DeletedAt != nil || !h.HasReminder() {
		return Registration{}, false
	}
	fireAt, ok, err := NextFireTime(*h.ReminderTime, h.ReminderFrequency, s.now().In(s.loc))
	if err != nil || !ok {
		return Registration{}, false
	}
	return Registration{
		HabitID: h.ID,
		FireAt:  fireAt,
		Payload: Reminder{
			HabitID:   h.ID,
			UserID:    h.UserID,
			HabitName: h.Name,
			Time:      *h.ReminderTime,
			Frequency: h.ReminderFrequency,
		},
	}, true
}

func (s *ReminderScheduler) PlanAll(habits []*domain.Habit) []Registration {
	regs := make([]Registration, 0, len(habits))
	for _, h := range habits {
		if reg, ok := s.Plan(h); ok {
			regs = append(regs, reg)
		}
	}
	return regs
}

// Schedule registers the habit's next reminder, or cancels the pending one
// when the habit no longer has a reminder.
func (s *ReminderScheduler) Schedule(h *domain.Habit) {
	if h == nil {
		return
	}
	reg, ok := s.Plan(h)
	if !ok {
		s.Cancel(h.ID)
		return
	}
	s.Register(reg)
}

// Register replaces any pending registration for the same habit.
func (s *ReminderScheduler) Register(reg Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerLocked(reg)
}

func (s *ReminderScheduler) registerLocked(reg Registration) {
	if s.stopped {
		return
	}
	if old, ok := s.pending[reg.HabitID]; ok {
		old.timer.Stop()
	}

	entry := &scheduled{reg: reg}
	delay := reg.FireAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	entry.timer = time.AfterFunc(delay, func() { s.fire(entry) })
	s.pending[reg.HabitID] = entry
}

func (s *ReminderScheduler) fire(entry *scheduled) {
	s.mu.Lock()
	current, ok := s.pending[entry.reg.HabitID]
	if !ok || current != entry {
		s.mu.Unlock()
		return
	}
	delete(s.pending, entry.reg.HabitID)

	if next, recurring := nextOccurrence(entry.reg); recurring {
		s.registerLocked(next)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, entry.reg.Payload); err != nil {
		s.log.WithError(err).WithField("habit_id", entry.reg.HabitID).Warn("reminder delivery failed")
	}
}

func nextOccurrence(reg Registration) (Registration, bool) {
	switch reg.Payload.Frequency {
	case domain.ReminderDaily:
		reg.FireAt = reg.FireAt.AddDate(0, 0, 1)
	case domain.ReminderWeekly:
		reg.FireAt = reg.FireAt.AddDate(0, 0, 7)
	default:
		return reg, false
	}
	return reg, true
}

func (s *ReminderScheduler) Cancel(habitID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.pending[habitID]; ok {
		entry.timer.Stop()
		delete(s.pending, habitID)
	}
}

func (s *ReminderScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
}

func (s *ReminderScheduler) cancelAllLocked() {
	for id, entry := range s.pending {
		entry.timer.Stop()
		delete(s.pending, id)
	}
}

// ReplaceAll atomically swaps every pending registration for regs.
func (s *ReminderScheduler) ReplaceAll(regs []Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
	for _, reg := range regs {
		s.registerLocked(reg)
	}
}

// Pending lists the registrations waiting to fire, earliest first.
func (s *ReminderScheduler) Pending() []Registration {
	s.mu.Lock()
	defer s.mu.Unlock()

	regs := make([]Registration, 0, len(s.pending))
	for _, entry := range s.pending {
		regs = append(regs, entry.reg)
	}
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].FireAt.Equal(regs[j].FireAt) {
			return regs[i].HabitID < regs[j].HabitID
		}
		return regs[i].FireAt.Before(regs[j].FireAt)
	})
	return regs
}

// Stop cancels every registration and rejects new ones.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
	s.stopped = true
}

type ReminderTexts interface {
	ReminderNotification(habitName string) (title, body string)
}

// LogNotifier delivers reminders to the structured log.
type LogNotifier struct {
	texts ReminderTexts
	log   *logrus.Entry
}

func NewLogNotifier(texts ReminderTexts) *LogNotifier {
	return &LogNotifier{
		texts: texts,
		log:   logrus.WithField("component", "reminders"),
	}
}

func (n *LogNotifier) Notify(_ context.Context, r Reminder) error {
	title, body := n.texts.ReminderNotification(r.HabitName)
	n.log.WithFields(logrus.Fields{
		"habit_id":  r.HabitID,
		"user_id":   r.UserID,
		"title":     title,
		"frequency": r.Frequency,
	}).Info(body)
	return nil
}
