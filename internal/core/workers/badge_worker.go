package workers

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/stats"
)

const badgeQueueSize = 100

type BadgeRefresher interface {
	RefreshBadges(ctx context.Context, userID string, sig stats.Signals) (domain.BadgeSet, error)
}

type BadgeJob struct {
	UserID string
	Shared bool
}

// BadgeWorker re-evaluates achievements in the background after writes.
type BadgeWorker struct {
	refresher BadgeRefresher
	jobs      chan BadgeJob
	wg        sync.WaitGroup
	log       *logrus.Entry
}

func NewBadgeWorker(refresher BadgeRefresher) *BadgeWorker {
	return &BadgeWorker{
		refresher: refresher,
		jobs:      make(chan BadgeJob, badgeQueueSize),
		log:       logrus.WithField("component", "badge_worker"),
	}
}

// Start runs the worker loop until ctx is cancelled. Use Wait to block until it returns.
func (w *BadgeWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.Run(ctx)
	}()
}

func (w *BadgeWorker) Run(ctx context.Context) {
	w.log.Info("badge worker started")
	for {
		select {
		case job := <-w.jobs:
			w.processJob(ctx, job)
		case <-ctx.Done():
			w.log.Info("badge worker shutting down")
			return
		}
	}
}

func (w *BadgeWorker) Wait() {
	w.wg.Wait()
}

// Enqueue never blocks. It reports false when the job was dropped.
func (w *BadgeWorker) Enqueue(job BadgeJob) bool {
	if job.UserID == "" {
		return false
	}
	select {
	case w.jobs <- job:
		return true
	default:
		w.log.WithField("user_id", job.UserID).Warn("badge queue full, dropping job")
		return false
	}
}

func (w *BadgeWorker) processJob(ctx context.Context, job BadgeJob) {
	unlocked, err := w.refresher.RefreshBadges(ctx, job.UserID, stats.Signals{Shared: job.Shared})
	if err != nil {
		w.log.WithError(err).WithField("user_id", job.UserID).Error("badge refresh failed")
		return
	}
	if unlocked.Len() > 0 {
		w.log.WithFields(logrus.Fields{
			"user_id": job.UserID,
			"badges":  unlocked.Strings(),
		}).Info("badges unlocked")
	}
}
