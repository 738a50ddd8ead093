package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/realtime"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/config"
	"github.com/comitanigiacomo/kanso-habits/internal/content"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
	"github.com/comitanigiacomo/kanso-habits/internal/core/workers"
	"github.com/comitanigiacomo/kanso-habits/internal/metrics"
)

// app holds the wired service graph and the background machinery that
// outlives a single request.
type app struct {
	router    *gin.Engine
	badges    *workers.BadgeWorker
	reminders *workers.ReminderScheduler
	hub       *realtime.Hub
	habitRepo domain.HabitRepository
	db        *sqlx.DB
	redis     *redis.Client
}

type storage struct {
	habits domain.HabitRepository
	users  interface {
		domain.UserRepository
		domain.BadgeRepository
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (storage, *sqlx.DB, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logrus.Warn("using in-memory storage, data is lost on restart")
		return storage{
			habits: repository.NewInMemoryHabitRepository(),
			users:  repository.NewInMemoryUserRepository(),
		}, nil, nil
	}

	logrus.Info("connecting to database...")
	db, err := repository.Connect(ctx, cfg.DatabaseDSN(), uint64(cfg.ConnectRetries))
	if err != nil {
		return storage{}, nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return storage{}, nil, fmt.Errorf("migrations failed: %w", err)
	}
	logrus.Info("database connected successfully")

	return storage{
		habits: repository.NewPostgresHabitRepository(db),
		users:  repository.NewPostgresUserRepository(db),
	}, db, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	catalog, err := content.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load content catalog: %w", err)
	}

	store, db, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb, err = cache.NewRedisClient(ctx, cache.Options{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Retries:  uint64(cfg.ConnectRetries),
		})
		if err != nil {
			if db != nil {
				db.Close()
			}
			return nil, err
		}
		store.habits = repository.NewCachedHabitRepository(store.habits, rdb, repository.DefaultHabitCacheTTL)
		logrus.Info("redis cache enabled")
	}

	m := metrics.New()
	loc := cfg.Location()

	statsSvc := services.NewStatsService(store.habits, store.users, catalog,
		services.WithLocation(loc),
		services.WithStatsMetrics(m),
	)
	badgeWorker := workers.NewBadgeWorker(statsSvc)
	scheduler := workers.NewReminderScheduler(workers.NewLogNotifier(catalog), workers.WithSchedulerLocation(loc))
	hub := realtime.NewHub(realtime.WithOriginPatterns("*"))

	habitSvc := services.NewHabitService(store.habits,
		services.WithBadgeQueue(badgeWorker),
		services.WithBadgeRefresher(statsSvc),
		services.WithReminders(scheduler),
		services.WithCategoryColors(catalog),
		services.WithHabitMetrics(m),
	)
	feedSvc := services.NewFeedService(store.habits, hub, badgeWorker, m, statsSvc.Today)
	authSvc := services.NewAuthService(store.users)
	tokenSvc := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL, store.users)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:    adapterHTTP.NewAuthHandler(authSvc, tokenSvc),
		HabitHandler:   adapterHTTP.NewHabitHandler(habitSvc, statsSvc.Today),
		StatsHandler:   adapterHTTP.NewStatsHandler(statsSvc),
		FeedHandler:    adapterHTTP.NewFeedHandler(feedSvc, hub),
		ProfileHandler: adapterHTTP.NewProfileHandler(services.NewProfileService(store.users, habitSvc)),
		TokenService:   tokenSvc,
		DB:             db,
		Redis:          rdb,
		Metrics:        m,
		Logger:         logrus.StandardLogger(),
		RateLimit:      cfg.RateLimit,
		RateWindow:     cfg.RateWindow,
		StartTime:      time.Now(),
	})

	return &app{
		router:    router,
		badges:    badgeWorker,
		reminders: scheduler,
		hub:       hub,
		habitRepo: store.habits,
		db:        db,
		redis:     rdb,
	}, nil
}

// start launches the badge worker and rebuilds the reminder timers from storage.
func (a *app) start(ctx context.Context) error {
	a.badges.Start(ctx)

	habits, err := a.habitRepo.ListWithReminders(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reminders: %w", err)
	}
	regs := a.reminders.PlanAll(habits)
	a.reminders.ReplaceAll(regs)
	logrus.WithField("count", len(regs)).Info("reminders scheduled")
	return nil
}

// close releases everything start acquired. Cancel the context passed to
// start first so the badge worker can drain.
func (a *app) close() {
	a.reminders.Stop()
	a.hub.Close()
	a.badges.Wait()

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close redis client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close database")
		}
	}
}
