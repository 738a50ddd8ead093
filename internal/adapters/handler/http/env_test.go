package http_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/content"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	router *gin.Engine
	habits *repository.InMemoryHabitRepository
	users  *repository.InMemoryUserRepository
	live   *recordingPublisher
}

type recordingPublisher struct {
	events []domain.CheerEvent
}

func (p *recordingPublisher) Publish(e domain.CheerEvent) { p.events = append(p.events, e) }

// newTestEnv mounts the habit, stats, feed and profile handlers over in-memory storage.
// Requests authenticate with the X-User-ID header instead of a JWT.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog, err := content.Default()
	require.NoError(t, err)

	env := &testEnv{
		habits: repository.NewInMemoryHabitRepository(),
		users:  repository.NewInMemoryUserRepository(),
		live:   &recordingPublisher{},
	}

	statsSvc := services.NewStatsService(env.habits, env.users, catalog,
		services.WithClock(func() time.Time { return fixedNow }))
	habitSvc := services.NewHabitService(env.habits, services.WithCategoryColors(catalog))
	profileSvc := services.NewProfileService(env.users, habitSvc)
	feedSvc := services.NewFeedService(env.habits, env.live, nil, nil, statsSvc.Today)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set(middleware.ContextUserIDKey, userID)
		}
		c.Next()
	})

	api := r.Group("/api/v1")
	adapterHTTP.NewFeedHandler(feedSvc, nil).RegisterRoutes(api)
	adapterHTTP.NewHabitHandler(habitSvc, statsSvc.Today).RegisterRoutes(api)
	adapterHTTP.NewStatsHandler(statsSvc).RegisterRoutes(api)
	adapterHTTP.NewProfileHandler(profileSvc).RegisterRoutes(api)

	env.router = r
	return env
}

func (e *testEnv) addUser(t *testing.T, id string) {
	t.Helper()
	u, err := domain.NewUser(id, id+"@kanso.app", "")
	require.NoError(t, err)
	require.NoError(t, e.users.Create(context.Background(), u))
}

func (e *testEnv) addHabit(t *testing.T, userID, name string, dates ...string) *domain.Habit {
	t.Helper()
	h, err := domain.NewHabit(userID, name, "", "", "", "", "")
	require.NoError(t, err)
	h.CompletedDates = domain.NormalizeDates(dates)
	require.NoError(t, e.habits.Create(context.Background(), h))
	return h
}

func (e *testEnv) do(method, path, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
