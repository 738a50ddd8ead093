package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/metrics"
)

func TestMetrics_ExposesCounters(t *testing.T) {
	m := metrics.New()
	m.BadgeUnlocked("first_habit")
	m.CompletionToggled(true)
	m.CompletionToggled(false)
	m.Cheered()
	m.ObserveDashboard(15 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `kanso_badges_unlocked_total{badge="first_habit"} 1`)
	assert.Contains(t, body, `kanso_completions_toggled_total{direction="added"} 1`)
	assert.Contains(t, body, `kanso_completions_toggled_total{direction="removed"} 1`)
	assert.Contains(t, body, "kanso_cheers_total 1")
	assert.Contains(t, body, "kanso_dashboard_duration_seconds_count 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.BadgeUnlocked("x")
		m.CompletionToggled(true)
		m.Cheered()
		m.ObserveDashboard(time.Second)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
