package observability

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/averycross/waygate/pkg/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_HooksFeedInstruments(t *testing.T) {
	m := NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnPhaseEnd(ctx, &domain.PhaseEvent{Phase: domain.PhaseLoad, Duration: 120 * time.Millisecond})
	hooks.OnAttempt(ctx, &domain.AttemptEvent{Attempt: domain.PlacementAttempt{Number: 1, DistanceError: 0.2}})
	hooks.OnAttempt(ctx, &domain.AttemptEvent{Attempt: domain.PlacementAttempt{Number: 2, Overridden: true}})
	hooks.OnFinished(ctx, &domain.TransitionResult{Success: true})
	hooks.OnFinished(ctx, &domain.TransitionResult{Success: false, UsedShim: true})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.overrides))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("success", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("failure", "true")))
}

func TestMetrics_HandlerExposesPrivateRegistry(t *testing.T) {
	m := NewMetrics()
	m.Hooks().OnFinished(context.Background(), &domain.TransitionResult{Success: true})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "waygate_transitions_total"))
	assert.True(t, strings.Contains(body, "waygate_placement_attempts_total"))
}

func TestMetrics_SeparateInstancesDoNotCollide(t *testing.T) {
	// Two engines in one process must not panic on duplicate registration.
	a := NewMetrics()
	b := NewMetrics()
	assert.NotSame(t, a.Registry(), b.Registry())
}
