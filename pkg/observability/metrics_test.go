package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rapport/pkg/domain"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	hooks := m.Hooks(nil)
	ctx := context.Background()

	hooks.OnNodeEnter(ctx, &domain.NodeEvent{UserID: "u1", NodeID: "age"})
	hooks.OnNodeEnter(ctx, &domain.NodeEvent{UserID: "u2", NodeID: "age"})
	hooks.OnNodeLeave(ctx, &domain.NodeEvent{UserID: "u1", NodeID: "age"})
	hooks.OnCommit(ctx, &domain.CommitEvent{UserID: "u1", Field: "age"})
	hooks.OnCommit(ctx, &domain.CommitEvent{UserID: "u1", Field: "location", Complete: true})
	hooks.OnDispatch(ctx, &domain.DispatchEvent{Event: domain.EventFreeText, Outcome: domain.InstructionRetry})
	m.PersistFailed("u1", errors.New("disk full"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodeVisits.WithLabelValues("age")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commits.WithLabelValues("location")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Completions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("free_text", "retry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailure))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewMetrics_Unregistered(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(nil)
		NewMetrics(nil)
	})
}
