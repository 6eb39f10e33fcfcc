package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/rapport/pkg/domain"
)

// Metrics holds the rapport collectors.
type Metrics struct {
	NodeVisits     *prometheus.CounterVec
	Commits        *prometheus.CounterVec
	Completions    prometheus.Counter
	Dispatches     *prometheus.CounterVec
	PersistFailure prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rapport_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"node_id"},
		),
		Commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rapport_field_commits_total",
				Help: "Total number of committed profile fields",
			},
			[]string{"field"},
		),
		Completions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rapport_profile_complete_commits_total",
			Help: "Commits after which every required field was filled",
		}),
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rapport_dispatches_total",
				Help: "Handled events by event kind and outcome",
			},
			[]string{"event", "outcome"},
		),
		PersistFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rapport_session_persist_failures_total",
			Help: "Session writes that gave up after retrying",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.NodeVisits, m.Commits, m.Completions, m.Dispatches, m.PersistFailure)
	}
	return m
}

// Hooks records metrics and, when logger is not nil, logs every lifecycle event at debug level.
func (m *Metrics) Hooks(logger *slog.Logger) domain.LifecycleHooks {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "user_id", e.UserID, "node_id", e.NodeID, "kind", e.Kind)
			m.NodeVisits.WithLabelValues(e.NodeID).Inc()
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_leave", "user_id", e.UserID, "node_id", e.NodeID)
		},
		OnCommit: func(ctx context.Context, e *domain.CommitEvent) {
			logger.DebugContext(ctx, "field_commit", "user_id", e.UserID, "field", e.Field, "complete", e.Complete)
			m.Commits.WithLabelValues(e.Field).Inc()
			if e.Complete {
				m.Completions.Inc()
			}
		},
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			m.Dispatches.WithLabelValues(string(e.Event), string(e.Outcome)).Inc()
		},
	}
}

// PersistFailed counts a write that gave up. Its signature matches session.WithPersistFailureHook.
func (m *Metrics) PersistFailed(string, error) {
	m.PersistFailure.Inc()
}
