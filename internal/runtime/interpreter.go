package runtime

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"

	"github.com/aretw0/rapport/internal/logging"
	"github.com/aretw0/rapport/pkg/catalog"
	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/graph"
	"github.com/aretw0/rapport/pkg/ports"
	"github.com/aretw0/rapport/pkg/profile"
	"github.com/aretw0/rapport/pkg/session"
)

// maxSoftSteps bounds how many prompt and action nodes a single dispatch may pass through.
const maxSoftSteps = 32

// Interpreter drives sessions through the dialogue graph, one event at a time.
// It is safe for concurrent use; per-user ordering is provided by the session Manager.
type Interpreter struct {
	graph      *graph.Graph
	catalog    *catalog.Catalog
	sessions   *session.Manager
	projection *profile.Projection

	commands ports.CommandExecutor
	hooks    domain.LifecycleHooks
	messages Messages
	logger   *slog.Logger

	patterns sync.Map // pattern string -> *regexp.Regexp
}

// Option configures the Interpreter.
type Option func(*Interpreter)

// WithCommands sets the executor behind command options and action nodes.
func WithCommands(exec ports.CommandExecutor) Option {
	return func(i *Interpreter) {
		i.commands = exec
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(i *Interpreter) {
		i.hooks = hooks
	}
}

// WithMessages overrides the user-facing texts. Blank entries keep their defaults.
func WithMessages(m Messages) Option {
	return func(i *Interpreter) {
		i.messages = m.withDefaults()
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInterpreter creates an interpreter over an immutable graph and catalogue.
// A nil catalogue behaves as an empty one.
func NewInterpreter(g *graph.Graph, cat *catalog.Catalog, sessions *session.Manager, opts ...Option) *Interpreter {
	if cat == nil {
		cat = catalog.Empty()
	}
	i := &Interpreter{
		graph:      g,
		catalog:    cat,
		sessions:   sessions,
		projection: g.Projection(),
		messages:   DefaultMessages(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Graph returns the graph the interpreter runs.
func (i *Interpreter) Graph() *graph.Graph { return i.graph }

// Sessions returns the session manager.
func (i *Interpreter) Sessions() *session.Manager { return i.sessions }

// Dispatch handles one inbound event for userID and returns what to show next.
//
// Ignored and rejected events still yield an Instruction re-rendering the current screen.
// Failures inside the dialogue (a command error, a node missing from the graph) leave the
// session untouched and yield an InstructionError with a generic message; the returned
// error is only non-nil when the session could not be read at all.
func (i *Interpreter) Dispatch(ctx context.Context, userID string, ev domain.Event) (domain.Instruction, error) {
	if err := ev.Validate(); err != nil {
		i.logger.Warn("ignoring malformed event", "user_id", userID, "event", ev.Kind, "err", err)
		instr, rerr := i.Render(ctx, userID)
		if rerr == nil && instr.Kind != domain.InstructionError {
			instr.Kind = domain.InstructionNoop
		}
		i.emitDispatch(ctx, userID, ev.Kind, instr.Kind)
		return instr, rerr
	}

	instr, err := i.step(ctx, userID, ev.Kind, func(t *turn) error {
		t.ev = ev
		return t.run()
	})
	i.emitDispatch(ctx, userID, ev.Kind, instr.Kind)
	return instr, err
}

// Render returns the current screen of userID without consuming an event.
// A session resting on a prompt or action node is first advanced to the next node that
// waits for input.
func (i *Interpreter) Render(ctx context.Context, userID string) (domain.Instruction, error) {
	s, err := i.sessions.Get(ctx, userID)
	if err != nil {
		i.logger.Error("failed to load session", "user_id", userID, "err", err)
		return i.failure(userID, nil), err
	}
	if s.IsIdle() {
		return i.render(s, nil), nil
	}
	node, err := i.graph.Resolve(s.CurrentNodeID)
	if err != nil {
		i.logger.Error("session points outside the graph", "user_id", userID, "node_id", s.CurrentNodeID, "err", err)
		return i.failure(userID, s), nil
	}
	if node.Kind.WaitsForInput() {
		return i.render(s, nil), nil
	}
	return i.step(ctx, userID, "", func(t *turn) error {
		return t.settle()
	})
}

// step runs fn against the user's session under the Manager's lock and renders the result.
// An empty kind skips the activity log.
func (i *Interpreter) step(ctx context.Context, userID string, kind domain.EventKind, fn func(*turn) error) (domain.Instruction, error) {
	var t *turn
	s, err := i.sessions.Update(ctx, userID, func(s *domain.Session) (*domain.Session, error) {
		t = &turn{in: i, ctx: ctx, s: s}
		from := s.CurrentNodeID
		if err := fn(t); err != nil {
			return nil, err
		}
		if !t.changed {
			return nil, nil
		}
		if kind != "" {
			s.Record(kind, from, t.ev.Describe(), i.sessions.ActivityLimit())
		}
		return s, nil
	})

	var perr *session.PersistError
	switch {
	case err == nil:
	case errors.As(err, &perr):
		// The mutation stays pending in the Manager and is retried by Flush.
	default:
		return i.abort(ctx, userID, err)
	}

	t.flushHooks(ctx)
	return i.render(s, t), nil
}

// abort logs a failed step and renders the untouched session with a generic message.
func (i *Interpreter) abort(ctx context.Context, userID string, err error) (domain.Instruction, error) {
	var cmdErr *CommandError
	switch {
	case errors.As(err, &cmdErr):
		i.logger.Error("command failed", "user_id", userID, "node_id", cmdErr.NodeID, "command", cmdErr.Command, "err", cmdErr.Err)
	case errors.Is(err, domain.ErrUnknownNode), errors.Is(err, ErrTooManySteps):
		i.logger.Error("dialogue graph error", "user_id", userID, "err", err)
	default:
		i.logger.Error("failed to dispatch event", "user_id", userID, "err", err)
		return i.failure(userID, nil), err
	}

	s, gerr := i.sessions.Get(ctx, userID)
	if gerr != nil {
		return i.failure(userID, nil), gerr
	}
	return i.failure(userID, s), nil
}

func (i *Interpreter) emitDispatch(ctx context.Context, userID string, kind domain.EventKind, outcome domain.InstructionKind) {
	if i.hooks.OnDispatch == nil {
		return
	}
	i.hooks.OnDispatch(ctx, &domain.DispatchEvent{UserID: userID, Event: kind, Outcome: outcome})
}

func (i *Interpreter) compiled(pattern string) (*regexp.Regexp, error) {
	if re, ok := i.patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	i.patterns.Store(pattern, re)
	return re, nil
}
