package rapport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/rapport/internal/logging"
	"github.com/aretw0/rapport/internal/runtime"
	"github.com/aretw0/rapport/pkg/adapters/file"
	loamAdapter "github.com/aretw0/rapport/pkg/adapters/loam"
	"github.com/aretw0/rapport/pkg/adapters/memory"
	"github.com/aretw0/rapport/pkg/catalog"
	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/graph"
	"github.com/aretw0/rapport/pkg/ports"
	"github.com/aretw0/rapport/pkg/session"
)

// Version is the rapport release.
const Version = "0.4.0"

// Engine is the high-level entry point for the rapport library.
// It wires the graph, the catalogue, the session manager and the interpreter.
type Engine struct {
	interpreter *runtime.Interpreter
	graph       *graph.Graph
	catalog     *catalog.Catalog
	sessions    *session.Manager
	loader      ports.GraphLoader
	store       ports.SessionStore

	graphOpts   []graph.Option
	sessionOpts []session.Option
	runtimeOpts []runtime.Option
	logger      *slog.Logger
	Name        string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom GraphLoader, bypassing path-based loading.
func WithLoader(l ports.GraphLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithCatalog sets the selection catalogue of multi-choice nodes.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithStore sets the session backend (default: in-memory).
func WithStore(s ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithSessionOptions passes options to the session Manager.
func WithSessionOptions(opts ...session.Option) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, opts...)
	}
}

// WithCommands sets the executor behind command options and action nodes.
func WithCommands(exec ports.CommandExecutor) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithCommands(exec))
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithMessages overrides the interpreter's own texts.
func WithMessages(m runtime.Messages) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMessages(m))
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEntryNode configures the initial node ID (default: "start").
func WithEntryNode(nodeID string) Option {
	return func(e *Engine) {
		e.graphOpts = append(e.graphOpts, graph.WithEntry(nodeID))
	}
}

// WithHomeNode configures the node rendered once the flow is complete.
func WithHomeNode(nodeID string) Option {
	return func(e *Engine) {
		e.graphOpts = append(e.graphOpts, graph.WithHome(nodeID))
	}
}

// New initializes a new Engine.
// path is a YAML graph file or a Loam directory of markdown nodes. If WithLoader is
// provided, path can be empty. Graphs with validation errors are rejected.
func New(path string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.loader == nil {
		if path == "" {
			return nil, fmt.Errorf("path is required when no custom loader is provided")
		}
		loader, err := OpenLoader(path)
		if err != nil {
			return nil, err
		}
		eng.loader = loader
	}
	if path != "" {
		eng.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		eng.logger = eng.logger.With("graph", eng.Name)
	}

	g, err := graph.Load(eng.loader, eng.graphOpts...)
	if err != nil {
		return nil, err
	}
	if eng.catalog == nil {
		eng.catalog = catalog.Empty()
	}
	if _, err := g.Validate(eng.catalog); err != nil {
		return nil, err
	}
	eng.graph = g

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	sessionOpts := append([]session.Option{
		session.WithEntry(g.Entry()),
		session.WithLogger(eng.logger),
	}, eng.sessionOpts...)
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	runtimeOpts := append([]runtime.Option{runtime.WithLogger(eng.logger)}, eng.runtimeOpts...)
	eng.interpreter = runtime.NewInterpreter(g, eng.catalog, eng.sessions, runtimeOpts...)
	return eng, nil
}

// OpenLoader picks the graph source for path: a directory is read through Loam,
// a file as a single YAML graph document.
func OpenLoader(path string) (ports.GraphLoader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	if info.IsDir() {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		return loamAdapter.Open(abs)
	}
	return file.NewLoader(path)
}

// Dispatch handles one inbound event for userID.
func (e *Engine) Dispatch(ctx context.Context, userID string, ev domain.Event) (domain.Instruction, error) {
	return e.interpreter.Dispatch(ctx, userID, ev)
}

// Render returns the current screen of userID.
func (e *Engine) Render(ctx context.Context, userID string) (domain.Instruction, error) {
	return e.interpreter.Render(ctx, userID)
}

// Session returns the freshest session of userID, including a write still pending after
// the store failed, or domain.ErrSessionNotFound.
func (e *Engine) Session(ctx context.Context, userID string) (*domain.Session, error) {
	return e.sessions.Load(ctx, userID)
}

// Reset forgets the user's session; the next event starts from the entry node.
func (e *Engine) Reset(ctx context.Context, userID string) error {
	err := e.sessions.Delete(ctx, userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	return err
}

// Run flushes pending session writes until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	return e.sessions.Run(ctx)
}

// Flush retries pending session writes once.
func (e *Engine) Flush(ctx context.Context) error {
	return e.sessions.Flush(ctx)
}

// Graph returns the loaded dialogue graph.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// Catalog returns the selection catalogue.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Loader returns the underlying GraphLoader used by the engine.
func (e *Engine) Loader() ports.GraphLoader { return e.loader }
