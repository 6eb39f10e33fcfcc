// Package cli wires configuration into a running rapport stack for the command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/rapport"
	"github.com/aretw0/rapport/internal/config"
	"github.com/aretw0/rapport/pkg/adapters/file"
	"github.com/aretw0/rapport/pkg/adapters/memory"
	"github.com/aretw0/rapport/pkg/adapters/process"
	redisAdapter "github.com/aretw0/rapport/pkg/adapters/redis"
	"github.com/aretw0/rapport/pkg/adapters/sqlite"
	"github.com/aretw0/rapport/pkg/catalog"
	"github.com/aretw0/rapport/pkg/observability"
	"github.com/aretw0/rapport/pkg/persistence/middleware"
	"github.com/aretw0/rapport/pkg/ports"
	"github.com/aretw0/rapport/pkg/registry"
	"github.com/aretw0/rapport/pkg/session"
)

// Stack is the engine and its collaborators built from a Config.
type Stack struct {
	Engine   *rapport.Engine
	Store    ports.SessionStore
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Redactor *middleware.Redactor

	closers []func() error
}

// Close releases backend connections.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// StoreBundle is an opened session backend.
type StoreBundle struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker
	Close  func() error
}

// OpenStore opens the configured backend and wraps it with encryption when a key is set.
func OpenStore(cfg config.StoreConfig) (*StoreBundle, error) {
	b := &StoreBundle{Close: func() error { return nil }}

	switch cfg.Driver {
	case "memory":
		b.Store = memory.NewStore()
	case "file":
		b.Store = file.New(cfg.Path)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		st, err := sqlite.New(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		b.Store, b.Close = st, st.Close
	case "redis":
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		st := redisAdapter.NewFromClient(client, redisAdapter.WithPrefix(cfg.Redis.Prefix))
		b.Store, b.Close = st, st.Close
		if cfg.Redis.Lock {
			b.Locker = redisAdapter.NewLocker(client, cfg.Redis.Prefix+"lock:")
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	if cfg.EncryptionKey == "" {
		return b, nil
	}
	mw, err := encryption(cfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Store = middleware.Chain(b.Store, mw)
	return b, nil
}

func encryption(cfg config.StoreConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(enc)
}

// OpenLoader opens the graph source named by cfg. A loam source must be a directory
// and a yaml source a file; rapport.OpenLoader does the rest.
func OpenLoader(cfg config.GraphConfig) (ports.GraphLoader, error) {
	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	if loam := cfg.Source == "loam"; loam != info.IsDir() {
		kind := "a file"
		if loam {
			kind = "a directory"
		}
		return nil, fmt.Errorf("graph.path %s: %s source needs %s", cfg.Path, cfg.Source, kind)
	}
	return rapport.OpenLoader(cfg.Path)
}

// Build opens the store, loads graph and catalogue and assembles the engine.
func Build(cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	stack := &Stack{Registry: prometheus.NewRegistry()}
	stack.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	stack.Metrics = observability.NewMetrics(stack.Registry)

	redactor, err := middleware.NewRedactor(cfg.Session.Redact)
	if err != nil {
		return nil, fmt.Errorf("session.redact: %w", err)
	}
	stack.Redactor = redactor

	cat := catalog.Empty()
	if cfg.Catalog.Path != "" {
		if cat, err = catalog.Load(cfg.Catalog.Path); err != nil {
			return nil, err
		}
	}

	loader, err := OpenLoader(cfg.Graph)
	if err != nil {
		return nil, err
	}

	bundle, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	stack.Store = bundle.Store
	stack.closers = append(stack.closers, bundle.Close)

	sessionOpts := []session.Option{
		session.WithRetry(session.Retry{
			Attempts:   cfg.Store.Retry.Attempts,
			Backoff:    cfg.Store.Retry.Backoff,
			MaxBackoff: cfg.Store.Retry.MaxBackoff,
		}),
		session.WithFlushInterval(cfg.Store.FlushInterval),
		session.WithActivityLimit(cfg.Session.ActivityLimit),
		session.WithLockTTL(cfg.Session.LockTTL),
		session.WithPersistFailureHook(stack.Metrics.PersistFailed),
	}
	if bundle.Locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(bundle.Locker))
	}

	opts := []rapport.Option{
		rapport.WithLoader(loader),
		rapport.WithCatalog(cat),
		rapport.WithStore(bundle.Store),
		rapport.WithSessionOptions(sessionOpts...),
		rapport.WithCommands(Commands(cfg.Commands, logger)),
		rapport.WithLifecycleHooks(stack.Metrics.Hooks(logger)),
		rapport.WithMessages(cfg.Messages),
		rapport.WithLogger(logger),
	}
	if cfg.Graph.Entry != "" {
		opts = append(opts, rapport.WithEntryNode(cfg.Graph.Entry))
	}
	if cfg.Graph.Home != "" {
		opts = append(opts, rapport.WithHomeNode(cfg.Graph.Home))
	}

	eng, err := rapport.New(cfg.Graph.Path, opts...)
	if err != nil {
		stack.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	stack.Engine = eng
	return stack, nil
}

// Commands returns the default commands plus the configured external processes.
// A configured process replaces a default command of the same name.
func Commands(cfg config.CommandsConfig, logger *slog.Logger) *registry.Registry {
	r := DefaultCommands(logger)
	runner := process.NewRunner(
		process.WithRegistry(cfg.Processes),
		process.WithBaseDir(cfg.Dir),
		process.WithTimeout(cfg.Timeout),
	)
	for _, name := range runner.Names() {
		r.Register(name, func(ctx context.Context, userID string) (string, error) {
			return runner.Execute(ctx, userID, name)
		})
	}
	return r
}

// DefaultCommands registers the commands the bundled graphs refer to.
func DefaultCommands(logger *slog.Logger) *registry.Registry {
	r := registry.NewRegistry()
	r.Register("publish_profile", func(ctx context.Context, userID string) (string, error) {
		logger.InfoContext(ctx, "profile published", "user_id", userID)
		return "", nil
	})
	return r
}
