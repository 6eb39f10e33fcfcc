package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/rapport"
	"github.com/aretw0/rapport/internal/presentation/tui"
)

// ChatOptions configures a terminal conversation.
type ChatOptions struct {
	UserID   string
	Headless bool
	Fresh    bool
	Input    io.Reader
	Output   io.Writer
}

// RunChat talks to the engine over the terminal until EOF, "exit" or a signal.
// Pending session writes are flushed before it returns.
func RunChat(ctx context.Context, eng *rapport.Engine, opts ChatOptions) error {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.UserID == "" {
		opts.UserID = "local"
	}
	if opts.Fresh {
		if err := eng.Reset(ctx, opts.UserID); err != nil {
			return fmt.Errorf("reset session: %w", err)
		}
	}

	r := rapport.NewRunner()
	r.Input = opts.Input
	r.Output = opts.Output
	r.Headless = opts.Headless
	r.UserID = opts.UserID
	if !opts.Headless {
		tui.PrintBanner(opts.Output)
		if tui.IsInteractive() {
			r.Renderer = tui.NewRenderer()
		}
	}

	runErr := r.Run(ctx, eng)
	if err := eng.Flush(context.WithoutCancel(ctx)); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("flush sessions: %w", err))
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// Unlike signal.NotifyContext it remembers which signal arrived.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() { signal.Stop(sc.sigCh) })
	}()
	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}
