// Package process runs allow-listed local programs as dialogue commands.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// ErrNotRegistered is returned for command names missing from the allow-list.
var ErrNotRegistered = errors.New("process command not registered")

// DefaultTimeout bounds a single command run.
const DefaultTimeout = 10 * time.Second

// Runner executes registered processes. Only names on its allow-list can run.
//
// A process receives the user id in RAPPORT_USER_ID and the command name in
// RAPPORT_COMMAND. The first line of its stdout is the continuation node id;
// empty output continues with the node's successor.
type Runner struct {
	registry map[string]RegisteredProcess
	baseDir  string
	timeout  time.Duration
}

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string
	Env     map[string]string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from configuration.
func WithRegistry(procs []ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for _, p := range procs {
			if p.Name == "" || p.Command == "" {
				continue
			}
			r.registry[p.Name] = RegisteredProcess{Command: p.Command, Args: p.Args, Env: p.Environment}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithTimeout bounds each run. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted program to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Names returns the registered command names, sorted.
func (r *Runner) Names() []string {
	out := make([]string, 0, len(r.registry))
	for name := range r.registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Execute runs the process registered as name for userID and returns its continuation.
// User data travels in environment variables, never in argv, so input cannot inject flags.
func (r *Runner) Execute(ctx context.Context, userID, name string) (string, error) {
	proc, ok := r.registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.WaitDelay = time.Second

	env := cmd.Environ()
	for k, v := range proc.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = append(env, "RAPPORT_USER_ID="+userID, "RAPPORT_COMMAND="+name)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("command %s: %w", name, ctx.Err())
		}
		return "", fmt.Errorf("command %s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	out := strings.TrimSpace(stdout.String())
	if line, _, found := strings.Cut(out, "\n"); found {
		out = strings.TrimSpace(line)
	}
	return out, nil
}
