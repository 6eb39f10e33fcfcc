package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/rapport/internal/logging"
	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/ports"
)

// DefaultEntry is the node new sessions start at when no entry is configured.
const DefaultEntry = "start"

// DefaultLockTTL bounds how long a crashed replica can hold a distributed lock.
const DefaultLockTTL = 30 * time.Second

// DefaultFlushInterval is how often Run retries pending writes.
const DefaultFlushInterval = 5 * time.Second

// Retry is the backoff policy for durable writes.
type Retry struct {
	// Attempts is the total number of writes tried before giving up. Values below 1 mean 1.
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// DefaultRetry tries three times, doubling from 50ms.
var DefaultRetry = Retry{Attempts: 3, Backoff: 50 * time.Millisecond, MaxBackoff: time.Second}

// Mutator transforms a working copy of a session.
// Returning (nil, nil) signals "no change": nothing is written and the stored session stands.
type Mutator func(*domain.Session) (*domain.Session, error)

// PersistError reports a mutation that was applied in memory but could not be written.
// The mutation stays pending and is retried by Flush.
type PersistError struct {
	UserID   string
	Attempts int
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist session %q failed after %d attempt(s): %v", e.UserID, e.Attempts, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// lockEntry is a per-user ticket queue. The holder runs; waiters are granted the lock
// in arrival order by closing their channel.
type lockEntry struct {
	held    bool
	waiters []chan struct{}
	refs    int
}

// Manager serialises every read-modify-write of a user's session.
// Locks are per user and reference counted so idle users cost nothing.
// Writes that exhaust the retry policy are kept in a pending buffer which is the base
// for that user's next update, so no accepted mutation is lost.
type Manager struct {
	store ports.SessionStore
	entry string

	mu    sync.Mutex
	locks map[string]*lockEntry

	pendingMu sync.Mutex
	pending   map[string]*domain.Session

	locker        ports.DistributedLocker
	lockTTL       time.Duration
	retry         Retry
	flushInterval time.Duration
	activityLimit int
	onPersistFail func(userID string, err error)
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithEntry sets the node new sessions start at.
func WithEntry(nodeID string) Option {
	return func(m *Manager) {
		m.entry = nodeID
	}
}

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock lease.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithRetry sets the write retry policy.
func WithRetry(r Retry) Option {
	return func(m *Manager) {
		m.retry = r
	}
}

// WithFlushInterval sets how often Run retries pending writes.
func WithFlushInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.flushInterval = d
	}
}

// WithActivityLimit caps each session's activity log.
func WithActivityLimit(n int) Option {
	return func(m *Manager) {
		m.activityLimit = n
	}
}

// WithPersistFailureHook is called once per update whose write gave up.
func WithPersistFailureHook(fn func(userID string, err error)) Option {
	return func(m *Manager) {
		m.onPersistFail = fn
	}
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new session Manager over the given store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		entry:         DefaultEntry,
		locks:         make(map[string]*lockEntry),
		pending:       make(map[string]*domain.Session),
		lockTTL:       DefaultLockTTL,
		retry:         DefaultRetry,
		flushInterval: DefaultFlushInterval,
		activityLimit: domain.DefaultActivityLimit,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Entry returns the node new sessions start at.
func (m *Manager) Entry() string { return m.entry }

// ActivityLimit returns the configured activity log cap.
func (m *Manager) ActivityLimit() int { return m.activityLimit }

// lock takes the user's turn, waiting behind earlier callers in FIFO order.
// A caller whose ctx ends while queued leaves the queue without running.
func (m *Manager) lock(ctx context.Context, userID string) error {
	m.mu.Lock()
	entry, exists := m.locks[userID]
	if !exists {
		entry = &lockEntry{}
		m.locks[userID] = entry
	}
	entry.refs++
	if !entry.held {
		entry.held = true
		m.mu.Unlock()
		return nil
	}
	turn := make(chan struct{})
	entry.waiters = append(entry.waiters, turn)
	m.mu.Unlock()

	select {
	case <-turn:
		return nil
	case <-ctx.Done():
	}

	m.mu.Lock()
	for i, w := range entry.waiters {
		if w == turn {
			entry.waiters = append(entry.waiters[:i], entry.waiters[i+1:]...)
			entry.refs--
			m.mu.Unlock()
			return ctx.Err()
		}
	}
	m.mu.Unlock()
	// The turn was granted while ctx ended; pass it on.
	m.unlock(userID)
	return ctx.Err()
}

// unlock hands the turn to the oldest waiter, or frees the entry when nobody waits.
func (m *Manager) unlock(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[userID]
	if !exists {
		return
	}
	entry.refs--
	if len(entry.waiters) > 0 {
		next := entry.waiters[0]
		entry.waiters = entry.waiters[1:]
		close(next)
		return
	}
	entry.held = false
	if entry.refs <= 0 {
		delete(m.locks, userID)
	}
}

// WithLock executes fn while holding the lock for the user.
// Work for one user runs one at a time, in the order callers arrived.
func (m *Manager) WithLock(ctx context.Context, userID string, fn func(context.Context) error) error {
	if err := m.lock(ctx, userID); err != nil {
		return err
	}
	defer m.unlock(userID)

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, userID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"user_id", userID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// current returns the freshest known session: pending, stored, or new. Caller holds the lock.
func (m *Manager) current(ctx context.Context, userID string) (*domain.Session, error) {
	if s, ok := m.pendingFor(userID); ok {
		return s, nil
	}
	s, err := m.store.Load(ctx, userID)
	if err == nil {
		return s, nil
	}
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.NewSession(userID, m.entry), nil
	}
	return nil, fmt.Errorf("load session %q: %w", userID, err)
}

// Get returns the user's session, or a fresh one positioned at the entry node.
// A missing session is not an error; only backend failures are returned.
// The fresh session is not written until the first Update.
func (m *Manager) Get(ctx context.Context, userID string) (*domain.Session, error) {
	var out *domain.Session
	err := m.WithLock(ctx, userID, func(ctx context.Context) error {
		s, err := m.current(ctx, userID)
		if err != nil {
			return err
		}
		out = s.Clone()
		return nil
	})
	return out, err
}

// Load returns the user's freshest session: a pending write, else the stored one.
// Unlike Get it does not invent a session; a user known to neither yields
// domain.ErrSessionNotFound.
func (m *Manager) Load(ctx context.Context, userID string) (*domain.Session, error) {
	var out *domain.Session
	err := m.WithLock(ctx, userID, func(ctx context.Context) error {
		if s, ok := m.pendingFor(userID); ok {
			out = s.Clone()
			return nil
		}
		s, err := m.store.Load(ctx, userID)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

// Update applies mutate to a deep copy of the user's session and persists the result.
// A mutator error leaves the session untouched. When the write gives up, the new session
// is returned together with a *PersistError and kept pending for Flush.
func (m *Manager) Update(ctx context.Context, userID string, mutate Mutator) (*domain.Session, error) {
	var out *domain.Session
	err := m.WithLock(ctx, userID, func(ctx context.Context) error {
		base, err := m.current(ctx, userID)
		if err != nil {
			return err
		}

		next, err := mutate(base.Clone())
		if err != nil {
			return err
		}
		if next == nil {
			out = base.Clone()
			return nil
		}

		next.UserID = userID
		next.UpdatedAt = m.now()
		if next.CreatedAt.IsZero() {
			next.CreatedAt = next.UpdatedAt
		}
		out = next.Clone()

		if err := m.persist(ctx, userID, next); err != nil {
			m.setPending(userID, next)
			return err
		}
		m.clearPending(userID)
		return nil
	})
	return out, err
}

// persist writes s with the retry policy. Caller holds the lock.
func (m *Manager) persist(ctx context.Context, userID string, s *domain.Session) error {
	attempts := m.retry.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := m.retry.Backoff

	var lastErr error
	tried := 1
	for ; ; tried++ {
		lastErr = m.store.Save(ctx, userID, s)
		if lastErr == nil {
			return nil
		}
		m.logger.Debug("Session write failed", "user_id", userID, "attempt", tried, "err", lastErr)

		if tried >= attempts {
			break
		}
		if err := sleep(ctx, backoff); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
		backoff *= 2
		if m.retry.MaxBackoff > 0 && backoff > m.retry.MaxBackoff {
			backoff = m.retry.MaxBackoff
		}
	}

	perr := &PersistError{UserID: userID, Attempts: tried, Err: lastErr}
	m.logger.Error("Session write gave up; mutation kept pending", "user_id", userID, "attempts", tried, "err", lastErr)
	if m.onPersistFail != nil {
		m.onPersistFail(userID, perr)
	}
	return perr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *Manager) pendingFor(userID string) (*domain.Session, bool) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	s, ok := m.pending[userID]
	return s, ok
}

func (m *Manager) setPending(userID string, s *domain.Session) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	m.pending[userID] = s
}

func (m *Manager) clearPending(userID string) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	delete(m.pending, userID)
}

func (m *Manager) pendingIDs() []string {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	ids := make([]string, 0, len(m.pending))
	for id := range m.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Pending returns how many users have writes awaiting a successful flush.
func (m *Manager) Pending() int {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	return len(m.pending)
}

// Flush retries every pending write once per user, under that user's lock.
func (m *Manager) Flush(ctx context.Context) error {
	var errs []error
	for _, id := range m.pendingIDs() {
		err := m.WithLock(ctx, id, func(ctx context.Context) error {
			s, ok := m.pendingFor(id)
			if !ok {
				return nil
			}
			if err := m.store.Save(ctx, id, s); err != nil {
				return &PersistError{UserID: id, Attempts: 1, Err: err}
			}
			m.clearPending(id)
			m.logger.Info("Pending session flushed", "user_id", id)
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run flushes pending writes every flush interval until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if m.Pending() == 0 {
				continue
			}
			if err := m.Flush(ctx); err != nil {
				m.logger.Warn("Pending flush incomplete", "pending", m.Pending(), "err", err)
			}
		}
	}
}

// Delete removes the user's session, including any pending write.
func (m *Manager) Delete(ctx context.Context, userID string) error {
	return m.WithLock(ctx, userID, func(ctx context.Context) error {
		m.clearPending(userID)
		return m.store.Delete(ctx, userID)
	})
}

// List returns stored user ids plus those with pending writes.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, id := range m.pendingIDs() {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}
