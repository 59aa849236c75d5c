// Package store holds the platform state document and serializes every
// mutation through a single writer.
//
// Readers see an immutable snapshot. Writers receive a private copy; the copy
// is persisted and swapped in only when the callback returns nil, so a failed
// transaction leaves no trace.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"phishsim/internal/models"
	dErrors "phishsim/pkg/domain-errors"
	"phishsim/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

// Transactor is the consumer-side view of the store used by services.
type Transactor interface {
	Read(ctx context.Context, fn func(st *State) error) error
	Write(ctx context.Context, fn func(st *State) error) error
}

// CommitHook receives the audit entries journaled by a committed write. Hooks
// run while the writer lock is held and must not block.
type CommitHook func(ctx context.Context, entries []*models.AuditLog)

type Store struct {
	mu        sync.Mutex
	current   atomic.Pointer[State]
	persister Persister
	logger    *slog.Logger
	clock     func() time.Time
	timeout   time.Duration
	hooks     []CommitHook
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the transaction clock.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithTxTimeout bounds writes whose context carries no deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// WithCommitHook registers a hook called after each durable write that
// journaled audit entries.
func WithCommitHook(h CommitHook) Option {
	return func(s *Store) {
		s.hooks = append(s.hooks, h)
	}
}

// Open loads the document from p, upgrades it to CurrentVersion and releases
// any dispatch reservations left by an interrupted process.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister: p,
		logger:    slog.Default(),
		clock:     time.Now,
		timeout:   defaultTxTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := p.Load(ctx)
	if err != nil {
		return nil, errors.Join(sentinel.ErrUnavailable, err)
	}

	var st *State
	dirty := false
	if raw == nil {
		st = newState()
		dirty = true
	} else {
		st = &State{}
		if err := json.Unmarshal(raw, st); err != nil {
			return nil, fmt.Errorf("decode state document: %w", err)
		}
		st.ensureTables()
		applied, err := migrate(st)
		if err != nil {
			return nil, err
		}
		if len(applied) > 0 {
			s.logger.InfoContext(ctx, "state document migrated",
				"version", st.Version,
				"steps", applied,
			)
			dirty = true
		}
	}

	if released := recoverInterrupted(st, s.clock().UTC()); released > 0 {
		s.logger.WarnContext(ctx, "released interrupted dispatch reservations",
			"campaigns", released,
		)
		dirty = true
	}
	st.rebuildIndexes()

	if dirty {
		doc, err := json.Marshal(st)
		if err != nil {
			return nil, fmt.Errorf("encode state document: %w", err)
		}
		if err := p.Save(ctx, doc); err != nil {
			return nil, errors.Join(sentinel.ErrUnavailable, err)
		}
	}
	s.current.Store(st)
	return s, nil
}

// Read runs fn against the latest committed snapshot. fn must not mutate st.
func (s *Store) Read(ctx context.Context, fn func(st *State) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}
	return fn(s.current.Load())
}

// Write runs fn against a private copy of the state. When fn returns nil the
// copy is persisted and becomes the committed state; otherwise it is
// discarded. Writes are strictly serialized.
func (s *Store) Write(ctx context.Context, fn func(st *State) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	work := s.current.Load().clone(s.clock().UTC())
	if err := fn(work); err != nil {
		return err
	}

	doc, err := json.Marshal(work)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode state")
	}
	if err := s.persister.Save(ctx, doc); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist state", "error", err)
		return dErrors.Wrap(errors.Join(sentinel.ErrUnavailable, err), dErrors.CodeInternal, "failed to persist state")
	}

	pending := work.pending
	work.pending = nil
	work.now = time.Time{}
	s.current.Store(work)

	if len(pending) > 0 {
		for _, h := range s.hooks {
			h(ctx, pending)
		}
	}
	return nil
}

// View runs fn in a read transaction and returns its result.
func View[T any](ctx context.Context, tx Transactor, fn func(st *State) (T, error)) (T, error) {
	var out T
	err := tx.Read(ctx, func(st *State) error {
		var err error
		out, err = fn(st)
		return err
	})
	return out, err
}

// Update runs fn in a write transaction and returns its result. The result
// is discarded when the transaction fails.
func Update[T any](ctx context.Context, tx Transactor, fn func(st *State) (T, error)) (T, error) {
	var out T
	err := tx.Write(ctx, func(st *State) error {
		var err error
		out, err = fn(st)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
