/*
Package lifecycle implements save-pipeline mediation around the coordinator.

It owns the hook the surrounding framework would otherwise register: the
initial-state population runs once per validation attempt, before validation
rules, as an explicit call in the create/save pipeline rather than a callback
discovered by convention. It also serializes operations on the same record,
locally via refcounted locks and across replicas via an optional distributed
locker.
*/
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/statorhq/stator"
	"github.com/statorhq/stator/internal/logging"
	"github.com/statorhq/stator/pkg/domain"
	"github.com/statorhq/stator/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates record access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	coord    *stator.Coordinator
	store    ports.DocumentStore
	supplier ports.InitialStateSupplier

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker ports.DistributedLocker // Optional distributed locker
	logger *slog.Logger            // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new lifecycle Manager. The supplier computes the
// designated initial state for records that reach validation blank.
func NewManager(coord *stator.Coordinator, store ports.DocumentStore, supplier ports.InitialStateSupplier, opts ...Option) *Manager {
	m := &Manager{
		coord:    coord,
		store:    store,
		supplier: supplier,
		locks:    make(map[string]*lockEntry),
		logger:   logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Prepare is the explicit pre-validation call site: it populates the record's
// blank state field with the designated initial state, under the record lock.
// It runs once per validation attempt and is a no-op when the field is
// already set, so repeated attempts never clobber an earlier value.
func (m *Manager) Prepare(ctx context.Context, rec ports.Record) error {
	return m.WithLock(ctx, rec.ID(), func(ctx context.Context) error {
		m.coord.EnsureInitialState(ctx, rec, m.supplier)
		return nil
	})
}

// Save runs the full create/update pipeline: initial state, then a validating
// persist. It reports whether the store accepted the save.
func (m *Manager) Save(ctx context.Context, rec ports.Record) (bool, error) {
	var ok bool
	err := m.WithLock(ctx, rec.ID(), func(ctx context.Context) error {
		m.coord.EnsureInitialState(ctx, rec, m.supplier)
		var err error
		ok, err = m.store.Persist(ctx, rec, ports.PersistOptions{Validate: true})
		return err
	})
	return ok, err
}

// Transition commits a hard transition event: the durable state write runs
// under the record lock against the manager's store.
func (m *Manager) Transition(ctx context.Context, rec ports.Record, target domain.State) (domain.WriteOutcome, error) {
	var outcome domain.WriteOutcome
	err := m.WithLock(ctx, rec.ID(), func(ctx context.Context) error {
		var err error
		outcome, err = m.coord.WriteState(ctx, rec, target, m.store)
		return err
	})
	return outcome, err
}

// TransitionDeferred applies a soft transition event: the state changes in
// memory only and a later Save persists it.
func (m *Manager) TransitionDeferred(ctx context.Context, rec ports.Record, target domain.State) error {
	return m.WithLock(ctx, rec.ID(), func(ctx context.Context) error {
		m.coord.WriteStateDeferred(ctx, rec, target)
		return nil
	})
}

// Load retrieves a record from the store under its lock.
func (m *Manager) Load(ctx context.Context, id string) (*domain.Document, error) {
	var doc *domain.Document
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		doc, err = m.store.Load(ctx, id)
		return err
	})
	return doc, err
}

// Delete removes a record from the store under its lock.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// Store returns the underlying document store.
func (m *Manager) Store() ports.DocumentStore {
	return m.store
}

// WithLock executes a function while holding the lock for the record ID.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, 30*time.Second)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"record_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
