package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/statorhq/stator/pkg/domain"
	"github.com/statorhq/stator/pkg/ports"
)

// Store implements ports.DocumentStore using Redis.
// Each record is a hash keyed by prefix+ID. When a state index is configured,
// a per-state SET of record IDs is maintained transactionally alongside every
// persist, backing FindByState without scans.
type Store struct {
	client     *backend.Client
	prefix     string
	ttl        time.Duration
	indexField string

	validators []ports.ValidateFunc
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for persisted records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithStateIndex maintains a per-state index for the named field, so
// FindByState on that field is a set lookup instead of a scan.
func WithStateIndex(field string) Option {
	return func(s *Store) {
		s.indexField = field
	}
}

// WithValidators adds record validation rules, enforced on validating
// persists only. PersistOptions{Validate: false} bypasses them.
func WithValidators(validators ...ports.ValidateFunc) Option {
	return func(s *Store) {
		s.validators = append(s.validators, validators...)
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "stator:record:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) stateKey(field string, state domain.State) string {
	return s.prefix + "state:" + field + ":" + state.String()
}

// Persist saves the record's fields as a hash and updates the state index.
// Validation failures report a refused save; Redis failures are store faults
// and surface as errors.
func (s *Store) Persist(ctx context.Context, rec ports.Record, opts ports.PersistOptions) (bool, error) {
	if opts.Validate {
		for _, validate := range s.validators {
			if err := validate(rec); err != nil {
				return false, nil
			}
		}
	}

	fields := rec.Fields()
	id := rec.ID()

	// Read the previously indexed state before the write, so the record can
	// be moved out of its old index set in the same transaction.
	var previous string
	if s.indexField != "" {
		val, err := s.client.HGet(ctx, s.key(id), s.indexField).Result()
		if err != nil && err != backend.Nil {
			return false, fmt.Errorf("failed to read indexed state: %w", err)
		}
		previous = val
	}

	pipe := s.client.TxPipeline()

	// Full overwrite: stale fields from an earlier save must not survive.
	pipe.Del(ctx, s.key(id))
	if len(fields) > 0 {
		values := make(map[string]string, len(fields))
		for k, v := range fields {
			values[k] = v
		}
		pipe.HSet(ctx, s.key(id), values)
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(id), s.ttl)
	}

	if s.indexField != "" {
		current := fields[s.indexField]
		if previous != "" && previous != current {
			pipe.SRem(ctx, s.stateKey(s.indexField, domain.State(previous)), id)
		}
		if current != "" {
			pipe.SAdd(ctx, s.stateKey(s.indexField, domain.State(current)), id)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to save to redis: %w", err)
	}

	return true, nil
}

// Load retrieves the record from Redis.
func (s *Store) Load(ctx context.Context, id string) (*domain.Document, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrRecordNotFound
	}

	return domain.NewDocument(id, fields), nil
}

// Delete removes the record and its index membership.
func (s *Store) Delete(ctx context.Context, id string) error {
	var previous string
	if s.indexField != "" {
		val, err := s.client.HGet(ctx, s.key(id), s.indexField).Result()
		if err != nil && err != backend.Nil {
			return fmt.Errorf("failed to read indexed state: %w", err)
		}
		previous = val
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	if previous != "" {
		pipe.SRem(ctx, s.stateKey(s.indexField, domain.State(previous)), id)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// FindByState returns the IDs of records whose field holds the given state.
// The indexed field is answered from its SET; other fields fall back to a
// SCAN over the record keys.
func (s *Store) FindByState(ctx context.Context, field string, state domain.State) ([]string, error) {
	if field == s.indexField && s.indexField != "" {
		ids, err := s.client.SMembers(ctx, s.stateKey(field, state)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read state index: %w", err)
		}
		sort.Strings(ids)
		return ids, nil
	}

	var ids []string
	var cursor uint64
	statePrefix := s.prefix + "state:"
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan records: %w", err)
		}
		for _, key := range keys {
			if strings.HasPrefix(key, statePrefix) {
				continue // index sets share the prefix
			}
			val, err := s.client.HGet(ctx, key, field).Result()
			if err == backend.Nil {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read field %q: %w", field, err)
			}
			if val == state.String() {
				ids = append(ids, strings.TrimPrefix(key, s.prefix))
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Strings(ids)
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
