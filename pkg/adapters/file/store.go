package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/statorhq/stator/pkg/domain"
	"github.com/statorhq/stator/pkg/ports"
)

// Store implements ports.DocumentStore using the local filesystem.
// It stores records as JSON field maps in a configured directory.
type Store struct {
	BasePath string

	validators []ports.ValidateFunc
}

// Option configures the Store.
type Option func(*Store)

// WithValidators adds record validation rules, enforced on validating
// persists only. PersistOptions{Validate: false} bypasses them.
func WithValidators(validators ...ports.ValidateFunc) Option {
	return func(s *Store) {
		s.validators = append(s.validators, validators...)
	}
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".stator/records".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".stator", "records")
	}
	s := &Store{BasePath: basePath}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Persist saves the record's fields to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it
// to the destination. Validation failures report a refused save; filesystem
// failures are store faults and surface as errors.
func (s *Store) Persist(ctx context.Context, rec ports.Record, opts ports.PersistOptions) (bool, error) {
	if rec.ID() == "" {
		return false, fmt.Errorf("record ID cannot be empty")
	}

	if opts.Validate {
		for _, validate := range s.validators {
			if err := validate(rec); err != nil {
				return false, nil
			}
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return false, fmt.Errorf("failed to ensure record directory: %w", err)
	}

	destPath := filepath.Join(s.BasePath, rec.ID()+".json")

	data, err := json.MarshalIndent(rec.Fields(), "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal record: %w", err)
	}

	// Same directory so the rename stays on one filesystem (required for
	// atomic rename).
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+rec.ID()+"-*.json")
	if err != nil {
		return false, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()    // Ensure closed
		_ = os.Remove(tmpPath) // Remove if still exists (not renamed)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return false, fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return false, fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// Close before rename (cannot rename an open file on Windows).
	if err := tmpFile.Close(); err != nil {
		return false, fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists, so remove it first. The
	// delete+rename window is acceptable compared to a partial write.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return false, fmt.Errorf("failed to remove existing record file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return false, fmt.Errorf("failed to rename temp file to record file: %w", err)
	}

	return true, nil
}

// Load retrieves the record from its JSON file.
func (s *Store) Load(ctx context.Context, id string) (*domain.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("record ID cannot be empty")
	}

	filePath := filepath.Join(s.BasePath, id+".json")

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record fields: %w", err)
	}

	return domain.NewDocument(id, fields), nil
}

// Delete removes the record file.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("record ID cannot be empty")
	}

	filePath := filepath.Join(s.BasePath, id+".json")

	err := os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete record file: %w", err)
	}

	return nil
}

// FindByState returns the IDs of records whose field holds the given state,
// by scanning the record directory.
func (s *Store) FindByState(ctx context.Context, field string, state domain.State) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name := entry.Name()
		id := name[:len(name)-len(".json")]

		doc, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if doc.Get(field) == state.String() {
			ids = append(ids, id)
		}
	}

	return ids, nil
}
