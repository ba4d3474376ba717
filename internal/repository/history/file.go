package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/package-installer/internal/config"
	"github.com/oshokin/package-installer/internal/domain/install"
)

// Repository defines persistence operations for installation records.
type Repository interface {
	Append(ctx context.Context, record *install.Record) error
	List(ctx context.Context) ([]*install.Record, error)
}

// FileRepository keeps installation records in a YAML file on disk.
type FileRepository struct {
	// path is the filesystem location of the history file.
	path string
	// mu protects concurrent access to the history file.
	mu sync.Mutex
}

// errRecordIsNotSet is returned when Append receives nil.
var errRecordIsNotSet = errors.New("record is not set")

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the history file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Append adds a record to the end of the history.
func (r *FileRepository) Append(_ context.Context, record *install.Record) error {
	if record == nil {
		return errRecordIsNotSet
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}

	records = append(records, record)

	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}

	return nil
}

// List returns all records, oldest first. A missing file is an empty history.
func (r *FileRepository) List(_ context.Context) ([]*install.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAt.Before(records[j].StartedAt)
	})

	return records, nil
}

// load reads the history file; the caller holds the lock.
func (r *FileRepository) load() ([]*install.Record, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read history file: %w", err)
	}

	var records []*install.Record
	if err = yaml.Unmarshal(contents, &records); err != nil {
		return nil, fmt.Errorf("decode history file: %w", err)
	}

	return records, nil
}
