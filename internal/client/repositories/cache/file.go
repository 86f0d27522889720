package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/statsync/internal/client/codec"
	"github.com/dmitrijs2005/statsync/internal/client/models"
	"github.com/dmitrijs2005/statsync/internal/filex"
	"github.com/dmitrijs2005/statsync/internal/logging"
	"github.com/dmitrijs2005/statsync/internal/resource"
)

// Path returns the cache file location for a prefix and a stable user or
// account key.
func Path(dataRoot, prefix, key string) string {
	return filepath.Join(dataRoot, prefix+"_"+key+".json")
}

// FileStore keeps one repository in a single binary file.
type FileStore struct {
	path     string
	database resource.Database
	codecs   *codec.Registry
	logger   logging.Logger
}

// NewFileStore returns a store for database at path. Payloads are converted
// with the codec registered for database in codecs.
func NewFileStore(path string, database resource.Database, codecs *codec.Registry, logger logging.Logger) *FileStore {
	if logger == nil {
		logger = logging.Nop()
	}
	return &FileStore{
		path:     path,
		database: database,
		codecs:   codecs,
		logger:   logger.With("module", "cache", "path", path),
	}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(ctx context.Context, snap models.Snapshot) error {
	if snap.Database != s.database {
		return fmt.Errorf("save %s snapshot into %s store: %w", snap.Database, s.database, models.ErrInvalidRepo)
	}
	c, err := s.codecs.Lookup(s.database)
	if err != nil {
		return err
	}
	blob, err := encodeSnapshot(c, snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if _, err := filex.EnsureDir(filepath.Dir(s.path)); err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(s.path, blob, 0o600); err != nil {
		return err
	}
	s.logger.Debug(ctx, "cache written", "records", len(snap.Records), "bytes", len(blob))
	return nil
}

func (s *FileStore) Load(ctx context.Context) (models.Snapshot, error) {
	blob, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info(ctx, "no cache file, full pull required")
		return models.Snapshot{Database: s.database}, nil
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read cache: %w", err)
	}

	c, err := s.codecs.Lookup(s.database)
	if err != nil {
		return models.Snapshot{}, err
	}
	snap, err := decodeSnapshot(c, s.database, blob)
	if err != nil {
		s.logger.Error(ctx, "cache unreadable, full pull required", "error", err)
		return models.Snapshot{}, err
	}
	return snap, nil
}

// Remove deletes the cache file. A missing file is not an error.
func (s *FileStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cache: %w", err)
	}
	return nil
}
