// Package capture persists uploaded file content for forensic review. The
// capture store is durable, shared across all sessions and protocols, and
// entirely disjoint from any jail tree: nothing a client does inside the
// jail can reach the bytes captured here.
package capture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"

	"decoyfs/internal/store"
)

// Store is the persistent upload store: a host directory guarded by a file
// lock against other processes, with exclusive-create capture files and an
// optional SQLite index of upload records.
type Store struct {
	dir   string
	fs    *store.Store
	lock  *flock.Flock
	index *Index
}

// NewStore opens (creating if needed) the capture store at dir and takes
// the process-exclusive lock on it. Two processes capturing into the same
// directory would race on sanitized names, so the second opener fails fast.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create capture dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, ".decoyfs.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock capture dir: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("capture dir %s is locked by another process", dir)
	}
	log.Debugf("[Capture] store opened at %s", dir)
	return &Store{
		dir:  dir,
		fs:   store.NewOS(dir),
		lock: lock,
	}, nil
}

// WithIndex attaches an upload index to the store. Records are written on
// every successful capture close.
func (s *Store) WithIndex(idx *Index) *Store {
	s.index = idx
	return s
}

// Dir returns the host directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// Index returns the attached upload index, or nil.
func (s *Store) Index() *Index {
	return s.index
}

// Open creates a new capture handle for the given sanitized name. An
// existing entry fails with common.ErrExists — a same-second collision is
// surfaced to the caller, never silently overwritten.
func (s *Store) Open(sanitizedName string) (*Writer, error) {
	f, err := s.fs.OpenExclusive(sanitizedName)
	if err != nil {
		return nil, err
	}
	log.Debugf("[Capture] opened %q", sanitizedName)
	return &Writer{name: sanitizedName, f: f}, nil
}

// ReadBack returns the full captured content for a stored name. Used by
// review tooling and tests; sessions never read captures.
func (s *Store) ReadBack(sanitizedName string) ([]byte, error) {
	f, err := s.fs.Open(sanitizedName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Close releases the process lock and the index, if any. Lock release
// errors are surfaced: a stuck lock file blocks the next run.
func (s *Store) Close() error {
	var firstErr error
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
