package jail

import (
	"sync"

	ignore "github.com/sabhiram/go-gitignore"

	"decoyfs/internal/store"
)

// Root is the single shared virtual root for a running process. It owns the
// ephemeral in-memory tree that every protocol jail lives under; nothing in
// it survives process shutdown.
//
// Seeding (exclusive subtree creation plus mirror) is the only write the
// tree ever sees and holds the arena lock for its full run-to-completion
// duration: concurrent New calls for the same protocol name fail
// deterministically for exactly one caller, and a session can never observe
// a half-mirrored sibling. Jail reads take the shared side of the lock.
type Root struct {
	mu    sync.RWMutex
	store *store.Store
}

// NewRoot creates an empty virtual root backed by an in-memory filesystem.
func NewRoot() *Root {
	return &Root{store: store.NewMemory()}
}

// NewRootWithStore creates a virtual root over a caller-supplied store.
// Used by tests that need to pre-seed or inspect the tree directly.
func NewRootWithStore(s *store.Store) *Root {
	return &Root{store: s}
}

// Store exposes the backing store of the virtual root.
func (r *Root) Store() *store.Store {
	return r.store
}

// seedSubtree exclusively creates the home directory for a protocol jail
// and mirrors the source store into it.
func (r *Root) seedSubtree(home string, src *store.Store, matcher *ignore.GitIgnore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.MkdirExclusive(home); err != nil {
		return err
	}
	return r.store.MirrorFrom(src, home, matcher)
}
