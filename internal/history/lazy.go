package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/cromfel/go-mpv/internal/logging"
)

// LazyStore defers opening the history database until first access. Opening
// compiles the embedded SQLite WASM module and runs migrations, a few
// hundred milliseconds that commands which never touch history should not
// pay.
type LazyStore struct {
	path  string
	store *Store
	err   error
	once  sync.Once
	mu    sync.RWMutex
}

// NewLazyStore creates a lazy store provider. The database is not opened
// until Store() is called.
func NewLazyStore(path string) *LazyStore {
	return &LazyStore{path: path}
}

// Store returns the history store, opening the database if necessary.
// Thread-safe; the open happens at most once and later calls return its
// result.
func (l *LazyStore) Store(ctx context.Context) (*Store, error) {
	l.once.Do(func() {
		log := logging.FromContext(ctx)
		log.Debug().Str("path", l.path).Msg("opening history database")

		store, err := Open(ctx, l.path)
		l.mu.Lock()
		l.store, l.err = store, err
		l.mu.Unlock()
	})

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.err != nil {
		return nil, fmt.Errorf("history: open %s: %w", l.path, l.err)
	}
	return l.store, nil
}

// Close closes the database if it was ever opened.
func (l *LazyStore) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		return l.store.Close()
	}
	return nil
}

// IsInitialized reports whether the database has been opened.
func (l *LazyStore) IsInitialized() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store != nil
}

// Path returns the database path.
func (l *LazyStore) Path() string {
	return l.path
}
