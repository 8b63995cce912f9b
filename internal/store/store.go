// Package store keeps the catalog snapshot that all views read from.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/shinee-collection/tracker-web/internal/catalog"
)

// Loader fetches the full catalog.
type Loader interface {
	ListDiscography(ctx context.Context) ([]catalog.Record, error)
}

// Snapshot is an immutable view of the catalog at one point in time.
type Snapshot struct {
	Records  []catalog.Record
	LoadedAt time.Time
	Fallback bool
}

// Loaded reports whether any load completed.
func (s Snapshot) Loaded() bool { return !s.LoadedAt.IsZero() }

// Edition looks up a record by edition id.
func (s Snapshot) Edition(editionID string) (catalog.Record, bool) {
	for _, r := range s.Records {
		if r.EditionID == editionID {
			return r, true
		}
	}
	return catalog.Record{}, false
}

// Editions returns every record of a work.
func (s Snapshot) Editions(workKey string) []catalog.Record {
	return catalog.Editions(s.Records, workKey)
}

// Store holds the latest snapshot. Records are replaced wholesale on reload
// and never patched in place.
type Store struct {
	loader   Loader
	fallback []catalog.Record
	now      func() time.Time

	mu   sync.RWMutex
	snap Snapshot
}

// New returns a store that serves fallback records when a load fails.
func New(loader Loader, fallback []catalog.Record) *Store {
	return &Store{loader: loader, fallback: fallback, now: time.Now}
}

// Load replaces the snapshot with a fresh copy from the loader. On failure
// the fallback records are installed and the error is returned alongside.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	records, err := s.loader.ListDiscography(ctx)
	next := Snapshot{Records: records, LoadedAt: s.now()}
	if err != nil {
		next.Records = append([]catalog.Record(nil), s.fallback...)
		next.Fallback = true
	}
	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
	return next, err
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Ensure returns the current snapshot, loading it first if nothing has been
// loaded yet.
func (s *Store) Ensure(ctx context.Context) (Snapshot, error) {
	if snap := s.Snapshot(); snap.Loaded() {
		return snap, nil
	}
	return s.Load(ctx)
}
