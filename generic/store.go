/*
store.go - Persistence interface for engine state

PURPOSE:
  Defines the boundary between the engine and durable storage. The engine
  keeps everything in memory; a StateStore saves and loads whole snapshots
  of it. Implementations may use SQLite, a JSON file, or plain memory.

CONTRACT:
  - Save replaces whatever was stored before, atomically
  - Load returns (nil, nil) when nothing has been saved yet
  - A loaded State is restored through Engine.Restore, which validates it

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite tables
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - snapshot.go: State and Restore
*/
package generic

import "context"

// StateStore persists whole-engine snapshots.
type StateStore interface {
	Save(ctx context.Context, st State) error
	Load(ctx context.Context) (*State, error)
}

// Persist saves the current engine state to store. Concurrent calls are
// serialized from snapshot through save, so an older snapshot can never
// overwrite a newer one. Mutations are not blocked while a save runs.
func (e *Engine) Persist(ctx context.Context, store StateStore) error {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	return store.Save(ctx, e.Snapshot())
}

// LoadFrom restores the engine from store. It reports false when the store
// holds nothing yet.
func (e *Engine) LoadFrom(ctx context.Context, store StateStore) (bool, error) {
	st, err := store.Load(ctx)
	if err != nil {
		return false, err
	}
	if st == nil {
		return false, nil
	}
	return true, e.Restore(*st)
}
