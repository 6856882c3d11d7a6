/*
undo.go - Bounded undo stack

PURPOSE:
  Every mutation of a day record pushes the record's prior value here. Undo
  pops the newest entry and the engine restores that snapshot. Snapshots
  rather than inverse operations: a restore is trivially correct, and memory
  is bounded by the capacity.

INVARIANTS:
  1. Bounded: at most Capacity entries; pushing a full stack drops the oldest
  2. Linear: undo does not push anything (no redo)
  3. Owned: only the engine touches the stack, under its write lock

SEE ALSO:
  - engine.go: Push on mutation, Pop on undo
  - types.go: UndoEntry
*/
package generic

// DefaultUndoCapacity is the stack depth used when none is configured.
const DefaultUndoCapacity = 80

// UndoLog is a fixed-capacity LIFO of UndoEntry.
type UndoLog struct {
	capacity int
	entries  []UndoEntry
}

func NewUndoLog(capacity int) *UndoLog {
	if capacity <= 0 {
		capacity = DefaultUndoCapacity
	}
	return &UndoLog{capacity: capacity, entries: make([]UndoEntry, 0, capacity)}
}

// Push appends e, evicting the oldest entry when full.
func (u *UndoLog) Push(e UndoEntry) {
	if len(u.entries) == u.capacity {
		copy(u.entries, u.entries[1:])
		u.entries = u.entries[:len(u.entries)-1]
	}
	u.entries = append(u.entries, e)
}

// Pop removes and returns the newest entry.
func (u *UndoLog) Pop() (UndoEntry, bool) {
	if len(u.entries) == 0 {
		return UndoEntry{}, false
	}
	last := len(u.entries) - 1
	e := u.entries[last]
	u.entries[last] = UndoEntry{}
	u.entries = u.entries[:last]
	return e, true
}

func (u *UndoLog) Len() int      { return len(u.entries) }
func (u *UndoLog) Capacity() int { return u.capacity }

func (u *UndoLog) Clear() {
	u.entries = u.entries[:0]
}

// Entries returns a copy, oldest first.
func (u *UndoLog) Entries() []UndoEntry {
	out := make([]UndoEntry, len(u.entries))
	for i, e := range u.entries {
		out[i] = e
		if e.Prev != nil {
			prev := *e.Prev
			out[i].Prev = &prev
		}
	}
	return out
}

// Replace loads entries (oldest first), keeping only the newest Capacity.
func (u *UndoLog) Replace(entries []UndoEntry) {
	if len(entries) > u.capacity {
		entries = entries[len(entries)-u.capacity:]
	}
	u.entries = make([]UndoEntry, 0, u.capacity)
	u.entries = append(u.entries, entries...)
}

// DropPerson removes every entry that targets id.
func (u *UndoLog) DropPerson(id PersonID) {
	kept := u.entries[:0]
	for _, e := range u.entries {
		if e.PersonID != id {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(u.entries); i++ {
		u.entries[i] = UndoEntry{}
	}
	u.entries = kept
}
