package generic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/generic"
)

func undoEntry(pid string) generic.UndoEntry {
	return generic.UndoEntry{DateKey: "2026-03-02", PersonID: generic.PersonID(pid)}
}

func TestUndoLog_PopIsNewestFirst(t *testing.T) {
	u := generic.NewUndoLog(10)
	u.Push(undoEntry("a"))
	u.Push(undoEntry("b"))

	e, ok := u.Pop()
	require.True(t, ok)
	assert.Equal(t, generic.PersonID("b"), e.PersonID)

	e, ok = u.Pop()
	require.True(t, ok)
	assert.Equal(t, generic.PersonID("a"), e.PersonID)

	_, ok = u.Pop()
	assert.False(t, ok, "empty stack pops nothing")
}

func TestUndoLog_FullStackDropsOldest(t *testing.T) {
	// GIVEN: Capacity 3
	// WHEN: Pushing 5 entries
	// THEN: Only the newest 3 remain
	u := generic.NewUndoLog(3)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		u.Push(undoEntry(id))
	}

	require.Equal(t, 3, u.Len())
	var ids []generic.PersonID
	for _, e := range u.Entries() {
		ids = append(ids, e.PersonID)
	}
	assert.Equal(t, []generic.PersonID{"c", "d", "e"}, ids)
}

func TestUndoLog_DefaultCapacity(t *testing.T) {
	assert.Equal(t, generic.DefaultUndoCapacity, generic.NewUndoLog(0).Capacity())
	assert.Equal(t, 80, generic.NewUndoLog(-1).Capacity())
}

func TestUndoLog_EntriesAreCopies(t *testing.T) {
	u := generic.NewUndoLog(5)
	u.Push(generic.UndoEntry{DateKey: "2026-03-02", PersonID: "a", Prev: &generic.DayRecord{Note: "before"}})

	got := u.Entries()
	got[0].Prev.Note = "changed"

	e, _ := u.Pop()
	assert.Equal(t, "before", e.Prev.Note)
}

func TestUndoLog_ReplaceKeepsNewest(t *testing.T) {
	u := generic.NewUndoLog(2)
	u.Replace([]generic.UndoEntry{undoEntry("a"), undoEntry("b"), undoEntry("c")})

	require.Equal(t, 2, u.Len())
	e, _ := u.Pop()
	assert.Equal(t, generic.PersonID("c"), e.PersonID)
	e, _ = u.Pop()
	assert.Equal(t, generic.PersonID("b"), e.PersonID)
}

func TestUndoLog_DropPerson(t *testing.T) {
	u := generic.NewUndoLog(10)
	for _, id := range []string{"a", "b", "a", "c"} {
		u.Push(undoEntry(id))
	}

	u.DropPerson("a")

	require.Equal(t, 2, u.Len())
	e, _ := u.Pop()
	assert.Equal(t, generic.PersonID("c"), e.PersonID)
	e, _ = u.Pop()
	assert.Equal(t, generic.PersonID("b"), e.PersonID)
}

func TestUndoLog_Clear(t *testing.T) {
	u := generic.NewUndoLog(10)
	u.Push(undoEntry("a"))
	u.Clear()
	assert.Equal(t, 0, u.Len())
	_, ok := u.Pop()
	assert.False(t, ok)
}
