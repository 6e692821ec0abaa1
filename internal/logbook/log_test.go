package logbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewestFirst(t *testing.T) {
	l := New()
	l.Info("one")
	l.Generating("two")
	l.Warn("three")

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "three", entries[0].Message)
	assert.Equal(t, KindWarning, entries[0].Kind)
	assert.Equal(t, "one", entries[2].Message)
}

func TestUpdateKeepsPosition(t *testing.T) {
	l := New()
	l.Info("ready")
	id := l.Generating("Generating regions...")
	require.True(t, l.Update(id, KindSuccess, "Generated regions."))

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{ID: 2, Kind: KindSuccess, Message: "Generated regions.", At: entries[0].At}, entries[0])
	assert.Equal(t, "ready", entries[1].Message)
}

func TestSubscribersSeeEveryEntry(t *testing.T) {
	l := New()
	var got []string
	l.Subscribe(func(e Entry) { got = append(got, string(e.Kind)+":"+e.Message) })

	id := l.Generating("a")
	l.Update(id, KindSuccess, "b")

	assert.Equal(t, []string{"generation:a", "success:b"}, got)
}

func TestEntriesIsACopy(t *testing.T) {
	l := New()
	l.Info("x")
	entries := l.Entries()
	entries[0].Message = "mutated"

	e, _ := l.Latest()
	assert.Equal(t, "x", e.Message)
}

func TestUpdateReplacesOwnEntry(t *testing.T) {
	l := New()
	var seen []Entry
	l.Subscribe(func(e Entry) { seen = append(seen, e) })

	id := l.Generating("Updating belongings...")
	l.Warn("Generation is already in progress.")
	require.True(t, l.Update(id, KindSuccess, "Updated belongings."))

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, KindWarning, entries[0].Kind)
	assert.Equal(t, "Generation is already in progress.", entries[0].Message)
	assert.Equal(t, id, entries[1].ID)
	assert.Equal(t, KindSuccess, entries[1].Kind)
	assert.Equal(t, "Updated belongings.", entries[1].Message)

	require.Len(t, seen, 3)
	assert.Equal(t, id, seen[2].ID)
}

func TestUpdateUnknownID(t *testing.T) {
	l := New()
	l.Info("x")
	assert.False(t, l.Update(99, KindSuccess, "y"))

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "x", entries[0].Message)
}
