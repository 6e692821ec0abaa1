package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/worldweaver/internal/logbook"
	"github.com/talgya/worldweaver/internal/world"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSituationsUpsertByIndex(t *testing.T) {
	j := openJournal(t)

	intro := world.Situation{Content: "You wake on a beach."}
	require.NoError(t, j.RecordSituation("s1", 0, intro))
	require.NoError(t, j.RecordSituation("s1", 0, intro.Resolve("I stand up", 4)))
	require.NoError(t, j.RecordSituation("s1", 1, world.Situation{Content: "Gulls circle."}))
	require.NoError(t, j.RecordSituation("s2", 0, world.Situation{Content: "elsewhere"}))

	got, err := j.Transcript("s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.True(t, got[0].Resolved())
	assert.Equal(t, "I stand up", *got[0].Action)
	assert.Equal(t, 4, *got[0].Roll)
	assert.False(t, got[1].Resolved())
	assert.Equal(t, "Gulls circle.", got[1].Content)
}

func TestLogsOldestFirst(t *testing.T) {
	j := openJournal(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordLog("s1", logbook.Entry{Kind: logbook.KindGeneration, Message: "Generating regions...", At: at}))
	require.NoError(t, j.RecordLog("s1", logbook.Entry{Kind: logbook.KindSuccess, Message: "Generated regions.", At: at.Add(time.Second)}))
	require.NoError(t, j.RecordLog("s2", logbook.Entry{Kind: logbook.KindInfo, Message: "other", At: at}))

	logs, err := j.Logs("s1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Generating regions...", logs[0].Message)
	assert.Equal(t, logbook.KindSuccess, logs[1].Kind)
	assert.True(t, logs[1].At.Equal(at.Add(time.Second)))
}

func TestLatestWorld(t *testing.T) {
	j := openJournal(t)

	_, err := j.LatestWorld("s1")
	assert.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, j.RecordWorld("s1", world.Record{UserInput: "idea", WorldType: "first"}))
	rec := world.Record{UserInput: "idea", WorldType: "second", Story: &world.Story{Belongings: "a rope"}}
	require.NoError(t, j.RecordWorld("s1", rec))

	got, err := j.LatestWorld("s1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.WorldType)
	require.NotNil(t, got.Story)
	assert.Equal(t, "a rope", got.Story.Belongings)

	n, err := j.Snapshots("s1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOpenFileJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordSituation("s1", 0, world.Situation{Content: "kept"}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	got, err := j.Transcript("s1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Content)
}
