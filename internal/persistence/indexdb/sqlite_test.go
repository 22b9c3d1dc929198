package indexdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"redchips.ai/internal/sim/circuit"
	"redchips.ai/internal/sim/world"
)

func TestJournalPersistsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	j, err := OpenSQLite(path)
	require.NoError(t, err)

	events := []circuit.LifecycleEvent{
		{Tick: 1, Event: "activate", CircuitID: 0, Kind: "and", Pos: world.Vec3i{X: 1, Y: 2, Z: 3}},
		{Tick: 5, Event: "integrity_fail", CircuitID: 0, Kind: "and", Detail: "structure check failed"},
		{Tick: 9, Event: "destroy", CircuitID: 0, Kind: "and"},
	}
	for _, e := range events {
		j.RecordEvent(e)
	}
	require.NoError(t, j.Close())

	// The journal survives a restart.
	j2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer j2.Close()

	n, err := j2.EventCount()
	require.NoError(t, err)
	require.Equal(t, len(events), n)
	require.Zero(t, j2.Dropped())
}

func TestRecordEventAfterCloseIsNoop(t *testing.T) {
	j, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	// Must not panic on the closed channel.
	j.RecordEvent(circuit.LifecycleEvent{Event: "destroy"})
	require.NoError(t, j.Close())
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := OpenSQLite("")
	require.Error(t, err)
}
