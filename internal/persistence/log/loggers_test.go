package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"redchips.ai/internal/sim/circuit"
)

func readEntries(t *testing.T, dir string) []circuit.TraceEntry {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl.zst"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()
	dec, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer dec.Close()

	var out []circuit.TraceEntry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e circuit.TraceEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		out = append(out, e)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestTraceLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTraceLogger(dir)

	want := []circuit.TraceEntry{
		{Tick: 1, CircuitID: 0, Channel: "debug", Text: "chip is disabled"},
		{Tick: 2, CircuitID: 0, Channel: "iodebug", Text: "input 0 is on: 1 (0x1)"},
	}
	for _, e := range want {
		require.NoError(t, l.WriteTrace(e))
	}
	require.NoError(t, l.Close())

	got := readEntries(t, filepath.Join(dir, "traces"))
	require.Equal(t, want, got)
}

func TestWriterAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	w := NewJSONLZstdWriter(dir, "events")
	require.NoError(t, w.Write(map[string]int{"n": 1}))
	require.NoError(t, w.Close())

	// Same hour, new writer: the stream gains a second zstd frame and both
	// records stay readable.
	w2 := NewJSONLZstdWriter(dir, "events")
	require.NoError(t, w2.Write(map[string]int{"n": 2}))
	require.NoError(t, w2.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "events-*.jsonl.zst"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()
	dec, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	var lines int
	for sc.Scan() {
		lines++
	}
	require.NoError(t, sc.Err())
	require.Equal(t, 2, lines)
}
