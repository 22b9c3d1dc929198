// Package indexdb keeps a SQLite journal of circuit lifecycle events. It is
// a secondary read-model for offline inspection; the sim never depends on it
// and losing it costs nothing but history.
package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"redchips.ai/internal/sim/circuit"
)

type SQLiteJournal struct {
	db *sql.DB

	ch   chan circuit.LifecycleEvent
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Int64
}

func OpenSQLite(path string) (*SQLiteJournal, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	j := &SQLiteJournal{
		db: db,
		// Buffered so bursty activations never stall the event path.
		ch: make(chan circuit.LifecycleEvent, 4096),
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.loop()
	}()
	return j, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads; NORMAL is a decent
	// durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS circuit_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			tick INTEGER NOT NULL,
			event TEXT NOT NULL,
			circuit_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			detail TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_circuit_events_circuit
			ON circuit_events (circuit_id, seq);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordEvent implements circuit.Journal. Never blocks: if the writer falls
// behind, events are dropped and counted.
func (j *SQLiteJournal) RecordEvent(e circuit.LifecycleEvent) {
	if j.closed.Load() {
		return
	}
	select {
	case j.ch <- e:
	default:
		j.dropped.Add(1)
	}
}

func (j *SQLiteJournal) Dropped() int64 { return j.dropped.Load() }

func (j *SQLiteJournal) loop() {
	for e := range j.ch {
		_, _ = j.db.Exec(
			`INSERT INTO circuit_events (tick, event, circuit_id, kind, x, y, z, detail)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Tick, e.Event, e.CircuitID, e.Kind, e.Pos.X, e.Pos.Y, e.Pos.Z, e.Detail,
		)
	}
}

// EventCount reports the number of journaled events, for inspection and
// tests. Reads run on the caller's goroutine against the same connection.
func (j *SQLiteJournal) EventCount() (int, error) {
	var n int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM circuit_events`).Scan(&n)
	return n, err
}

func (j *SQLiteJournal) Close() error {
	var err error
	j.once.Do(func() {
		j.closed.Store(true)
		close(j.ch)
		j.wg.Wait()
		err = j.db.Close()
	})
	return err
}
