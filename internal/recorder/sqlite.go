package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"TouchSentinel/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run summaries to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the screener append chunk rows while the monitor holds the file.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_cycles (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			tickers     INTEGER,
			checks      INTEGER,
			skipped     INTEGER,
			failures    INTEGER,
			alerts      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_started ON scan_cycles(started_at)`,

		`CREATE TABLE IF NOT EXISTS screen_chunks (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			start_index INTEGER,
			end_index   INTEGER,
			processed   INTEGER,
			queried     INTEGER,
			failures    INTEGER,
			eligible    INTEGER,
			tickers     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_started ON screen_chunks(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(s *model.CycleSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO scan_cycles
		(started_at, finished_at, tickers, checks, skipped, failures, alerts)
		VALUES (?,?,?,?,?,?,?)`,
		s.StartedAt.Unix(), s.FinishedAt.Unix(),
		s.Tickers, s.Checks, s.Skipped, s.Failures, s.Alerts,
	)
	return err
}

func (r *SQLiteRecorder) RecordChunk(s *model.ChunkSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO screen_chunks
		(started_at, finished_at, start_index, end_index, processed, queried, failures, eligible, tickers)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		s.StartedAt.Unix(), s.FinishedAt.Unix(),
		s.Start, s.End, s.Processed, s.Queried, s.Failures,
		len(s.Eligible), strings.Join(s.Eligible, ","),
	)
	return err
}

// CycleCount returns how many scan cycles have been recorded.
func (r *SQLiteRecorder) CycleCount() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM scan_cycles`).Scan(&n)
	return n, err
}

// EligibleTotal sums eligible tickers over all recorded chunks.
func (r *SQLiteRecorder) EligibleTotal() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COALESCE(SUM(eligible), 0) FROM screen_chunks`).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
