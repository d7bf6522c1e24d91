package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/europa/pkg/export"
)

// SQLiteStore implements export.RunStore using SQLite for persistence.
// It provides durable storage with periodic snapshots and is suitable
// for single-instance deployments where run history must survive
// restarts.
//
// SQLiteStore uses a write-ahead log (WAL) for better concurrent
// performance and automatic checkpointing to balance write performance
// with durability.
type SQLiteStore struct {
	db               *sql.DB
	dbPath           string
	snapshotInterval time.Duration
	done             chan struct{}
	mu               sync.RWMutex
	closeOnce        sync.Once

	// preparedStatements contains pre-compiled SQL statements for performance
	saveStmt        *sql.Stmt
	getStmt         *sql.Stmt
	listStmt        *sql.Stmt
	listByStateStmt *sql.Stmt
	cleanupStmt     *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite run store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// SnapshotInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	SnapshotInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a new SQLite run store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{
		DBPath:           dbPath,
		SnapshotInterval: 5 * time.Minute,
		BusyTimeout:      5 * time.Second,
	})
}

// NewSQLiteStoreWithConfig creates a new SQLite run store with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	// Apply defaults
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	// Open database with WAL mode and busy timeout
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:               db,
		dbPath:           cfg.DBPath,
		snapshotInterval: cfg.SnapshotInterval,
		done:             make(chan struct{}),
	}

	// Initialize schema
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Prepare statements
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	// Start background checkpoint goroutine
	go store.checkpointLoop()

	return store, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS export_runs (
		id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		request TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		started_at INTEGER NOT NULL DEFAULT 0,
		completed_at INTEGER NOT NULL DEFAULT 0,
		entries_exported INTEGER NOT NULL DEFAULT 0,
		entries_available INTEGER NOT NULL DEFAULT 0,
		truncated INTEGER NOT NULL DEFAULT 0,
		error_kind TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_export_runs_state ON export_runs(state);
	CREATE INDEX IF NOT EXISTS idx_export_runs_created ON export_runs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO export_runs (
			id, state, request, created_at, started_at, completed_at,
			entries_exported, entries_available, truncated,
			error_kind, error_message, location
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			state = excluded.state,
			request = excluded.request,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			entries_exported = excluded.entries_exported,
			entries_available = excluded.entries_available,
			truncated = excluded.truncated,
			error_kind = excluded.error_kind,
			error_message = excluded.error_message,
			location = excluded.location
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.getStmt, err = s.db.Prepare(`
		SELECT id, state, request, created_at, started_at, completed_at,
			entries_exported, entries_available, truncated,
			error_kind, error_message, location
		FROM export_runs
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT id, state, request, created_at, started_at, completed_at,
			entries_exported, entries_available, truncated,
			error_kind, error_message, location
		FROM export_runs
		ORDER BY created_at DESC, id
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	s.listByStateStmt, err = s.db.Prepare(`
		SELECT id, state, request, created_at, started_at, completed_at,
			entries_exported, entries_available, truncated,
			error_kind, error_message, location
		FROM export_runs
		WHERE state = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list by state statement: %w", err)
	}

	s.cleanupStmt, err = s.db.Prepare(`
		DELETE FROM export_runs
		WHERE created_at < ? AND state IN (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cleanup statement: %w", err)
	}

	return nil
}

// SaveRun inserts or replaces the record for run.ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *export.Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	if run.ID == "" {
		return fmt.Errorf("run id cannot be empty")
	}

	var requestJSON []byte
	if run.Request != nil {
		var err error
		requestJSON, err = json.Marshal(run.Request)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.saveStmt.ExecContext(ctx,
		run.ID,
		string(run.State),
		string(requestJSON),
		timeColumn(run.CreatedAt),
		timeColumn(run.StartedAt),
		timeColumn(run.CompletedAt),
		run.EntriesExported,
		run.EntriesAvailable,
		boolColumn(run.Truncated),
		string(run.ErrorKind),
		run.ErrorMessage,
		run.Location,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetRun returns the stored run, or nil when the id is unknown.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*export.Run, error) {
	if id == "" {
		return nil, fmt.Errorf("run id cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := scanRun(s.getStmt.QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	return run, nil
}

// ListRuns returns stored runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, opts export.ListOptions) ([]*export.Run, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rows *sql.Rows
		err  error
	)
	if opts.State != "" {
		rows, err = s.listByStateStmt.QueryContext(ctx, string(opts.State), limit)
	} else {
		rows, err = s.listStmt.QueryContext(ctx, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*export.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return runs, nil
}

// DeleteOlderThan removes terminal runs created before cutoff and reports
// how many rows were removed.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.cleanupStmt.ExecContext(ctx,
		timeColumn(cutoff),
		string(export.StateSucceeded),
		string(export.StateFailed),
		string(export.StateCancelled),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(deleted), nil
}

// Close releases any resources held by the store.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		// Signal checkpoint goroutine to stop
		close(s.done)

		// Close prepared statements
		if s.saveStmt != nil {
			s.saveStmt.Close()
		}
		if s.getStmt != nil {
			s.getStmt.Close()
		}
		if s.listStmt != nil {
			s.listStmt.Close()
		}
		if s.listByStateStmt != nil {
			s.listByStateStmt.Close()
		}
		if s.cleanupStmt != nil {
			s.cleanupStmt.Close()
		}

		// Close database
		if s.db != nil {
			// Run final checkpoint
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Run checkpoint
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}

// scanRun reads one run row. The row argument is either *sql.Row or
// *sql.Rows positioned on a row.
func scanRun(row interface{ Scan(dest ...any) error }) (*export.Run, error) {
	var (
		run         export.Run
		state       string
		requestJSON string
		createdAt   int64
		startedAt   int64
		completedAt int64
		truncated   int64
		errorKind   string
	)

	err := row.Scan(
		&run.ID,
		&state,
		&requestJSON,
		&createdAt,
		&startedAt,
		&completedAt,
		&run.EntriesExported,
		&run.EntriesAvailable,
		&truncated,
		&errorKind,
		&run.ErrorMessage,
		&run.Location,
	)
	if err != nil {
		return nil, err
	}

	run.State = export.State(state)
	run.CreatedAt = columnTime(createdAt)
	run.StartedAt = columnTime(startedAt)
	run.CompletedAt = columnTime(completedAt)
	run.Truncated = truncated != 0
	run.ErrorKind = export.ErrorKind(errorKind)

	if requestJSON != "" {
		run.Request = &export.Request{}
		if err := json.Unmarshal([]byte(requestJSON), run.Request); err != nil {
			return nil, fmt.Errorf("failed to unmarshal request: %w", err)
		}
	}

	return &run, nil
}

// timeColumn stores times as Unix nanoseconds so list ordering keeps
// sub-second resolution. The zero time maps to 0.
func timeColumn(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func columnTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func boolColumn(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
