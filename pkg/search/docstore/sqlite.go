package docstore

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/europa/pkg/dataset"
	"mercator-hq/europa/pkg/search"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	owner_scope TEXT NOT NULL,
	owner_user  TEXT NOT NULL DEFAULT '',
	uploaded_at INTEGER NOT NULL,
	fields      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_scope ON documents(owner_scope, id);
CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(owner_user, id);
`

// SQLiteStore is a search backend over a single SQLite database file.
// Documents are stored as JSON alongside their owner columns and field
// filters are matched with json_extract, so callers can filter on any
// payload key without schema changes.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// SQLiteOptions configures OpenSQLite.
type SQLiteOptions struct {
	// Path is the database file location. Required.
	Path string
	// BusyTimeout bounds how long SQLite waits on a locked database.
	// Defaults to 5s.
	BusyTimeout time.Duration
}

// OpenSQLite opens or creates the document database at opts.Path and
// prepares its schema.
func OpenSQLite(opts SQLiteOptions) (*SQLiteStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("docstore: database path is required")
	}
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on",
		opts.Path, busy.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("docstore: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("docstore: ping database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("docstore: create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: slog.Default().With("component", "docstore.sqlite"),
	}, nil
}

// Put stores a single document, assigning an ID and timestamps where the
// caller left them empty. An existing document with the same ID is
// replaced.
func (s *SQLiteStore) Put(ctx context.Context, doc *Document) error {
	doc.normalize(time.Now().UTC())
	if !ValidScope(doc.OwnerScope) {
		return fmt.Errorf("docstore: invalid owner scope %q", doc.OwnerScope)
	}

	payload, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("docstore: encode document %s: %w", doc.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents (id, owner_scope, owner_user, uploaded_at, fields)
		VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.OwnerScope, doc.OwnerUser, doc.UploadedAt.Unix(), string(payload))
	if err != nil {
		return search.NewUnavailableError("sqlite", err)
	}
	return nil
}

// PutBatch stores documents in one transaction. Used by the seed command
// and by tests to load a corpus quickly.
func (s *SQLiteStore) PutBatch(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return search.NewUnavailableError("sqlite", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO documents (id, owner_scope, owner_user, uploaded_at, fields)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return search.NewUnavailableError("sqlite", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, doc := range docs {
		doc.normalize(now)
		if !ValidScope(doc.OwnerScope) {
			return fmt.Errorf("docstore: invalid owner scope %q", doc.OwnerScope)
		}
		payload, err := json.Marshal(doc.Fields)
		if err != nil {
			return fmt.Errorf("docstore: encode document %s: %w", doc.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.OwnerScope, doc.OwnerUser,
			doc.UploadedAt.Unix(), string(payload)); err != nil {
			return search.NewUnavailableError("sqlite", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return search.NewUnavailableError("sqlite", err)
	}
	s.logger.Debug("stored document batch", "count", len(docs))
	return nil
}

// Search returns one page of matching documents ordered by ID. The first
// page carries the total match count; later pages report -1 to avoid
// recounting on every fetch.
func (s *SQLiteStore) Search(ctx context.Context, q *search.Query, cursor string, limit int) (*search.Page, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	afterID, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	where, args, err := buildWhereClause(q)
	if err != nil {
		return nil, err
	}

	total := int64(-1)
	if cursor == "" {
		countQuery := "SELECT COUNT(*) FROM documents" + where
		if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
			return nil, search.NewUnavailableError("sqlite", err)
		}
	}

	pageWhere := where
	pageArgs := args
	if afterID != "" {
		if pageWhere == "" {
			pageWhere = " WHERE id > ?"
		} else {
			pageWhere += " AND id > ?"
		}
		pageArgs = append(pageArgs, afterID)
	}

	query := "SELECT id, fields FROM documents" + pageWhere + " ORDER BY id LIMIT ?"
	pageArgs = append(pageArgs, limit)

	rows, err := s.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, search.NewUnavailableError("sqlite", err)
	}
	defer rows.Close()

	var (
		entries []dataset.Entry
		lastID  string
	)
	for rows.Next() {
		var (
			id      string
			payload string
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, search.NewUnavailableError("sqlite", err)
		}
		var entry dataset.Entry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			return nil, fmt.Errorf("docstore: decode document %s: %w", id, err)
		}
		entries = append(entries, entry)
		lastID = id
	}
	if err := rows.Err(); err != nil {
		return nil, search.NewUnavailableError("sqlite", err)
	}

	page := &search.Page{Entries: entries, Total: total}
	if len(entries) == limit {
		page.NextCursor = encodeCursor(lastID)
	}
	return page, nil
}

// Count returns the number of documents matching q.
func (s *SQLiteStore) Count(ctx context.Context, q *search.Query) (int64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	where, args, err := buildWhereClause(q)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents"+where, args...).Scan(&total); err != nil {
		return 0, search.NewUnavailableError("sqlite", err)
	}
	return total, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// buildWhereClause translates the query's owner scope, field filters, and
// text term into a WHERE clause with bound arguments.
func buildWhereClause(q *search.Query) (string, []any, error) {
	var (
		conds []string
		args  []any
	)

	switch q.EffectiveOwner() {
	case search.OwnerPublic:
		conds = append(conds, "owner_scope = ?")
		args = append(args, ScopePublic)
	case search.OwnerVisible:
		conds = append(conds, "(owner_scope = ? OR owner_user = ?)")
		args = append(args, ScopePublic, q.User)
	case search.OwnerShared:
		conds = append(conds, "(owner_scope = ? OR owner_user = ?)")
		args = append(args, ScopeShared, q.User)
	case search.OwnerUser:
		conds = append(conds, "owner_user = ?")
		args = append(args, q.User)
	case search.OwnerStaging:
		conds = append(conds, "owner_scope = ? AND owner_user = ?")
		args = append(args, ScopeStaging, q.User)
	case search.OwnerAll:
		// No visibility constraint.
	default:
		return "", nil, search.NewInvalidQueryError(fmt.Sprintf("unknown owner scope %q", q.Owner))
	}

	for _, field := range sortedFilterKeys(q.Filters) {
		conds = append(conds, "json_extract(fields, ?) = ?")
		args = append(args, "$."+field, filterArg(q.Filters[field]))
	}

	if q.Text != "" {
		conds = append(conds, "fields LIKE ?")
		args = append(args, "%"+q.Text+"%")
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// filterArg converts a filter value into a driver-friendly argument.
// SQLite stores JSON booleans as 0/1, so bools are mapped accordingly.
func filterArg(v any) any {
	switch val := v.(type) {
	case bool:
		if val {
			return 1
		}
		return 0
	default:
		return v
	}
}

func sortedFilterKeys(filters map[string]any) []string {
	if len(filters) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func encodeCursor(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func decodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", search.NewInvalidQueryError("malformed page cursor")
	}
	return string(raw), nil
}
