package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"rpg/internal/domain"
)

// DefaultLimit caps a journal listing when the caller gives no limit
const DefaultLimit = 100

// Repository implements repository.Journal using SQLite
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the journal database at dbPath. ":memory:" gives
// a private in-memory journal.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps an in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db, now: time.Now}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS journal (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		request_id TEXT,
		at INTEGER NOT NULL,
		operation TEXT NOT NULL,
		graph TEXT NOT NULL,
		brick TEXT,
		status TEXT NOT NULL,
		description TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_journal_graph ON journal(graph);
	CREATE INDEX IF NOT EXISTS idx_journal_operation ON journal(operation);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Record appends an entry to the journal
func (r *Repository) Record(ctx context.Context, entry *domain.JournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO journal (id, request_id, at, operation, graph, brick, status, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, stringToNull(entry.RequestID), entry.At.UnixNano(), entry.Operation, entry.Graph,
		stringToNull(entry.Brick), entry.Status, stringToNull(entry.Description))
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// List returns journal entries newest first
func (r *Repository) List(ctx context.Context, filter domain.JournalFilter) ([]domain.JournalEntry, error) {
	query := `SELECT id, request_id, at, operation, graph, brick, status, description FROM journal`

	var (
		where []string
		args  []any
	)
	if filter.Graph != "" {
		where = append(where, "graph = ?")
		args = append(args, filter.Graph)
	}
	if filter.Operation != "" {
		where = append(where, "operation = ?")
		args = append(args, filter.Operation)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	query += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.JournalEntry, 0)
	for rows.Next() {
		var (
			e                  domain.JournalEntry
			at                 int64
			requestID          sql.NullString
			brick, description sql.NullString
		)
		if err := rows.Scan(&e.ID, &requestID, &at, &e.Operation, &e.Graph, &brick, &e.Status, &description); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.At = time.Unix(0, at).UTC()
		e.RequestID = nullToString(requestID)
		e.Brick = nullToString(brick)
		e.Description = nullToString(description)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal: %w", err)
	}

	return entries, nil
}

// Count returns the number of entries per status
func (r *Repository) Count(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM journal GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count journal: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Close closes the database
func (r *Repository) Close() error {
	return r.db.Close()
}
