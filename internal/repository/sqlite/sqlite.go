package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"canvasgroup/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Journal using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.Journal = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
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
		op TEXT NOT NULL,
		subject_id TEXT,
		from_group TEXT,
		to_group TEXT,
		outcome TEXT NOT NULL DEFAULT 'applied',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_subject ON journal(subject_id);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return err
	}

	// columns added after the first release
	return r.addColumnIfNotExists("journal", "error", "TEXT")
}

func (r *Repository) addColumnIfNotExists(table, column, decl string) error {
	rows, err := r.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return fmt.Errorf("failed to read table info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return fmt.Errorf("failed to scan table info: %w", err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = r.db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl))
	return err
}

// Append records entries in one transaction
func (r *Repository) Append(ctx context.Context, entries ...repository.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO journal (op, subject_id, from_group, to_group, outcome, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, entryInsertArgs(e)...); err != nil {
			return fmt.Errorf("failed to insert journal entry %s: %w", e.Op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first. A non-positive limit
// returns everything.
func (r *Repository) List(ctx context.Context, limit int) ([]repository.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal ORDER BY seq DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.queryEntries(ctx, query, args...)
}

// ListBySubject returns every entry about one element, oldest first
func (r *Repository) ListBySubject(ctx context.Context, subjectID string) ([]repository.Entry, error) {
	return r.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM journal WHERE subject_id = ? ORDER BY seq ASC`,
		subjectID)
}

func (r *Repository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]repository.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	entries := make([]repository.Entry, 0)
	for rows.Next() {
		var row entryRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, row.toRepository())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal: %w", err)
	}
	return entries, nil
}

// Count returns the number of journaled entries
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count journal: %w", err)
	}
	return n, nil
}

// Clear removes every entry
func (r *Repository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM journal`); err != nil {
		return fmt.Errorf("failed to clear journal: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
