package sqlite

import (
	"database/sql"
	"time"

	"canvasgroup/internal/repository"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to the journal table:
// 1. Add field to entryRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update entryColumns constant - APPEND to end
// 4. Update toRepository() and entryInsertArgs()
// 5. Add migration in sqlite.go migrate() using addColumnIfNotExists()
//
// CRITICAL: column order must match between entryColumns and scanArgs().

// ============================================================================
// Entry Row Scanner
// ============================================================================

// entryRow holds all columns from a journal query for scanning
type entryRow struct {
	Seq       int64
	Op        string
	SubjectID sql.NullString
	FromGroup sql.NullString
	ToGroup   sql.NullString
	Outcome   string
	Error     sql.NullString
	CreatedAt int64
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match entryColumns order exactly:
// seq, op, subject_id, from_group, to_group, outcome, error, created_at
func (r *entryRow) scanArgs() []interface{} {
	return []interface{}{
		&r.Seq,       // 1
		&r.Op,        // 2
		&r.SubjectID, // 3
		&r.FromGroup, // 4
		&r.ToGroup,   // 5
		&r.Outcome,   // 6
		&r.Error,     // 7
		&r.CreatedAt, // 8
	}
}

// toRepository converts the scanned row to a repository.Entry
func (r *entryRow) toRepository() repository.Entry {
	return repository.Entry{
		Seq:       r.Seq,
		Op:        r.Op,
		SubjectID: nullToString(r.SubjectID),
		FromGroup: nullToString(r.FromGroup),
		ToGroup:   nullToString(r.ToGroup),
		Outcome:   repository.Outcome(r.Outcome),
		Error:     nullToString(r.Error),
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
	}
}

// entryColumns returns the SELECT column list for journal queries
const entryColumns = `seq, op, subject_id, from_group, to_group, outcome, error, created_at`

// entryInsertArgs returns args for the INSERT in Append, excluding seq
func entryInsertArgs(e repository.Entry) []interface{} {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	outcome := e.Outcome
	if outcome == "" {
		outcome = repository.OutcomeApplied
	}
	return []interface{}{
		e.Op,
		stringToNull(e.SubjectID),
		stringToNull(e.FromGroup),
		stringToNull(e.ToGroup),
		string(outcome),
		stringToNull(e.Error),
		created.UnixNano(),
	}
}
