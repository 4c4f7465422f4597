package repository

import (
	"context"
	"time"
)

// Outcome of a journaled edit
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected"
)

// Entry is one journaled edit
type Entry struct {
	Seq       int64     `json:"seq"`
	Op        string    `json:"op"`
	SubjectID string    `json:"subject_id,omitempty"`
	FromGroup string    `json:"from_group,omitempty"`
	ToGroup   string    `json:"to_group,omitempty"`
	Outcome   Outcome   `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Journal records edits applied to or rejected by the editor
type Journal interface {
	Append(ctx context.Context, entries ...Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	ListBySubject(ctx context.Context, subjectID string) ([]Entry, error)
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
	Close() error
}
