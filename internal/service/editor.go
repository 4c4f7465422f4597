package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"canvasgroup/internal/domain"
	"canvasgroup/internal/metrics"
	"canvasgroup/internal/repository"
)

// ErrStopped is returned by Do once the edit loop has exited
var ErrStopped = errors.New("editor stopped")

// Options configures an Editor
type Options struct {
	// Journal records every edit. Optional.
	Journal repository.Journal
	// Bus receives edit events. Optional.
	Bus *EventBus

	GroupWidth  float64
	GroupHeight float64

	// NewID generates ids for created groups and wires. Defaults to uuid.
	NewID func() string
}

// Editor owns one containment tree and applies edits to it serially on the
// goroutine running Run. Other goroutines read the latest published
// Snapshot.
type Editor struct {
	opts  Options
	reqs  chan request
	done  chan struct{}
	snap  atomic.Pointer[domain.Snapshot]
	count atomic.Uint64

	// owned by the edit loop once Run starts
	root    *domain.Group
	idx     *domain.Index
	version uint64
}

type request struct {
	ctx context.Context
	op  string
	fn  func(*Session) error
	// view runs fn without publishing or journaling
	view bool
	// swap replaces the tree instead of running fn
	swap  *domain.Group
	reply chan result
}

type result struct {
	version uint64
	err     error
}

// NewEditor creates an editor for the tree rooted at root
func NewEditor(root *domain.Group, opts Options) *Editor {
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	if opts.GroupWidth <= 0 {
		opts.GroupWidth = domain.DefaultGroupWidth
	}
	if opts.GroupHeight <= 0 {
		opts.GroupHeight = domain.DefaultGroupHeight
	}
	e := &Editor{
		opts: opts,
		reqs: make(chan request),
		done: make(chan struct{}),
		root: root,
		idx:  domain.NewIndex(root),
	}
	e.publishSnapshot()
	return e
}

// Run applies submitted edits until ctx is cancelled
func (e *Editor) Run(ctx context.Context) error {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-e.reqs:
			err := e.apply(req)
			req.reply <- result{version: e.version, err: err}
		}
	}
}

// Do runs fn on the edit goroutine and waits for it. op labels the edit in
// the journal and metrics. A non-nil error from fn rejects the whole edit:
// commands that fn already applied are rolled back and nothing is published.
func (e *Editor) Do(ctx context.Context, op string, fn func(*Session) error) error {
	_, err := e.Apply(ctx, op, fn)
	return err
}

// Apply is Do that also returns the tree version after the edit, read on the
// edit goroutine so later edits cannot be mistaken for this one.
func (e *Editor) Apply(ctx context.Context, op string, fn func(*Session) error) (uint64, error) {
	return e.submitVersion(ctx, request{ctx: ctx, op: op, fn: fn})
}

// Replace swaps the edited tree for one built from scene
func (e *Editor) Replace(ctx context.Context, scene *domain.Scene) error {
	root, _, err := domain.BuildScene(scene)
	if err != nil {
		return fmt.Errorf("failed to build scene: %w", err)
	}
	return e.submit(ctx, request{ctx: ctx, op: "reload", swap: root})
}

// View runs fn on the edit goroutine without recording an edit. fn must not
// mutate the tree.
func (e *Editor) View(ctx context.Context, fn func(*Session) error) error {
	return e.submit(ctx, request{ctx: ctx, op: "view", view: true, fn: fn})
}

// Validate checks the containment invariants of the current tree
func (e *Editor) Validate(ctx context.Context) error {
	var verr error
	err := e.View(ctx, func(s *Session) error {
		verr = s.root.Validate()
		return nil
	})
	if err != nil {
		return err
	}
	return verr
}

// Snapshot returns the most recently published snapshot
func (e *Editor) Snapshot() *domain.Snapshot {
	return e.snap.Load()
}

// Edits returns the number of edits applied since the editor was created
func (e *Editor) Edits() uint64 {
	return e.count.Load()
}

func (e *Editor) submit(ctx context.Context, req request) error {
	_, err := e.submitVersion(ctx, req)
	return err
}

func (e *Editor) submitVersion(ctx context.Context, req request) (uint64, error) {
	req.reply = make(chan result, 1)
	select {
	case e.reqs <- req:
	case <-e.done:
		return 0, ErrStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.version, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (e *Editor) apply(req request) error {
	if req.swap != nil {
		return e.applySwap(req)
	}
	if req.view {
		return req.fn(&Session{e: e, root: e.root, idx: e.idx})
	}

	start := time.Now()
	before := wireOwners(e.root)
	s := &Session{e: e, root: e.root, idx: e.idx}

	err := req.fn(s)
	switch {
	case err == nil:
		e.settle(req, s, before)
	case len(s.entries) > 0:
		e.rollback(s)
		e.reject(req, s, err)
	default:
		e.reject(req, s, err)
	}
	metrics.EditDuration.Observe(msSince(start))
	return err
}

// settle publishes the effects of the commands a session applied
func (e *Editor) settle(req request, s *Session, before map[*domain.Wire]*domain.Group) {
	e.version++
	e.count.Add(1)
	rehomed := rehomedWires(e.root, before)
	metrics.EditsTotal.WithLabelValues(req.op, string(repository.OutcomeApplied)).Inc()
	metrics.WiresRehomed.Add(float64(len(rehomed)))
	e.publishSnapshot()

	e.record(req.ctx, s.entries...)
	for _, ev := range s.events {
		e.publish(ev)
	}
	for _, w := range rehomed {
		e.publish(Event{Type: EventWireRehomed, Payload: map[string]string{
			"wire_id":  w.ID,
			"group_id": w.Group().ID,
		}})
	}
}

// rollback restores the tree captured before the session's first command
func (e *Editor) rollback(s *Session) {
	e.root = s.checkpoint
	e.idx = domain.NewIndex(s.checkpoint)
	log.Printf("editor: rolled back %d applied commands", len(s.entries))
}

func (e *Editor) applySwap(req request) error {
	e.root = req.swap
	e.idx = domain.NewIndex(req.swap)
	e.version++
	e.count.Add(1)
	metrics.EditsTotal.WithLabelValues(req.op, string(repository.OutcomeApplied)).Inc()
	e.publishSnapshot()

	items, wires, groups := e.root.Counts()
	log.Printf("editor: tree replaced (%d items, %d wires, %d groups)", items, wires, groups)
	e.record(req.ctx, repository.Entry{Op: req.op, SubjectID: e.root.ID})
	e.publish(Event{Type: EventSceneReloaded, Payload: map[string]int{
		"items":  items,
		"wires":  wires,
		"groups": groups,
	}})
	return nil
}

func (e *Editor) reject(req request, s *Session, err error) {
	metrics.EditsTotal.WithLabelValues(req.op, string(repository.OutcomeRejected)).Inc()
	if errors.Is(err, domain.ErrCycle) {
		metrics.CyclesRejected.Inc()
	}

	entry := s.current
	if entry.Op == "" {
		entry.Op = req.op
	}
	entry.Outcome = repository.OutcomeRejected
	entry.Error = err.Error()
	e.record(req.ctx, entry)

	e.publish(Event{Type: EventEditRejected, Payload: map[string]string{
		"op":         entry.Op,
		"subject_id": entry.SubjectID,
		"error":      err.Error(),
	}})
}

func (e *Editor) record(ctx context.Context, entries ...repository.Entry) {
	if e.opts.Journal == nil || len(entries) == 0 {
		return
	}
	if err := e.opts.Journal.Append(context.WithoutCancel(ctx), entries...); err != nil {
		log.Printf("editor: failed to journal %d entries: %v", len(entries), err)
	}
}

func (e *Editor) publish(ev Event) {
	if e.opts.Bus == nil {
		return
	}
	ev.Version = e.version
	e.opts.Bus.Publish(ev)
}

func (e *Editor) publishSnapshot() {
	snap := domain.DeriveSnapshot(e.root)
	snap.Version = e.version
	e.snap.Store(snap)
	metrics.SetTreeCounts(len(snap.Items), len(snap.Wires), len(snap.Groups))
}

func wireOwners(root *domain.Group) map[*domain.Wire]*domain.Group {
	owners := make(map[*domain.Wire]*domain.Group)
	root.VisitWires(func(w *domain.Wire) bool {
		owners[w] = w.Group()
		return false
	})
	return owners
}

// rehomedWires returns the wires that existed before an edit and now live in
// a different group
func rehomedWires(root *domain.Group, before map[*domain.Wire]*domain.Group) []*domain.Wire {
	var moved []*domain.Wire
	root.VisitWires(func(w *domain.Wire) bool {
		if prev, ok := before[w]; ok && prev != w.Group() {
			moved = append(moved, w)
		}
		return false
	})
	return moved
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
