// Package service hosts the containment tree behind an edit goroutine.
//
// # Editor
//
// Editor owns exactly one tree. Edits are submitted with Do and run one at a
// time on the goroutine executing Run, so the domain package never sees
// concurrent access. After every applied edit the editor derives an
// immutable domain.Snapshot and publishes it; Snapshot may be called from any
// goroutine.
//
// # Session
//
// Inside Do, a Session exposes id-based commands (MoveItem, MoveGroup,
// MergeGroups, Ungroup, GroupItems, Connect, Disconnect, DeleteItem). Unknown
// ids fail with domain.ErrNotFound and structural violations with
// domain.ErrCycle, in both cases before the tree is touched.
//
// # Event System
//
// Applied and rejected edits are journaled through repository.Journal and
// announced on the EventBus, which the hub forwards to SSE clients. Wires
// that an edit moved to a new nearest common ancestor are reported as
// wire_rehomed events.
package service
