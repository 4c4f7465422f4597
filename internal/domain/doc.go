// Package domain defines the containment model for the canvasgroup diagram editor.
//
// A canvas is a tree of Groups. Each Group exclusively owns three ordered
// collections: child Items, child Wires and child Groups. Children keep a
// non-owning back-reference to their owner so that the engine can walk up the
// tree, but all mutation goes through the Group operations in this package.
//
// # Core Types
//
// Item is a leaf element with a canvas position and zero or more Ports.
//
// Port is an attachment point on an Item. Wires terminate on ports; a port
// moves implicitly with its Item.
//
// Wire is a directed connection from an output Port to an input Port. A wire
// always lives in the nearest common ancestor of the groups owning its two
// endpoint items.
//
// Group is the container and implements the containment engine: ownership
// transfer (AddItem, AddGroup, AddWire, Remove*), bulk moves (MoveContents),
// wire re-homing (RehomeWire) and ancestor queries (Level, Higher,
// GlobalGroup).
//
// # Invariants
//
//   - acyclic: the parent chain of every Group ends at a single root.
//   - single-owner: no Item, Wire or Group is owned twice.
//   - back-reference: back-references agree with the owning collections.
//   - wire-scope: a Wire is owned by the nearest common ancestor of its endpoints.
//
// Validate checks all four. With SetDebug(true) every mutating operation
// re-validates the tree afterwards and panics on a broken invariant.
//
// # Derived Views
//
// Snapshot is an immutable flattened copy of a tree that can be handed to
// another goroutine. Scene is a declarative description used to build trees
// for fixtures and seed files.
//
// The package is single-threaded: a tree must only be touched by the
// goroutine that owns it.
package domain
