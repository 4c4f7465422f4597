// Package repository defines the data access interfaces for canvasgroup.
//
// The only persisted data is the edit journal: one entry per edit submitted
// to the editor, whether it was applied or rejected. The journal is a
// diagnostic trail; the diagram itself is not persisted here.
//
// # SQLite Implementation
//
// The sqlite subpackage implements Journal on SQLite in WAL mode and
// migrates its schema on open. Tests use in-memory databases.
package repository
