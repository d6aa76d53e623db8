// Package repository defines the data access interfaces for the control
// plane.
//
// Graphs themselves live only in memory and are never persisted. What is
// stored is the operation journal: one row per control operation with its
// outcome, so operators can see who changed a graph and what failed.
//
// # SQLite Implementation
//
// The sqlite subpackage implements Journal on modernc.org/sqlite (pure Go,
// no cgo) with WAL mode. The schema is created on startup. Tests run
// against in-memory databases.
package repository
