// Package domain defines the core types shared by every layer of the RPG
// control plane.
//
// This package contains the value types that describe packet graphs to the
// outside world, plus the error taxonomy used by control operations.
//
// # Core Types
//
// Side names one of the two directional faces of a brick (west or east).
//
// Kind is the closed set of brick variants: nop, tap, hub, switch, nic and
// firewall.
//
// GraphDescription and BrickDescription are the read-only projections
// returned by introspection operations. Topology extends the graph
// description with the link relations recorded inside the bricks, and is the
// input of every renderer and exporter.
//
// # Errors
//
// Control operations fail with one of a small set of sentinel errors
// (ErrNotFound, ErrAlreadyExists, ErrInvalidArgument, ErrWrongBrickKind,
// ErrCapability, ErrInternal), always wrapped with a human readable
// description. Classify maps an error back to its class so that a transport
// can pick a status code.
//
// # Design Principles
//
// - No dependencies outside the standard library
// - Plain data types that serialize to JSON and YAML as-is
package domain
