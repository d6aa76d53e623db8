// Package registry owns the set of running packet graphs.
//
// A Registry maps graph names to Handles. Each Handle guards one
// brick.Graph and its running flag with a single reader/writer lock, and is
// shared with the driver goroutine that polls the graph in a tight loop.
//
// Lock order is always registry lock first, then handle lock. The driver
// only ever takes its own handle lock, so there is no cycle. Reads
// (List, DescribeGraph, GetBrick, Topology) take read locks; everything
// else takes the handle write lock for its whole duration, which pauses
// polling of that graph until the operation returns.
//
// Deletion is cooperative: Delete clears the running flag and returns a
// channel that is closed once the driver has observed it, closed every
// brick and exited. Callers may wait on it or not.
//
// Link and UnlinkPair take both bricks out of the graph, call the west
// brick's capability, and put both back under their original names
// whatever the outcome. A brick is never lost by a failed link.
package registry
