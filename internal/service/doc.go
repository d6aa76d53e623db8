// Package service implements the control operations exposed over HTTP.
//
// GraphService wraps the graph registry. Every mutating operation is timed
// and counted through a Recorder, written to the operation journal with its
// outcome, and, when it succeeds, published on the EventBus so connected
// clients can follow changes over server-sent events.
//
// ApplyTopology builds a whole graph from a declarative topology; it backs
// both seed files loaded at startup and topology import over HTTP.
package service
