// Package handler implements the HTTP API of the control plane.
//
// Every control operation of the graph service is exposed as a REST route
// under /api/graphs. Mutations answer with the {status, description}
// envelope; reads answer with the requested view as JSON. Error classes map
// to status codes:
//
//   - not found and wrong brick kind: 404
//   - already exists: 409
//   - invalid argument: 400
//   - capability errors: 422
//   - internal errors: 500
//
// Middleware provides panic recovery, CORS and request logging. The Logger
// middleware assigns every request an id that is carried through the
// context into the journal.
package handler
