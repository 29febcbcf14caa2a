// Package subscriber is the Go client for the admin event stream. It dials
// the subscription endpoint with a bearer token, parses the event-stream
// frames, and routes each named event to a typed handler. Events are treated
// as "something changed" signals: the subscriber marks the matching cached
// collection stale and refetches it rather than patching local state from
// the payload.
//
// A dropped stream is reconnected with exponential backoff; each reconnect
// is a fresh connection and starts with a new connected handshake.
package subscriber
