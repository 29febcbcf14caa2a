// Package broadcast implements the live event distribution hub for admin
// dashboard sessions.
//
// The Hub owns a registry of SSE connections, fans events out to all of them,
// and runs a heartbeat ticker that keeps idle connections alive through
// proxies. Per-connection buffered channels decouple the broadcast path from
// slow clients; a client that cannot keep up is evicted rather than allowed
// to stall delivery to the others.
package broadcast
