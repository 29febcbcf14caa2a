package broadcast

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/enrollhq/leadpulse/internal/domain"
)

const sendBufferSize = 16

// Connection is one live admin dashboard stream. It is created by
// Hub.Register and owned by the hub for its lifetime; the subscription
// handler only pumps its frames into the HTTP response.
type Connection struct {
	id       uuid.UUID
	identity domain.Identity

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(identity domain.Identity) *Connection {
	return &Connection{
		id:       uuid.New(),
		identity: identity,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
}

// ID returns the unique connection identifier, used for logging only.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// Identity returns the authenticated subscriber this connection belongs to.
func (c *Connection) Identity() domain.Identity {
	return c.identity
}

// markClosed transitions the connection to its terminal state. Idempotent;
// only the hub calls this, from Unregister.
func (c *Connection) markClosed() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Done is closed when the connection has been unregistered.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// flusher is the part of http.ResponseWriter the pump needs beyond io.Writer.
type flusher interface {
	Flush()
}

// Pump writes queued frames to w until the request context ends, the
// connection is unregistered, or a write fails. A write failure is how a
// silently dead socket is discovered; the caller must unregister the
// connection on any return.
func (c *Connection) Pump(ctx context.Context, w io.Writer) error {
	f, _ := w.(flusher)
	for {
		select {
		case frame := <-c.send:
			if _, err := w.Write(frame); err != nil {
				return err
			}
			if f != nil {
				f.Flush()
			}
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		}
	}
}
