package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/enrollhq/leadpulse/internal/logging"
)

// handleEvents is the live event subscription endpoint. The response stays
// open for the lifetime of the dashboard tab; frames are pushed by the hub
// and heartbeats keep intermediaries from reaping the idle connection.
func (s *Server) handleEvents(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	// Disable proxy buffering so frames reach the client immediately.
	resp.Header().Set("X-Accel-Buffering", "no")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	conn := s.hub.Register(identity)
	defer s.hub.Unregister(conn)

	log := logging.WithAdmin(identity.ID).With("connection_id", conn.ID())
	log.Info("event stream opened")
	s.hub.Greet(conn)

	err = conn.Pump(c.Request().Context(), resp)
	if err != nil {
		log.Info("event stream closed on write error", "error", err)
	} else {
		log.Info("event stream closed")
	}
	return nil
}
