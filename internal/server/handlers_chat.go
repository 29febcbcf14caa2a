package server

import (
	"github.com/labstack/echo/v4"

	apperrors "github.com/enrollhq/leadpulse/internal/errors"
	"github.com/enrollhq/leadpulse/internal/metrics"
)

type chatMessageRequest struct {
	Message string `json:"message"`
}

// handleChat is the public website assistant endpoint. It shares the lead
// form's per-client rate limit so the upstream model cannot be hammered
// through the open route.
func (s *Server) handleChat(c echo.Context) error {
	if s.assistant == nil {
		return apperrors.InternalError("chat assistant is not configured", nil)
	}

	var req chatMessageRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Message == "" {
		return apperrors.ValidationError("message is required")
	}

	ctx := c.Request().Context()
	allowed, err := s.rateLimiter.Allow(ctx, c.RealIP())
	if err != nil {
		return apperrors.InternalError("rate limit check failed", err)
	}
	if !allowed {
		metrics.ChatRequestsTotal.WithLabelValues("rate_limited").Inc()
		return apperrors.RateLimitedError("too many requests, try again later")
	}

	answer, err := s.assistant.Ask(ctx, req.Message)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("failed").Inc()
		return apperrors.ExternalError("failed to reach the chat assistant", err)
	}

	metrics.ChatRequestsTotal.WithLabelValues("answered").Inc()
	return c.JSON(200, map[string]string{"text": answer})
}
