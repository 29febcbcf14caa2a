package server

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/enrollhq/leadpulse/internal/domain"
	apperrors "github.com/enrollhq/leadpulse/internal/errors"
)

func (s *Server) handleGetEmailSettings(c echo.Context) error {
	cfg, err := s.app.GetEmailSettings(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to load email settings", err)
	}
	return c.JSON(200, cfg)
}

type updateEmailSettingsRequest struct {
	ReceiverEmail string `json:"receiverEmail"`
	IsEnabled     bool   `json:"isEnabled"`
}

func (s *Server) handleUpdateEmailSettings(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req updateEmailSettingsRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.IsEnabled && req.ReceiverEmail == "" {
		return apperrors.ValidationError("receiver email is required when notifications are enabled")
	}

	cfg, err := s.app.UpdateEmailSettings(c.Request().Context(), identity, req.ReceiverEmail, req.IsEnabled)
	if err != nil {
		return apperrors.InternalError("failed to update email settings", err)
	}
	return c.JSON(200, cfg)
}

func (s *Server) handleSendTestEmail(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	if err := s.app.SendTestEmail(c.Request().Context(), identity); err != nil {
		if errors.Is(err, domain.ErrMailNotConfigured) {
			return apperrors.ValidationError("email delivery is not configured")
		}
		return apperrors.ExternalError("failed to send test email", err)
	}

	return c.JSON(200, map[string]string{"message": "test email sent"})
}

func (s *Server) handleEmailStats(c echo.Context) error {
	stats, err := s.app.EmailStats(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to load email stats", err)
	}
	return c.JSON(200, stats)
}

func (s *Server) handleEmailLogs(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.ValidationError("invalid limit").WithField("limit", raw)
		}
		limit = parsed
	}

	logs, err := s.app.RecentEmailLogs(c.Request().Context(), limit)
	if err != nil {
		return apperrors.InternalError("failed to load email logs", err)
	}
	return c.JSON(200, logs)
}

func (s *Server) handleActivity(c echo.Context) error {
	page, limit := 1, 20
	if raw := c.QueryParam("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.ValidationError("invalid page").WithField("page", raw)
		}
		page = parsed
	}
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.ValidationError("invalid limit").WithField("limit", raw)
		}
		limit = parsed
	}

	result, err := s.app.ActivityPage(c.Request().Context(), page, limit)
	if err != nil {
		return apperrors.InternalError("failed to load activity", err)
	}
	return c.JSON(200, result)
}
