package server

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/enrollhq/leadpulse/internal/domain"
	apperrors "github.com/enrollhq/leadpulse/internal/errors"
	"github.com/enrollhq/leadpulse/internal/metrics"
)

type createLeadRequest struct {
	Name        string `json:"name"`
	StudentName string `json:"studentName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Source      string `json:"source"`
	InquiryType string `json:"inquiryType"`
	Message     string `json:"message"`
	Grade       string `json:"grade"`
	City        string `json:"city"`
}

// handleCreateLead is the public lead capture endpoint. It sits behind a
// per-client rate limit and a duplicate-contact window; duplicates are
// acknowledged without creating anything so the form cannot be used to
// probe for stored contacts.
func (s *Server) handleCreateLead(c echo.Context) error {
	var req createLeadRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Name == "" {
		return apperrors.ValidationError("name is required")
	}
	if req.Email == "" && req.Phone == "" {
		return apperrors.ValidationError("email or phone is required")
	}

	ctx := c.Request().Context()
	clientIP := c.RealIP()

	allowed, err := s.rateLimiter.Allow(ctx, clientIP)
	if err != nil {
		return apperrors.InternalError("rate limit check failed", err)
	}
	if !allowed {
		metrics.LeadsRateLimitedTotal.Inc()
		return apperrors.RateLimitedError("too many submissions, try again later")
	}

	first, err := s.deduper.FirstSeen(ctx, req.Email, req.Phone)
	if err != nil {
		return apperrors.InternalError("dedup check failed", err)
	}
	if !first {
		metrics.LeadsDedupedTotal.Inc()
		return c.JSON(http.StatusAccepted, map[string]string{"status": "received"})
	}

	lead, err := s.app.CreateLead(ctx, &domain.Lead{
		Name:        req.Name,
		StudentName: req.StudentName,
		Email:       req.Email,
		Phone:       req.Phone,
		Source:      req.Source,
		InquiryType: req.InquiryType,
		Message:     req.Message,
		Grade:       req.Grade,
		City:        req.City,
	})
	if err != nil {
		return apperrors.InternalError("failed to create lead", err)
	}

	return c.JSON(http.StatusCreated, lead)
}

func (s *Server) handleListLeads(c echo.Context) error {
	leads, err := s.app.ListLeads(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list leads", err)
	}
	return c.JSON(200, leads)
}

type updateLeadStatusRequest struct {
	Status domain.LeadStatus `json:"status"`
}

func (s *Server) handleUpdateLeadStatus(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("invalid lead id").WithField("id", c.Param("id"))
	}

	var req updateLeadStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	lead, err := s.app.UpdateLeadStatus(c.Request().Context(), identity, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidLeadStatus):
			return apperrors.ValidationError("invalid lead status").WithField("status", string(req.Status))
		case errors.Is(err, domain.ErrLeadNotFound):
			return apperrors.NotFoundError("lead not found").WithField("id", id)
		}
		return apperrors.InternalError("failed to update lead", err)
	}

	return c.JSON(200, lead)
}

func (s *Server) handleDeleteLead(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("invalid lead id").WithField("id", c.Param("id"))
	}

	if err := s.app.DeleteLead(c.Request().Context(), identity, id); err != nil {
		if errors.Is(err, domain.ErrLeadNotFound) {
			return apperrors.NotFoundError("lead not found").WithField("id", id)
		}
		return apperrors.InternalError("failed to delete lead", err)
	}

	return c.NoContent(http.StatusNoContent)
}

// handleExportLeads streams the full lead list as CSV.
func (s *Server) handleExportLeads(c echo.Context) error {
	leads, err := s.app.ListLeads(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list leads", err)
	}

	filename := fmt.Sprintf("leads-%s.csv", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write([]string{"ID", "Name", "Student", "Email", "Phone", "Grade", "City", "Source", "Status", "Created At"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, lead := range leads {
		record := []string{
			strconv.FormatInt(lead.ID, 10),
			lead.Name,
			lead.StudentName,
			lead.Email,
			lead.Phone,
			lead.Grade,
			lead.City,
			lead.Source,
			string(lead.Status),
			lead.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
