package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/enrollhq/leadpulse/internal/domain"
	apperrors "github.com/enrollhq/leadpulse/internal/errors"
)

func (s *Server) handleListRemarks(c echo.Context) error {
	leadID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("invalid lead id").WithField("id", c.Param("id"))
	}

	remarks, err := s.app.ListLeadRemarks(c.Request().Context(), leadID)
	if err != nil {
		return apperrors.InternalError("failed to list remarks", err)
	}
	return c.JSON(200, remarks)
}

type addRemarkRequest struct {
	Remark string `json:"remark"`
}

func (s *Server) handleAddRemark(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	leadID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("invalid lead id").WithField("id", c.Param("id"))
	}

	var req addRemarkRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Remark == "" {
		return apperrors.ValidationError("remark is required")
	}

	remark, err := s.app.AddLeadRemark(c.Request().Context(), identity, leadID, req.Remark)
	if err != nil {
		if errors.Is(err, domain.ErrLeadNotFound) {
			return apperrors.NotFoundError("lead not found").WithField("id", leadID)
		}
		return apperrors.InternalError("failed to add remark", err)
	}

	return c.JSON(http.StatusCreated, remark)
}

func (s *Server) handleDeleteRemark(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("invalid remark id").WithField("id", c.Param("id"))
	}

	if err := s.app.DeleteLeadRemark(c.Request().Context(), identity, id); err != nil {
		if errors.Is(err, domain.ErrRemarkNotFound) {
			return apperrors.NotFoundError("remark not found").WithField("id", id)
		}
		return apperrors.InternalError("failed to delete remark", err)
	}

	return c.NoContent(http.StatusNoContent)
}
