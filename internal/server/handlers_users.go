package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/enrollhq/leadpulse/internal/auth"
	"github.com/enrollhq/leadpulse/internal/domain"
	apperrors "github.com/enrollhq/leadpulse/internal/errors"
)

func (s *Server) handleListUsers(c echo.Context) error {
	admins, err := s.app.ListAdmins(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list users", err)
	}
	return c.JSON(200, admins)
}

type createUserRequest struct {
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Password    string      `json:"password"`
	Role        domain.Role `json:"role"`
	Permissions []string    `json:"permissions"`
}

func (s *Server) handleCreateUser(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Email == "" || req.Name == "" {
		return apperrors.ValidationError("email and name are required")
	}

	admin, err := s.app.CreateAdmin(c.Request().Context(), identity, req.Email, req.Name, req.Password, req.Role, req.Permissions)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordTooShort):
			return apperrors.ValidationError("password too short").WithField("min_length", auth.MinPasswordLength)
		case errors.Is(err, domain.ErrEmailTaken):
			return apperrors.ConflictError("email already in use").WithField("email", req.Email)
		}
		return apperrors.InternalError("failed to create user", err)
	}

	return c.JSON(http.StatusCreated, admin)
}

type updateUserRequest struct {
	Name        string      `json:"name"`
	Role        domain.Role `json:"role"`
	Permissions []string    `json:"permissions"`
	IsFrozen    bool        `json:"isFrozen"`
}

func (s *Server) handleUpdateUser(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("invalid user id").WithField("id", c.Param("id"))
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	admin, err := s.app.UpdateAdmin(c.Request().Context(), identity, id, req.Name, req.Role, req.Permissions, req.IsFrozen)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAdminNotFound):
			return apperrors.NotFoundError("user not found").WithField("id", id)
		case errors.Is(err, domain.ErrSuperAdminProtected):
			return apperrors.ForbiddenError("super admin account cannot be modified")
		case errors.Is(err, domain.ErrSelfFreeze):
			return apperrors.ForbiddenError("cannot freeze own account")
		}
		return apperrors.InternalError("failed to update user", err)
	}

	return c.JSON(200, admin)
}

func (s *Server) handleDeleteUser(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("invalid user id").WithField("id", c.Param("id"))
	}

	if err := s.app.DeleteAdmin(c.Request().Context(), identity, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrAdminNotFound):
			return apperrors.NotFoundError("user not found").WithField("id", id)
		case errors.Is(err, domain.ErrSuperAdminProtected):
			return apperrors.ForbiddenError("super admin account cannot be deleted")
		case errors.Is(err, domain.ErrSelfDelete):
			return apperrors.ForbiddenError("cannot delete own account")
		}
		return apperrors.InternalError("failed to delete user", err)
	}

	return c.NoContent(http.StatusNoContent)
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleResetPassword(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperrors.ValidationError("invalid user id").WithField("id", c.Param("id"))
	}

	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.app.ResetPassword(c.Request().Context(), identity, id, req.Password); err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordTooShort):
			return apperrors.ValidationError("password too short").WithField("min_length", auth.MinPasswordLength)
		case errors.Is(err, domain.ErrAdminNotFound):
			return apperrors.NotFoundError("user not found").WithField("id", id)
		case errors.Is(err, domain.ErrSuperAdminProtected):
			return apperrors.ForbiddenError("cannot reset another super admin's password")
		}
		return apperrors.InternalError("failed to reset password", err)
	}

	return c.JSON(200, map[string]string{"status": "ok"})
}
