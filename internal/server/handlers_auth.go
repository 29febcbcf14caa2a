package server

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/enrollhq/leadpulse/internal/domain"
	apperrors "github.com/enrollhq/leadpulse/internal/errors"
)

const identityContextKey = "identity"

// requireAuth authenticates the request from a bearer token. The token comes
// from the Authorization header, or from a `token` query parameter because
// EventSource cannot set headers.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			return apperrors.UnauthorizedError("missing bearer token")
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			return apperrors.UnauthorizedError("invalid or expired token")
		}

		identity := claims.Identity()
		c.Set(identityContextKey, identity)
		c.Set("adminID", identity.ID)
		return next(c)
	}
}

// requirePermission gates a route on an admin area permission.
func (s *Server) requirePermission(perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := c.Get(identityContextKey).(domain.Identity)
			if !ok {
				return apperrors.InternalError("missing identity in context", nil)
			}
			if !identity.HasPermission(perm) {
				return apperrors.ForbiddenError("missing permission").WithField("permission", perm)
			}
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok && after != "" {
		return after
	}
	return c.QueryParam("token")
}

func currentIdentity(c echo.Context) (domain.Identity, error) {
	identity, ok := c.Get(identityContextKey).(domain.Identity)
	if !ok {
		return domain.Identity{}, apperrors.InternalError("missing identity in context", nil)
	}
	return identity, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string        `json:"token"`
	Admin *domain.Admin `json:"admin"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.ValidationError("email and password are required")
	}

	token, admin, err := s.app.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			return apperrors.UnauthorizedError("invalid credentials")
		case errors.Is(err, domain.ErrAccountFrozen):
			return apperrors.ForbiddenError("account is frozen")
		}
		return apperrors.InternalError("login failed", err)
	}

	return c.JSON(200, loginResponse{Token: token, Admin: admin})
}

func (s *Server) handleMe(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	admin, err := s.app.GetAdmin(c.Request().Context(), identity.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return apperrors.UnauthorizedError("account no longer exists")
		}
		return apperrors.InternalError("failed to load account", err)
	}
	return c.JSON(200, admin)
}
