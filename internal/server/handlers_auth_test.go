package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrollhq/leadpulse/internal/domain"
)

func TestHandleLogin_Success(t *testing.T) {
	app := &mockAppService{
		loginFn: func(_ context.Context, email, password string) (string, *domain.Admin, error) {
			assert.Equal(t, "staff@school.test", email)
			assert.Equal(t, "s3cure-Pa55word", password)
			return "tok123", staffAdmin(), nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"staff@school.test","password":"s3cure-Pa55word"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "tok123")
	assert.Contains(t, rec.Body.String(), "staff@school.test")
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	app := &mockAppService{
		loginFn: func(context.Context, string, string) (string, *domain.Admin, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"staff@school.test","password":"wrong"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 401, rec.Code)
}

func TestHandleLogin_FrozenAccount(t *testing.T) {
	app := &mockAppService{
		loginFn: func(context.Context, string, string) (string, *domain.Admin, error) {
			return "", nil, domain.ErrAccountFrozen
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"frozen@school.test","password":"s3cure-Pa55word"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 403, rec.Code)
}

func TestHandleLogin_MissingFields(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 401, rec.Code)
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 401, rec.Code)
}

func TestRequireAuth_HeaderToken(t *testing.T) {
	app := &mockAppService{
		listLeadsFn: func(context.Context) ([]domain.Lead, error) {
			return []domain.Lead{}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+mintToken(t, staffAdmin(PermManageLeads)))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
}

func TestRequireAuth_QueryParamToken(t *testing.T) {
	app := &mockAppService{
		listLeadsFn: func(context.Context) ([]domain.Lead, error) {
			return []domain.Lead{}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/leads?token="+mintToken(t, staffAdmin(PermManageLeads)), nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
}

func TestRequirePermission_Denied(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	// Authenticated but without the manage_leads permission
	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+mintToken(t, staffAdmin("view_activity")))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 403, rec.Code)
}

func TestRequirePermission_SuperAdminPassesAll(t *testing.T) {
	app := &mockAppService{
		listLeadsFn: func(context.Context) ([]domain.Lead, error) {
			return []domain.Lead{}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+mintToken(t, superAdmin()))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
}

func TestHandleMe(t *testing.T) {
	admin := staffAdmin(PermManageLeads)
	app := &mockAppService{
		getAdminFn: func(_ context.Context, id int64) (*domain.Admin, error) {
			require.Equal(t, admin.ID, id)
			return admin, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+mintToken(t, admin))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "staff@school.test")
}

func TestHandleMe_DeletedAccount(t *testing.T) {
	app := &mockAppService{
		getAdminFn: func(context.Context, int64) (*domain.Admin, error) {
			return nil, domain.ErrAdminNotFound
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+mintToken(t, staffAdmin()))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 401, rec.Code)
}
