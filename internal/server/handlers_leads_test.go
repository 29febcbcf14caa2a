package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrollhq/leadpulse/internal/domain"
)

func postLead(srv *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreateLead_Success(t *testing.T) {
	var created *domain.Lead
	app := &mockAppService{
		createLeadFn: func(_ context.Context, lead *domain.Lead) (*domain.Lead, error) {
			created = lead
			out := *lead
			out.ID = 1
			out.Status = domain.LeadStatusNew
			out.CreatedAt = time.Now()
			return &out, nil
		},
	}
	srv := newTestServer(t, app)

	rec := postLead(srv, `{"name":"Priya Sharma","email":"priya@example.com","phone":"111","grade":"Grade 5","source":"website"}`)

	assert.Equal(t, 201, rec.Code)
	require.NotNil(t, created)
	assert.Equal(t, "Priya Sharma", created.Name)
	assert.Equal(t, "website", created.Source)
}

func TestHandleCreateLead_RequiresName(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	rec := postLead(srv, `{"email":"a@example.com"}`)
	assert.Equal(t, 400, rec.Code)
}

func TestHandleCreateLead_RequiresContact(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	rec := postLead(srv, `{"name":"No Contact"}`)
	assert.Equal(t, 400, rec.Code)
}

func TestHandleCreateLead_RateLimited(t *testing.T) {
	limiter := &mockRateLimiter{
		allowFn: func(context.Context, string) (bool, error) { return false, nil },
	}
	srv := newTestServer(t, &mockAppService{}, withRateLimiter(limiter))

	rec := postLead(srv, `{"name":"Priya","email":"priya@example.com"}`)
	assert.Equal(t, 429, rec.Code)
}

func TestHandleCreateLead_DuplicateAcknowledged(t *testing.T) {
	deduper := &mockDeduper{
		firstSeenFn: func(context.Context, string, string) (bool, error) { return false, nil },
	}
	createCalled := false
	app := &mockAppService{
		createLeadFn: func(_ context.Context, lead *domain.Lead) (*domain.Lead, error) {
			createCalled = true
			return lead, nil
		},
	}
	srv := newTestServer(t, app, withDeduper(deduper))

	rec := postLead(srv, `{"name":"Priya","email":"priya@example.com"}`)

	// Duplicate looks like success to the form, but nothing is stored
	assert.Equal(t, 202, rec.Code)
	assert.False(t, createCalled)
}

func TestHandleUpdateLeadStatus(t *testing.T) {
	app := &mockAppService{
		updateLeadStatusFn: func(_ context.Context, actor domain.Identity, id int64, status domain.LeadStatus) (*domain.Lead, error) {
			assert.Equal(t, int64(5), id)
			assert.Equal(t, domain.LeadStatusContacted, status)
			assert.Equal(t, int64(2), actor.ID)
			return &domain.Lead{ID: id, Status: status}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodPatch, "/api/leads/5/status", strings.NewReader(`{"status":"CONTACTED"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+mintToken(t, staffAdmin(PermManageLeads)))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONTACTED")
}

func TestHandleUpdateLeadStatus_BadStatus(t *testing.T) {
	app := &mockAppService{
		updateLeadStatusFn: func(context.Context, domain.Identity, int64, domain.LeadStatus) (*domain.Lead, error) {
			return nil, domain.ErrInvalidLeadStatus
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodPatch, "/api/leads/5/status", strings.NewReader(`{"status":"ARCHIVED"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+mintToken(t, staffAdmin(PermManageLeads)))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestHandleUpdateLeadStatus_NotFound(t *testing.T) {
	app := &mockAppService{
		updateLeadStatusFn: func(context.Context, domain.Identity, int64, domain.LeadStatus) (*domain.Lead, error) {
			return nil, domain.ErrLeadNotFound
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodPatch, "/api/leads/99/status", strings.NewReader(`{"status":"CONTACTED"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+mintToken(t, staffAdmin(PermManageLeads)))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 404, rec.Code)
}

func TestHandleDeleteLead(t *testing.T) {
	app := &mockAppService{
		deleteLeadFn: func(_ context.Context, _ domain.Identity, id int64) error {
			assert.Equal(t, int64(5), id)
			return nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodDelete, "/api/leads/5", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+mintToken(t, staffAdmin(PermManageLeads)))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 204, rec.Code)
}

func TestHandleExportLeads_CSV(t *testing.T) {
	app := &mockAppService{
		listLeadsFn: func(context.Context) ([]domain.Lead, error) {
			return []domain.Lead{
				{ID: 1, Name: "Priya Sharma", Email: "priya@example.com", Phone: "111", Grade: "Grade 5", City: "Pune", Source: "website", Status: domain.LeadStatusNew, CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
				{ID: 2, Name: `Rao, "RK"`, Email: "rk@example.com", Phone: "222", Status: domain.LeadStatusContacted, CreatedAt: time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)},
			}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/leads/export", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+mintToken(t, staffAdmin(PermManageLeads)))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")

	body := rec.Body.String()
	assert.Contains(t, body, "ID,Name,Student,Email,Phone,Grade,City,Source,Status,Created At")
	assert.Contains(t, body, "Priya Sharma")
	// Quoting is handled by the CSV writer
	assert.Contains(t, body, `"Rao, ""RK"""`)
}
