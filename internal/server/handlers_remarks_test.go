package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/enrollhq/leadpulse/internal/domain"
)

func TestHandleAddRemark_Success(t *testing.T) {
	app := &mockAppService{
		addLeadRemarkFn: func(_ context.Context, actor domain.Identity, leadID int64, remark string) (*domain.LeadRemark, error) {
			assert.Equal(t, int64(2), actor.ID)
			assert.Equal(t, int64(5), leadID)
			assert.Equal(t, "Called back, interested", remark)
			return &domain.LeadRemark{ID: 1, LeadID: leadID, AdminID: actor.ID, Remark: remark, CreatedAt: time.Now()}, nil
		},
	}
	srv := newTestServer(t, app)

	req := authedRequest(t, http.MethodPost, "/api/leads/5/remarks",
		`{"remark":"Called back, interested"}`, staffAdmin(PermManageLeads))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 201, rec.Code)
	assert.Contains(t, rec.Body.String(), "Called back, interested")
}

func TestHandleAddRemark_RequiresBody(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := authedRequest(t, http.MethodPost, "/api/leads/5/remarks",
		`{"remark":""}`, staffAdmin(PermManageLeads))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
}

func TestHandleAddRemark_LeadNotFound(t *testing.T) {
	app := &mockAppService{
		addLeadRemarkFn: func(context.Context, domain.Identity, int64, string) (*domain.LeadRemark, error) {
			return nil, domain.ErrLeadNotFound
		},
	}
	srv := newTestServer(t, app)

	req := authedRequest(t, http.MethodPost, "/api/leads/99/remarks",
		`{"remark":"orphan"}`, staffAdmin(PermManageLeads))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 404, rec.Code)
}

func TestHandleAddRemark_RequiresPermission(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := authedRequest(t, http.MethodPost, "/api/leads/5/remarks",
		`{"remark":"nope"}`, staffAdmin())
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 403, rec.Code)
}

func TestHandleListRemarks(t *testing.T) {
	app := &mockAppService{
		listLeadRemarksFn: func(_ context.Context, leadID int64) ([]domain.LeadRemark, error) {
			assert.Equal(t, int64(5), leadID)
			return []domain.LeadRemark{
				{ID: 2, LeadID: leadID, Remark: "second call", AdminName: "Staff"},
				{ID: 1, LeadID: leadID, Remark: "first call", AdminName: "Staff"},
			}, nil
		},
	}
	srv := newTestServer(t, app)

	req := authedRequest(t, http.MethodGet, "/api/leads/5/remarks", "", staffAdmin(PermManageLeads))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "second call")
	assert.Contains(t, rec.Body.String(), "first call")
}

func TestHandleDeleteRemark_Success(t *testing.T) {
	deleted := int64(0)
	app := &mockAppService{
		deleteLeadRemarkFn: func(_ context.Context, _ domain.Identity, remarkID int64) error {
			deleted = remarkID
			return nil
		},
	}
	srv := newTestServer(t, app)

	req := authedRequest(t, http.MethodDelete, "/api/leads/remarks/7", "", staffAdmin(PermManageLeads))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 204, rec.Code)
	assert.Equal(t, int64(7), deleted)
}

func TestHandleDeleteRemark_NotFound(t *testing.T) {
	app := &mockAppService{
		deleteLeadRemarkFn: func(context.Context, domain.Identity, int64) error {
			return domain.ErrRemarkNotFound
		},
	}
	srv := newTestServer(t, app)

	req := authedRequest(t, http.MethodDelete, "/api/leads/remarks/99", "", staffAdmin(PermManageLeads))
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, 404, rec.Code)
}
