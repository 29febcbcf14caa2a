package server

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/enrollhq/leadpulse/internal/auth"
	"github.com/enrollhq/leadpulse/internal/broadcast"
	"github.com/enrollhq/leadpulse/internal/config"
	"github.com/enrollhq/leadpulse/internal/domain"
	apperrors "github.com/enrollhq/leadpulse/internal/errors"
)

// --- Mock implementations ---

type mockAppService struct {
	createLeadFn          func(ctx context.Context, lead *domain.Lead) (*domain.Lead, error)
	listLeadsFn           func(ctx context.Context) ([]domain.Lead, error)
	updateLeadStatusFn    func(ctx context.Context, actor domain.Identity, id int64, status domain.LeadStatus) (*domain.Lead, error)
	deleteLeadFn          func(ctx context.Context, actor domain.Identity, id int64) error
	addLeadRemarkFn       func(ctx context.Context, actor domain.Identity, leadID int64, remark string) (*domain.LeadRemark, error)
	listLeadRemarksFn     func(ctx context.Context, leadID int64) ([]domain.LeadRemark, error)
	deleteLeadRemarkFn    func(ctx context.Context, actor domain.Identity, remarkID int64) error
	loginFn               func(ctx context.Context, email, password string) (string, *domain.Admin, error)
	getAdminFn            func(ctx context.Context, id int64) (*domain.Admin, error)
	listAdminsFn          func(ctx context.Context) ([]domain.Admin, error)
	createAdminFn         func(ctx context.Context, actor domain.Identity, email, name, password string, role domain.Role, permissions []string) (*domain.Admin, error)
	updateAdminFn         func(ctx context.Context, actor domain.Identity, id int64, name string, role domain.Role, permissions []string, isFrozen bool) (*domain.Admin, error)
	deleteAdminFn         func(ctx context.Context, actor domain.Identity, id int64) error
	resetPasswordFn       func(ctx context.Context, actor domain.Identity, id int64, newPassword string) error
	getEmailSettingsFn    func(ctx context.Context) (*domain.EmailConfig, error)
	updateEmailSettingsFn func(ctx context.Context, actor domain.Identity, receiverEmail string, isEnabled bool) (*domain.EmailConfig, error)
	sendTestEmailFn       func(ctx context.Context, actor domain.Identity) error
	activityPageFn        func(ctx context.Context, page, limit int) (*domain.ActivityPage, error)
	emailStatsFn          func(ctx context.Context) (*domain.EmailStats, error)
	recentEmailLogsFn     func(ctx context.Context, limit int) ([]domain.EmailLog, error)
}

func (m *mockAppService) CreateLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	if m.createLeadFn != nil {
		return m.createLeadFn(ctx, lead)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	if m.listLeadsFn != nil {
		return m.listLeadsFn(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) UpdateLeadStatus(ctx context.Context, actor domain.Identity, id int64, status domain.LeadStatus) (*domain.Lead, error) {
	if m.updateLeadStatusFn != nil {
		return m.updateLeadStatusFn(ctx, actor, id, status)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) DeleteLead(ctx context.Context, actor domain.Identity, id int64) error {
	if m.deleteLeadFn != nil {
		return m.deleteLeadFn(ctx, actor, id)
	}
	return fmt.Errorf("not implemented")
}

func (m *mockAppService) AddLeadRemark(ctx context.Context, actor domain.Identity, leadID int64, remark string) (*domain.LeadRemark, error) {
	if m.addLeadRemarkFn != nil {
		return m.addLeadRemarkFn(ctx, actor, leadID, remark)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) ListLeadRemarks(ctx context.Context, leadID int64) ([]domain.LeadRemark, error) {
	if m.listLeadRemarksFn != nil {
		return m.listLeadRemarksFn(ctx, leadID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) DeleteLeadRemark(ctx context.Context, actor domain.Identity, remarkID int64) error {
	if m.deleteLeadRemarkFn != nil {
		return m.deleteLeadRemarkFn(ctx, actor, remarkID)
	}
	return fmt.Errorf("not implemented")
}

func (m *mockAppService) Login(ctx context.Context, email, password string) (string, *domain.Admin, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return "", nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) GetAdmin(ctx context.Context, id int64) (*domain.Admin, error) {
	if m.getAdminFn != nil {
		return m.getAdminFn(ctx, id)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	if m.listAdminsFn != nil {
		return m.listAdminsFn(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) CreateAdmin(ctx context.Context, actor domain.Identity, email, name, password string, role domain.Role, permissions []string) (*domain.Admin, error) {
	if m.createAdminFn != nil {
		return m.createAdminFn(ctx, actor, email, name, password, role, permissions)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) UpdateAdmin(ctx context.Context, actor domain.Identity, id int64, name string, role domain.Role, permissions []string, isFrozen bool) (*domain.Admin, error) {
	if m.updateAdminFn != nil {
		return m.updateAdminFn(ctx, actor, id, name, role, permissions, isFrozen)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) DeleteAdmin(ctx context.Context, actor domain.Identity, id int64) error {
	if m.deleteAdminFn != nil {
		return m.deleteAdminFn(ctx, actor, id)
	}
	return fmt.Errorf("not implemented")
}

func (m *mockAppService) ResetPassword(ctx context.Context, actor domain.Identity, id int64, newPassword string) error {
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(ctx, actor, id, newPassword)
	}
	return fmt.Errorf("not implemented")
}

func (m *mockAppService) GetEmailSettings(ctx context.Context) (*domain.EmailConfig, error) {
	if m.getEmailSettingsFn != nil {
		return m.getEmailSettingsFn(ctx)
	}
	return &domain.EmailConfig{IsEnabled: true}, nil
}

func (m *mockAppService) UpdateEmailSettings(ctx context.Context, actor domain.Identity, receiverEmail string, isEnabled bool) (*domain.EmailConfig, error) {
	if m.updateEmailSettingsFn != nil {
		return m.updateEmailSettingsFn(ctx, actor, receiverEmail, isEnabled)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) SendTestEmail(ctx context.Context, actor domain.Identity) error {
	if m.sendTestEmailFn != nil {
		return m.sendTestEmailFn(ctx, actor)
	}
	return fmt.Errorf("not implemented")
}

func (m *mockAppService) ActivityPage(ctx context.Context, page, limit int) (*domain.ActivityPage, error) {
	if m.activityPageFn != nil {
		return m.activityPageFn(ctx, page, limit)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) EmailStats(ctx context.Context) (*domain.EmailStats, error) {
	if m.emailStatsFn != nil {
		return m.emailStatsFn(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockAppService) RecentEmailLogs(ctx context.Context, limit int) ([]domain.EmailLog, error) {
	if m.recentEmailLogsFn != nil {
		return m.recentEmailLogsFn(ctx, limit)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockRateLimiter struct {
	allowFn func(ctx context.Context, clientIP string) (bool, error)
}

func (m *mockRateLimiter) Allow(ctx context.Context, clientIP string) (bool, error) {
	if m.allowFn != nil {
		return m.allowFn(ctx, clientIP)
	}
	return true, nil
}

type mockDeduper struct {
	firstSeenFn func(ctx context.Context, email, phone string) (bool, error)
}

func (m *mockDeduper) FirstSeen(ctx context.Context, email, phone string) (bool, error) {
	if m.firstSeenFn != nil {
		return m.firstSeenFn(ctx, email, phone)
	}
	return true, nil
}

type mockHealth struct {
	err error
}

func (m *mockHealth) Ping(context.Context) error { return m.err }

type mockAssistant struct {
	askFn func(ctx context.Context, question string) (string, error)
}

func (m *mockAssistant) Ask(ctx context.Context, question string) (string, error) {
	if m.askFn != nil {
		return m.askFn(ctx, question)
	}
	return "mock answer", nil
}

// --- Test fixtures ---

const testTokenSecret = "0123456789abcdef0123456789abcdef"

func testTokenService() *auth.TokenService {
	return auth.NewTokenService(testTokenSecret, time.Hour, clockwork.NewRealClock())
}

func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		HeartbeatInterval: 30 * time.Second,
	}
}

type serverOption func(*serverDeps)

type serverDeps struct {
	rateLimiter leadRateLimiter
	deduper     leadDeduper
	assistant   chatAssistant
	hub         *broadcast.Hub
}

func withRateLimiter(rl leadRateLimiter) serverOption {
	return func(d *serverDeps) { d.rateLimiter = rl }
}

func withDeduper(dd leadDeduper) serverOption {
	return func(d *serverDeps) { d.deduper = dd }
}

func withHub(hub *broadcast.Hub) serverOption {
	return func(d *serverDeps) { d.hub = hub }
}

func withAssistant(a chatAssistant) serverOption {
	return func(d *serverDeps) { d.assistant = a }
}

func newTestServer(t *testing.T, app domain.AppService, opts ...serverOption) *Server {
	t.Helper()

	deps := &serverDeps{
		rateLimiter: &mockRateLimiter{},
		deduper:     &mockDeduper{},
	}
	for _, opt := range opts {
		opt(deps)
	}
	if deps.hub == nil {
		deps.hub = broadcast.NewHub(clockwork.NewFakeClock(), 30*time.Second)
		t.Cleanup(deps.hub.Stop)
	}

	return NewServer(testConfig(), app, deps.hub, testTokenService(), deps.rateLimiter, deps.deduper, deps.assistant, &mockHealth{}, &mockHealth{})
}

// mintToken produces a valid bearer token for the given admin.
func mintToken(t *testing.T, admin *domain.Admin) string {
	t.Helper()
	token, err := testTokenService().Mint(admin)
	require.NoError(t, err)
	return token
}

func staffAdmin(perms ...string) *domain.Admin {
	return &domain.Admin{ID: 2, Email: "staff@school.test", Name: "Staff", Role: domain.RoleUser, Permissions: perms}
}

func superAdmin() *domain.Admin {
	return &domain.Admin{ID: 1, Email: "root@school.test", Name: "Root", Role: domain.RoleSuperAdmin}
}

// callHandler runs a handler through the error middleware so structured
// errors turn into HTTP responses, like in production.
func callHandler(h echo.HandlerFunc, c echo.Context) error {
	return apperrors.Middleware()(h)(c)
}
