package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/enrollhq/leadpulse/internal/auth"
	"github.com/enrollhq/leadpulse/internal/domain"
	"github.com/enrollhq/leadpulse/internal/metrics"
)

const leadNotifyTimeout = 15 * time.Second

// LeadNotifier is the outbound email hook for new inquiries. May be nil
// when the deployment has no mail credentials.
type LeadNotifier interface {
	LeadReceived(ctx context.Context, lead *domain.Lead)
	SendTest(ctx context.Context) error
}

var _ domain.AppService = (*Service)(nil)

// Service is the application layer — the only component that references
// multiple domain components. It orchestrates all use cases.
type Service struct {
	leads       domain.LeadRepository
	remarks     domain.LeadRemarkRepository
	admins      domain.AdminRepository
	activity    domain.ActivityRepository
	emailConfig domain.EmailConfigRepository
	emailLogs   domain.EmailLogRepository
	broadcaster domain.Broadcaster
	tokens      *auth.TokenService
	notifier    LeadNotifier
	notifyWg    sync.WaitGroup
}

// NewService creates the application layer service.
// notifier may be nil if email delivery is not configured.
func NewService(
	leads domain.LeadRepository,
	remarks domain.LeadRemarkRepository,
	admins domain.AdminRepository,
	activity domain.ActivityRepository,
	emailConfig domain.EmailConfigRepository,
	emailLogs domain.EmailLogRepository,
	broadcaster domain.Broadcaster,
	tokens *auth.TokenService,
	notifier LeadNotifier,
) *Service {
	return &Service{
		leads:       leads,
		remarks:     remarks,
		admins:      admins,
		activity:    activity,
		emailConfig: emailConfig,
		emailLogs:   emailLogs,
		broadcaster: broadcaster,
		tokens:      tokens,
		notifier:    notifier,
	}
}

// --- Leads ---

// CreateLead stores a public form submission, announces it to subscribed
// admin sessions, and kicks off the email notification in the background.
func (s *Service) CreateLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	created, err := s.leads.Create(ctx, lead)
	if err != nil {
		return nil, err
	}

	metrics.LeadsCreatedTotal.WithLabelValues(created.Source).Inc()
	s.broadcaster.Broadcast(domain.NewLeadEvent{
		ID:        created.ID,
		LeadName:  created.Name,
		Grade:     created.Grade,
		Source:    created.Source,
		CreatedAt: created.CreatedAt,
	})

	if s.notifier != nil {
		notifyLead := *created
		s.notifyWg.Add(1)
		go func() {
			defer s.notifyWg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), leadNotifyTimeout)
			defer cancel()
			s.notifier.LeadReceived(ctx, &notifyLead)
		}()
	}

	return created, nil
}

// ListLeads returns all leads, newest first.
func (s *Service) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	return s.leads.List(ctx)
}

// UpdateLeadStatus moves a lead through the triage pipeline.
func (s *Service) UpdateLeadStatus(ctx context.Context, actor domain.Identity, id int64, status domain.LeadStatus) (*domain.Lead, error) {
	if !domain.ValidLeadStatus(status) {
		return nil, domain.ErrInvalidLeadStatus
	}

	lead, err := s.leads.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, actor.ID, "UPDATE_LEAD_STATUS", fmt.Sprintf("Lead %q marked %s", lead.Name, status))
	return lead, nil
}

// DeleteLead removes a lead permanently.
func (s *Service) DeleteLead(ctx context.Context, actor domain.Identity, id int64) error {
	if err := s.leads.Delete(ctx, id); err != nil {
		return err
	}

	s.logActivity(ctx, actor.ID, "DELETE_LEAD", fmt.Sprintf("Lead %d deleted", id))
	return nil
}

// --- Lead remarks ---

// AddLeadRemark attaches a follow-up note to a lead.
func (s *Service) AddLeadRemark(ctx context.Context, actor domain.Identity, leadID int64, remark string) (*domain.LeadRemark, error) {
	created, err := s.remarks.Create(ctx, leadID, actor.ID, remark)
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, actor.ID, "ADD_REMARK", fmt.Sprintf("Remark added to lead %d", leadID))
	return created, nil
}

// ListLeadRemarks returns a lead's notes, newest first.
func (s *Service) ListLeadRemarks(ctx context.Context, leadID int64) ([]domain.LeadRemark, error) {
	return s.remarks.ListByLead(ctx, leadID)
}

// DeleteLeadRemark removes a note from a lead.
func (s *Service) DeleteLeadRemark(ctx context.Context, actor domain.Identity, remarkID int64) error {
	if err := s.remarks.Delete(ctx, remarkID); err != nil {
		return err
	}

	s.logActivity(ctx, actor.ID, "DELETE_REMARK", fmt.Sprintf("Remark %d deleted", remarkID))
	return nil
}

// --- Authentication ---

// Login checks credentials and mints a bearer token for the session.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.Admin, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if admin.IsFrozen {
		metrics.LoginAttemptsTotal.WithLabelValues("frozen").Inc()
		return "", nil, domain.ErrAccountFrozen
	}

	if !auth.CheckPassword(admin.PasswordHash, password) {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Mint(admin)
	if err != nil {
		return "", nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.logActivity(ctx, admin.ID, "LOGIN", fmt.Sprintf("%s logged in", admin.Email))
	return token, admin, nil
}

// --- Admin roster ---

// GetAdmin returns one admin account.
func (s *Service) GetAdmin(ctx context.Context, id int64) (*domain.Admin, error) {
	return s.admins.GetByID(ctx, id)
}

// ListAdmins returns all admin accounts.
func (s *Service) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	return s.admins.List(ctx)
}

// CreateAdmin adds a roster entry and announces the change.
func (s *Service) CreateAdmin(ctx context.Context, actor domain.Identity, email, name, password string, role domain.Role, permissions []string) (*domain.Admin, error) {
	if len(password) < auth.MinPasswordLength {
		return nil, auth.ErrPasswordTooShort
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = domain.RoleUser
	}

	admin, err := s.admins.Create(ctx, &domain.Admin{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		Permissions:  permissions,
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, actor.ID, "CREATE_USER", fmt.Sprintf("Account %s created", admin.Email))
	s.broadcaster.Broadcast(domain.UserUpdateEvent{Action: domain.UserActionCreate})
	return admin, nil
}

// UpdateAdmin changes a roster entry. Super admin accounts are immutable,
// and nobody can freeze themselves out.
func (s *Service) UpdateAdmin(ctx context.Context, actor domain.Identity, id int64, name string, role domain.Role, permissions []string, isFrozen bool) (*domain.Admin, error) {
	target, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Role == domain.RoleSuperAdmin {
		return nil, domain.ErrSuperAdminProtected
	}
	if id == actor.ID && isFrozen {
		return nil, domain.ErrSelfFreeze
	}

	admin, err := s.admins.Update(ctx, id, name, role, permissions, isFrozen)
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, actor.ID, "UPDATE_USER", fmt.Sprintf("Account %s updated", admin.Email))
	s.broadcaster.Broadcast(domain.UserUpdateEvent{Action: domain.UserActionUpdate})
	return admin, nil
}

// DeleteAdmin removes a roster entry together with its activity history.
func (s *Service) DeleteAdmin(ctx context.Context, actor domain.Identity, id int64) error {
	if id == actor.ID {
		return domain.ErrSelfDelete
	}

	target, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleSuperAdmin {
		return domain.ErrSuperAdminProtected
	}

	if err := s.admins.Delete(ctx, id); err != nil {
		return err
	}

	s.logActivity(ctx, actor.ID, "DELETE_USER", fmt.Sprintf("Account %s deleted", target.Email))
	s.broadcaster.Broadcast(domain.UserUpdateEvent{Action: domain.UserActionDelete})
	return nil
}

// ResetPassword replaces an account's password and pokes that account's
// live session so it can react.
func (s *Service) ResetPassword(ctx context.Context, actor domain.Identity, id int64, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return auth.ErrPasswordTooShort
	}

	target, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleSuperAdmin && actor.ID != id {
		return domain.ErrSuperAdminProtected
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.admins.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}

	s.logActivity(ctx, actor.ID, "RESET_PASSWORD", fmt.Sprintf("Password reset for %s", target.Email))
	s.broadcaster.SendTo(id, domain.UserUpdateEvent{Action: domain.UserActionUpdate})
	return nil
}

// --- Notification settings ---

// GetEmailSettings returns the notification settings.
func (s *Service) GetEmailSettings(ctx context.Context) (*domain.EmailConfig, error) {
	return s.emailConfig.Get(ctx)
}

// UpdateEmailSettings replaces the notification settings and pushes the new
// state to every subscribed session.
func (s *Service) UpdateEmailSettings(ctx context.Context, actor domain.Identity, receiverEmail string, isEnabled bool) (*domain.EmailConfig, error) {
	cfg, err := s.emailConfig.Upsert(ctx, receiverEmail, isEnabled)
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, actor.ID, "UPDATE_SETTINGS", "Email notification settings updated")
	s.broadcaster.Broadcast(domain.SettingsUpdateEvent{Config: *cfg})
	return cfg, nil
}

// SendTestEmail delivers a sample inquiry notification to the configured
// receiver so the settings can be verified end to end.
func (s *Service) SendTestEmail(ctx context.Context, actor domain.Identity) error {
	if s.notifier == nil {
		return domain.ErrMailNotConfigured
	}
	if err := s.notifier.SendTest(ctx); err != nil {
		return err
	}

	s.logActivity(ctx, actor.ID, "SEND_TEST_EMAIL", "Test notification email sent")
	return nil
}

// --- Activity and email history ---

// ActivityPage returns one page of the activity history, newest first.
func (s *Service) ActivityPage(ctx context.Context, page, limit int) (*domain.ActivityPage, error) {
	return s.activity.ListPage(ctx, page, limit)
}

// EmailStats summarizes notification delivery outcomes.
func (s *Service) EmailStats(ctx context.Context) (*domain.EmailStats, error) {
	return s.emailLogs.Stats(ctx)
}

// RecentEmailLogs returns the latest notification delivery attempts.
func (s *Service) RecentEmailLogs(ctx context.Context, limit int) ([]domain.EmailLog, error) {
	return s.emailLogs.ListRecent(ctx, limit)
}

// logActivity records an audit entry and fans it out to live sessions.
// Recording failures are logged, never propagated: the primary write
// already succeeded.
func (s *Service) logActivity(ctx context.Context, actorID int64, action, details string) {
	entry, err := s.activity.Record(ctx, actorID, action, details)
	if err != nil {
		slog.Error("failed to record activity", "action", action, "admin_id", actorID, "error", err)
		return
	}
	s.broadcaster.Broadcast(domain.NewActivityEvent{Activity: *entry})
}

// Stop waits for in-flight lead notifications to finish.
func (s *Service) Stop() {
	s.notifyWg.Wait()
}
