package domain

import (
	"context"
	"errors"
	"time"
)

// --- Model types ---

// LeadStatus is the triage state of an admission inquiry.
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "NEW"
	LeadStatusContacted   LeadStatus = "CONTACTED"
	LeadStatusQualified   LeadStatus = "QUALIFIED"
	LeadStatusUnqualified LeadStatus = "UNQUALIFIED"
)

// ValidLeadStatus reports whether s is one of the known triage states.
func ValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusUnqualified:
		return true
	}
	return false
}

type Lead struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	StudentName string     `json:"studentName,omitempty"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Source      string     `json:"source"`
	InquiryType string     `json:"inquiryType,omitempty"`
	Message     string     `json:"message"`
	Grade       string     `json:"grade"`
	City        string     `json:"city"`
	Status      LeadStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Role is the access level of an admin account.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleUser       Role = "USER"
)

type Admin struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Permissions  []string  `json:"permissions"`
	IsFrozen     bool      `json:"isFrozen"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ActivityLog struct {
	ID        int64     `json:"id"`
	AdminID   int64     `json:"adminId"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`

	// Joined admin fields, populated on reads only.
	AdminName  string `json:"adminName,omitempty"`
	AdminEmail string `json:"adminEmail,omitempty"`
	AdminRole  Role   `json:"adminRole,omitempty"`
}

// LeadRemark is a follow-up note an admin leaves on a lead.
type LeadRemark struct {
	ID        int64     `json:"id"`
	LeadID    int64     `json:"leadId"`
	AdminID   int64     `json:"adminId"`
	Remark    string    `json:"remark"`
	CreatedAt time.Time `json:"createdAt"`

	// Joined admin name, populated on reads only.
	AdminName string `json:"adminName,omitempty"`
}

// EmailConfig is the singleton notification settings row.
type EmailConfig struct {
	ReceiverEmail string    `json:"receiverEmail"`
	IsEnabled     bool      `json:"isEnabled"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type EmailStatus string

const (
	EmailStatusSuccess EmailStatus = "SUCCESS"
	EmailStatusFailed  EmailStatus = "FAILED"
)

type EmailLog struct {
	ID        int64       `json:"id"`
	Recipient string      `json:"recipient"`
	Subject   string      `json:"subject"`
	Status    EmailStatus `json:"status"`
	Error     string      `json:"error,omitempty"`
	SentAt    time.Time   `json:"sentAt"`
}

// EmailStats summarizes delivery outcomes over the email log.
type EmailStats struct {
	Total       int     `json:"total"`
	Success     int     `json:"success"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"successRate"`
}

// Identity is the authenticated actor attached to a request or a live
// connection. Produced by token verification, opaque to the broadcast layer.
type Identity struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the identity may use the named admin area.
// Super admins pass every check.
func (i Identity) HasPermission(perm string) bool {
	if i.Role == RoleSuperAdmin {
		return true
	}
	for _, p := range i.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// --- Sentinel errors ---

var (
	ErrLeadNotFound        = errors.New("lead not found")
	ErrAdminNotFound       = errors.New("admin not found")
	ErrEmailTaken          = errors.New("email already in use")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountFrozen       = errors.New("account is frozen")
	ErrInvalidLeadStatus   = errors.New("invalid lead status")
	ErrSuperAdminProtected = errors.New("super admin account cannot be modified")
	ErrSelfFreeze          = errors.New("cannot freeze own account")
	ErrSelfDelete          = errors.New("cannot delete own account")
	ErrRemarkNotFound      = errors.New("remark not found")
	ErrMailNotConfigured   = errors.New("email delivery is not configured")
)

// --- Repository interfaces ---

type LeadRepository interface {
	Create(ctx context.Context, lead *Lead) (*Lead, error)
	List(ctx context.Context) ([]Lead, error)
	UpdateStatus(ctx context.Context, id int64, status LeadStatus) (*Lead, error)
	Delete(ctx context.Context, id int64) error
}

type AdminRepository interface {
	GetByID(ctx context.Context, id int64) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	List(ctx context.Context) ([]Admin, error)
	Create(ctx context.Context, admin *Admin) (*Admin, error)
	Update(ctx context.Context, id int64, name string, role Role, permissions []string, isFrozen bool) (*Admin, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

// ActivityPage is one page of the activity log plus pagination totals.
type ActivityPage struct {
	Logs       []ActivityLog `json:"data"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}

type ActivityRepository interface {
	Record(ctx context.Context, adminID int64, action, details string) (*ActivityLog, error)
	ListPage(ctx context.Context, page, limit int) (*ActivityPage, error)
}

type LeadRemarkRepository interface {
	Create(ctx context.Context, leadID, adminID int64, remark string) (*LeadRemark, error)
	ListByLead(ctx context.Context, leadID int64) ([]LeadRemark, error)
	Delete(ctx context.Context, id int64) error
}

type EmailConfigRepository interface {
	Get(ctx context.Context) (*EmailConfig, error)
	Upsert(ctx context.Context, receiverEmail string, isEnabled bool) (*EmailConfig, error)
}

type EmailLogRepository interface {
	Record(ctx context.Context, log *EmailLog) error
	ListRecent(ctx context.Context, limit int) ([]EmailLog, error)
	Stats(ctx context.Context) (*EmailStats, error)
}

// Broadcaster is the outbound side of the live event channel, implemented by
// the broadcast hub. Mutating operations call it after their write succeeds;
// delivery is best effort and failures never propagate back.
type Broadcaster interface {
	Broadcast(event Event)
	SendTo(adminID int64, event Event)
}

// AppService is the application layer surface consumed by the HTTP handlers.
type AppService interface {
	CreateLead(ctx context.Context, lead *Lead) (*Lead, error)
	ListLeads(ctx context.Context) ([]Lead, error)
	UpdateLeadStatus(ctx context.Context, actor Identity, id int64, status LeadStatus) (*Lead, error)
	DeleteLead(ctx context.Context, actor Identity, id int64) error

	AddLeadRemark(ctx context.Context, actor Identity, leadID int64, remark string) (*LeadRemark, error)
	ListLeadRemarks(ctx context.Context, leadID int64) ([]LeadRemark, error)
	DeleteLeadRemark(ctx context.Context, actor Identity, remarkID int64) error

	Login(ctx context.Context, email, password string) (string, *Admin, error)

	GetAdmin(ctx context.Context, id int64) (*Admin, error)
	ListAdmins(ctx context.Context) ([]Admin, error)
	CreateAdmin(ctx context.Context, actor Identity, email, name, password string, role Role, permissions []string) (*Admin, error)
	UpdateAdmin(ctx context.Context, actor Identity, id int64, name string, role Role, permissions []string, isFrozen bool) (*Admin, error)
	DeleteAdmin(ctx context.Context, actor Identity, id int64) error
	ResetPassword(ctx context.Context, actor Identity, id int64, newPassword string) error

	GetEmailSettings(ctx context.Context) (*EmailConfig, error)
	UpdateEmailSettings(ctx context.Context, actor Identity, receiverEmail string, isEnabled bool) (*EmailConfig, error)
	SendTestEmail(ctx context.Context, actor Identity) error

	ActivityPage(ctx context.Context, page, limit int) (*ActivityPage, error)
	EmailStats(ctx context.Context) (*EmailStats, error)
	RecentEmailLogs(ctx context.Context, limit int) ([]EmailLog, error)
}
