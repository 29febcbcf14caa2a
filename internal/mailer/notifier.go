package mailer

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/enrollhq/leadpulse/internal/domain"
	"github.com/enrollhq/leadpulse/internal/metrics"
)

// Notifier emails the configured receiver when a new lead arrives. Delivery
// is best effort: failures get logged and recorded, never propagated.
type Notifier struct {
	sender     Sender
	configRepo domain.EmailConfigRepository
	logRepo    domain.EmailLogRepository
}

// NewNotifier wires a notifier. A nil sender disables delivery entirely,
// which is how the server runs without mail credentials.
func NewNotifier(sender Sender, configRepo domain.EmailConfigRepository, logRepo domain.EmailLogRepository) *Notifier {
	return &Notifier{sender: sender, configRepo: configRepo, logRepo: logRepo}
}

// LeadReceived sends the new-inquiry notification if notifications are
// enabled and a receiver address is configured.
func (n *Notifier) LeadReceived(ctx context.Context, lead *domain.Lead) {
	if n.sender == nil {
		return
	}

	cfg, err := n.configRepo.Get(ctx)
	if err != nil {
		slog.Error("failed to load email config", "error", err)
		return
	}
	if !cfg.IsEnabled || cfg.ReceiverEmail == "" {
		return
	}

	subject := fmt.Sprintf("New admission inquiry from %s", lead.Name)
	body := leadEmailBody(lead)

	log := domain.EmailLog{
		Recipient: cfg.ReceiverEmail,
		Subject:   subject,
		Status:    domain.EmailStatusSuccess,
	}
	if err := n.sender.Send(ctx, cfg.ReceiverEmail, subject, body); err != nil {
		slog.Error("failed to send lead notification", "lead_id", lead.ID, "error", err)
		log.Status = domain.EmailStatusFailed
		log.Error = err.Error()
	}
	metrics.EmailsSentTotal.WithLabelValues(string(log.Status)).Inc()

	if err := n.logRepo.Record(ctx, &log); err != nil {
		slog.Error("failed to record email log", "error", err)
	}
}

// SendTest delivers a sample inquiry notification to the configured
// receiver. Unlike LeadReceived it reports failures to the caller, since
// the whole point is checking that delivery works.
func (n *Notifier) SendTest(ctx context.Context) error {
	if n.sender == nil {
		return domain.ErrMailNotConfigured
	}

	cfg, err := n.configRepo.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load email config: %w", err)
	}
	if cfg.ReceiverEmail == "" {
		return domain.ErrMailNotConfigured
	}

	lead := &domain.Lead{
		Name:        "Test Parent",
		StudentName: "Test Student",
		Email:       "test@example.com",
		Phone:       "+91 98765 43210",
		Grade:       "Grade XI",
		InquiryType: "Test Inquiry",
		City:        "Test City",
		Source:      "Admin Test",
		Message:     "This is a test notification triggered from the admin dashboard.",
	}
	subject := fmt.Sprintf("New admission inquiry from %s", lead.Name)

	log := domain.EmailLog{
		Recipient: cfg.ReceiverEmail,
		Subject:   subject,
		Status:    domain.EmailStatusSuccess,
	}
	sendErr := n.sender.Send(ctx, cfg.ReceiverEmail, subject, leadEmailBody(lead))
	if sendErr != nil {
		log.Status = domain.EmailStatusFailed
		log.Error = sendErr.Error()
	}
	metrics.EmailsSentTotal.WithLabelValues(string(log.Status)).Inc()

	if err := n.logRepo.Record(ctx, &log); err != nil {
		slog.Error("failed to record email log", "error", err)
	}
	return sendErr
}

func leadEmailBody(lead *domain.Lead) string {
	return fmt.Sprintf(`<h2>New Admission Inquiry</h2>
<table>
<tr><td><b>Name</b></td><td>%s</td></tr>
<tr><td><b>Student</b></td><td>%s</td></tr>
<tr><td><b>Email</b></td><td>%s</td></tr>
<tr><td><b>Phone</b></td><td>%s</td></tr>
<tr><td><b>Grade</b></td><td>%s</td></tr>
<tr><td><b>City</b></td><td>%s</td></tr>
<tr><td><b>Source</b></td><td>%s</td></tr>
<tr><td><b>Message</b></td><td>%s</td></tr>
</table>`,
		html.EscapeString(lead.Name),
		html.EscapeString(lead.StudentName),
		html.EscapeString(lead.Email),
		html.EscapeString(lead.Phone),
		html.EscapeString(lead.Grade),
		html.EscapeString(lead.City),
		html.EscapeString(lead.Source),
		html.EscapeString(lead.Message),
	)
}
