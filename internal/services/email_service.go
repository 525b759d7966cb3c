package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/trustportal/trust-api/internal/config"
	"github.com/trustportal/trust-api/pkg/logger"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

// emailSender is the part of the Resend client used here
type emailSender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type EmailService struct {
	config *config.Config
	sender emailSender
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config: cfg,
		sender: client.Emails,
	}
}

// checkEmailPreconditions returns false without error when alert email is simply not set up
func (s *EmailService) checkEmailPreconditions(to, operation string) (bool, error) {
	if to == "" {
		logger.Debug("Skipping email: no recipient configured", "operation", operation)
		return false, nil
	}
	if s.config.ResendAPIKey == "" || s.config.FromEmail == "" {
		return false, errors.New("email not configured: RESEND_API_KEY is not set or FROM_EMAIL is empty")
	}
	if !strings.Contains(to, "@") {
		return false, fmt.Errorf("invalid recipient %q for %s", to, operation)
	}
	return true, nil
}

// SendIntegrityAlert tells the compliance mailbox that chain replay found a break
func (s *EmailService) SendIntegrityAlert(ctx context.Context, status IntegrityStatus) error {
	to := s.config.Audit.ComplianceEmail
	ok, err := s.checkEmailPreconditions(to, "integrity alert")
	if !ok {
		return err
	}
	if status.Break == nil {
		return fmt.Errorf("integrity alert requires a break")
	}

	data := struct {
		Mode       string
		DetectedAt string
		Position   int64
		Seq        int64
		EntryID    string
		Reason     string
		Checked    int64
		Algorithm  string
	}{
		Mode:       status.Mode,
		DetectedAt: status.CheckedAt.UTC().Format(time.RFC3339),
		Position:   status.Break.Position,
		Seq:        status.Break.Seq,
		EntryID:    status.Break.EntryID,
		Reason:     string(status.Break.Reason),
		Checked:    status.Checked,
		Algorithm:  status.Algorithm,
	}

	body, err := s.renderTemplate("integrity_alert.html", data)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("[Trust Portal] Audit chain integrity issue at position %d", status.Break.Position)
	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	if _, err := s.sender.Send(params); err != nil {
		logger.Error("Failed to send integrity alert", "to", to, "error", err)
		return err
	}

	logger.Info("Integrity alert sent", "to", to, "position", status.Break.Position)
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
