package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustportal/trust-api/internal/config"
	"github.com/trustportal/trust-api/internal/ledger"
)

type mockEmailSender struct {
	sent []*resend.SendEmailRequest
	err  error
}

func (m *mockEmailSender) Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, params)
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func newTestEmailService(cfg *config.Config) (*EmailService, *mockEmailSender) {
	sender := &mockEmailSender{}
	return &EmailService{config: cfg, sender: sender}, sender
}

func brokenStatus() IntegrityStatus {
	return IntegrityStatus{
		Verified:  false,
		State:     "compromised",
		Checked:   3,
		Break:     &ledger.Break{Position: 3, Seq: 4, EntryID: "entry-4", Reason: ledger.BreakHashMismatch},
		Algorithm: ledger.AlgorithmSHA256,
		Mode:      "full",
		CheckedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEmailService_checkEmailPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		to      string
		wantOK  bool
		wantErr string
	}{
		{
			name:   "no recipient",
			cfg:    config.Config{ResendAPIKey: "key", FromEmail: "from@example.com"},
			to:     "",
			wantOK: false,
		},
		{
			name:   "configured",
			cfg:    config.Config{ResendAPIKey: "key", FromEmail: "from@example.com"},
			to:     "compliance@example.com",
			wantOK: true,
		},
		{
			name:    "missing api key",
			cfg:     config.Config{FromEmail: "from@example.com"},
			to:      "compliance@example.com",
			wantErr: "RESEND_API_KEY is not set",
		},
		{
			name:    "bad recipient",
			cfg:     config.Config{ResendAPIKey: "key", FromEmail: "from@example.com"},
			to:      "compliance",
			wantErr: "invalid recipient",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestEmailService(&tt.cfg)
			ok, err := service.checkEmailPreconditions(tt.to, "test operation")
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEmailService_SendIntegrityAlert(t *testing.T) {
	cfg := &config.Config{ResendAPIKey: "key", FromEmail: "from@example.com"}
	cfg.Audit.ComplianceEmail = "compliance@example.com"
	service, sender := newTestEmailService(cfg)

	require.NoError(t, service.SendIntegrityAlert(context.Background(), brokenStatus()))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"compliance@example.com"}, msg.To)
	assert.Equal(t, "from@example.com", msg.From)
	assert.Contains(t, msg.Subject, "position 3")
	assert.Contains(t, msg.Html, "entry-4")
	assert.Contains(t, msg.Html, "hash_mismatch")
	assert.Contains(t, msg.Html, "2026-10-01T12:00:00Z")
}

func TestEmailService_SendIntegrityAlert_NoRecipientIsNoop(t *testing.T) {
	service, sender := newTestEmailService(&config.Config{ResendAPIKey: "key", FromEmail: "from@example.com"})

	assert.NoError(t, service.SendIntegrityAlert(context.Background(), brokenStatus()))
	assert.Empty(t, sender.sent)
}

func TestEmailService_SendIntegrityAlert_SendFailure(t *testing.T) {
	cfg := &config.Config{ResendAPIKey: "key", FromEmail: "from@example.com"}
	cfg.Audit.ComplianceEmail = "compliance@example.com"
	service, sender := newTestEmailService(cfg)
	sender.err = errors.New("resend down")

	err := service.SendIntegrityAlert(context.Background(), brokenStatus())
	assert.EqualError(t, err, "resend down")
}
