package services

import (
	"context"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/trustportal/trust-api/internal/config"
	"github.com/trustportal/trust-api/internal/jobs"
	"github.com/trustportal/trust-api/internal/ledger"
	"github.com/trustportal/trust-api/internal/metrics"
	"github.com/trustportal/trust-api/internal/statemachine"
	"github.com/trustportal/trust-api/pkg/logger"
)

// ChainVerifier replays the audit chain
type ChainVerifier interface {
	Verify(ctx context.Context) (ledger.Report, error)
	VerifyFrom(ctx context.Context, from ledger.Checkpoint) (ledger.Report, error)
}

// IntegrityStatus is the last known state of the audit chain
type IntegrityStatus struct {
	Verified  bool              `json:"verified"`
	State     string            `json:"state"`
	Checked   int64             `json:"checked"`
	Head      ledger.Checkpoint `json:"head"`
	Break     *ledger.Break     `json:"break,omitempty"`
	Algorithm string            `json:"algorithm"`
	Mode      string            `json:"mode"`
	CheckedAt time.Time         `json:"checkedAt"`
}

// IntegrityAlerter is told once each time the chain becomes compromised
type IntegrityAlerter interface {
	IntegrityCompromised(ctx context.Context, status IntegrityStatus)
}

// IntegrityService runs chain verification and remembers the outcome.
//
// With the full strategy every Status call replays from genesis. With the
// incremental strategy Status replays only what was appended since the last
// verified checkpoint, and FullVerify (scheduled) covers the prefix.
type IntegrityService struct {
	verifier ChainVerifier
	strategy string
	alerter  IntegrityAlerter

	mu         sync.Mutex
	fsm        *statemachine.IntegrityFSM
	checkpoint ledger.Checkpoint
	last       IntegrityStatus
	now        func() time.Time
}

func NewIntegrityService(verifier ChainVerifier, strategy string, alerter IntegrityAlerter) *IntegrityService {
	s := &IntegrityService{
		verifier: verifier,
		strategy: strategy,
		alerter:  alerter,
		now:      time.Now,
	}
	s.fsm = statemachine.NewIntegrityFSM(s.onCompromised)
	s.last = IntegrityStatus{State: s.fsm.Current()}
	return s
}

// Status reports chain integrity using the configured strategy
func (s *IntegrityService) Status(ctx context.Context) (IntegrityStatus, error) {
	if s.strategy != config.VerifyIncremental {
		return s.FullVerify(ctx)
	}

	s.mu.Lock()
	if s.fsm.Current() == statemachine.IntegrityCompromised {
		status := s.last
		s.mu.Unlock()
		return status, nil
	}
	from := s.checkpoint
	s.mu.Unlock()

	report, err := s.verifier.VerifyFrom(ctx, from)
	if err != nil {
		metrics.ObserveVerificationError(config.VerifyIncremental)
		return IntegrityStatus{}, err
	}
	return s.apply(ctx, report, config.VerifyIncremental), nil
}

// FullVerify replays the chain from genesis. It is the only path that can
// move a compromised chain back to verified.
func (s *IntegrityService) FullVerify(ctx context.Context) (IntegrityStatus, error) {
	report, err := s.verifier.Verify(ctx)
	if err != nil {
		metrics.ObserveVerificationError(config.VerifyFull)
		return IntegrityStatus{}, err
	}
	return s.apply(ctx, report, config.VerifyFull), nil
}

// Last returns the most recent status without replaying
func (s *IntegrityService) Last() IntegrityStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *IntegrityService) apply(ctx context.Context, report ledger.Report, mode string) IntegrityStatus {
	metrics.ObserveVerification(mode, report.Verified, report.Checked)

	s.mu.Lock()
	defer s.mu.Unlock()

	status := IntegrityStatus{
		Verified:  report.Verified,
		Checked:   report.Head.Count,
		Head:      report.Head,
		Break:     report.Break,
		Algorithm: report.Algorithm,
		Mode:      mode,
		CheckedAt: s.now(),
	}
	s.last = status

	var err error
	if report.Verified {
		// concurrent replays may finish out of order
		if report.Head.Count >= s.checkpoint.Count || mode == config.VerifyFull {
			s.checkpoint = report.Head
		}
		err = s.fsm.Confirm(ctx, mode == config.VerifyFull)
	} else {
		s.checkpoint = ledger.Checkpoint{}
		err = s.fsm.Breach(ctx)
	}
	if err != nil {
		logger.Error("Integrity state transition failed", "mode", mode, "error", err)
	}

	if s.fsm.Current() == statemachine.IntegrityCompromised && report.Verified {
		// an incremental pass cannot vouch for the prefix that already failed
		s.last.Verified = false
	}
	s.last.State = s.fsm.Current()
	return s.last
}

// onCompromised runs inside Breach while mu is held
func (s *IntegrityService) onCompromised(ctx context.Context) {
	status := s.last
	status.State = statemachine.IntegrityCompromised
	if s.alerter != nil {
		s.alerter.IntegrityCompromised(ctx, status)
	}
}

type integrityMailer interface {
	SendIntegrityAlert(ctx context.Context, status IntegrityStatus) error
}

type jobQueue interface {
	EnqueueAsync(name string, job jobs.Job)
}

// ComplianceAlerter logs, reports to Sentry and emails the compliance mailbox
type ComplianceAlerter struct {
	mailer integrityMailer
	queue  jobQueue
}

func NewComplianceAlerter(mailer integrityMailer, queue jobQueue) *ComplianceAlerter {
	return &ComplianceAlerter{mailer: mailer, queue: queue}
}

func (a *ComplianceAlerter) IntegrityCompromised(ctx context.Context, status IntegrityStatus) {
	args := []any{"mode", status.Mode, "checked", status.Checked, "algorithm", status.Algorithm}
	extra := map[string]any{"mode": status.Mode, "checked": status.Checked, "algorithm": status.Algorithm}
	if b := status.Break; b != nil {
		args = append(args, "position", b.Position, "seq", b.Seq, "entry_id", b.EntryID, "reason", b.Reason)
		extra["position"] = b.Position
		extra["seq"] = b.Seq
		extra["entryId"] = b.EntryID
		extra["reason"] = string(b.Reason)
	}
	logger.Error("Audit chain integrity compromised", args...)
	captureMessage(ctx, "audit chain integrity compromised", sentry.LevelFatal, extra)

	if a.mailer == nil || a.queue == nil {
		return
	}
	a.queue.EnqueueAsync("integrity-alert", func(ctx context.Context) error {
		return a.mailer.SendIntegrityAlert(ctx, status)
	})
}
