package services

import (
	"context"
	"errors"
	"time"

	"github.com/trustportal/trust-api/internal/broker"
	"github.com/trustportal/trust-api/internal/ledger"
	"github.com/trustportal/trust-api/internal/metrics"
	"github.com/trustportal/trust-api/internal/models"
	"github.com/trustportal/trust-api/pkg/logger"
)

// AuditLogEntityID is the entity every AUDIT_VIEWED and AUDIT_EXPORTED entry points at
const AuditLogEntityID = "audit-log"

// AuditLogView is what a reader of the audit log gets back
type AuditLogView struct {
	Entries   []models.AuditEntry `json:"entries"`
	Integrity IntegrityStatus     `json:"integrity"`
}

// AuditService is the producer-facing side of the ledger
type AuditService struct {
	ledger    *ledger.Ledger
	integrity *IntegrityService
	publisher broker.EntryPublisher
	queue     jobQueue
	timeout   time.Duration
}

// NewAuditService wires the ledger. publisher may be nil when no mirror is configured.
func NewAuditService(l *ledger.Ledger, integrity *IntegrityService, publisher broker.EntryPublisher, queue jobQueue, timeout time.Duration) *AuditService {
	return &AuditService{
		ledger:    l,
		integrity: integrity,
		publisher: publisher,
		queue:     queue,
		timeout:   timeout,
	}
}

// Record appends one entry. The append is detached from ctx cancellation so a
// client hanging up does not leave a gap, but it is bounded by the append timeout.
// Callers log the error and carry on with their primary action.
func (s *AuditService) Record(ctx context.Context, p ledger.Payload) (*models.AuditEntry, error) {
	appendCtx := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		appendCtx, cancel = context.WithTimeout(appendCtx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	entry, err := s.ledger.Append(appendCtx, p)
	metrics.ObserveAppend(p.Action, appendOutcome(err), time.Since(start))
	if err != nil {
		logger.Error("Audit append failed",
			"action", p.Action,
			"entity_type", p.EntityType,
			"entity_id", p.EntityID,
			"performed_by", p.PerformedBy,
			"error", err,
		)
		captureError(ctx, err, map[string]string{
			"audit.action":      p.Action,
			"audit.entity_type": p.EntityType,
		})
		return nil, err
	}

	logger.Debug("Audit entry appended", "seq", entry.Seq, "action", entry.Action, "entity_id", entry.EntityID)
	s.mirror(entry)
	return entry, nil
}

func appendOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ledger.ErrValidation):
		return "validation_error"
	}
	return "storage_error"
}

// mirror publishes a committed entry to the broker without blocking the producer
func (s *AuditService) mirror(entry *models.AuditEntry) {
	if s.publisher == nil || s.queue == nil {
		return
	}
	committed := *entry
	s.queue.EnqueueAsync("audit-mirror", func(ctx context.Context) error {
		err := s.publisher.Publish(ctx, &committed)
		metrics.ObserveMirror(err)
		if err != nil {
			logger.Warn("Audit mirror publish failed", "seq", committed.Seq, "error", err)
		}
		return err
	})
}

// List returns entries newest first
func (s *AuditService) List(ctx context.Context, filter ledger.Filter, limit int) ([]models.AuditEntry, error) {
	return s.ledger.List(ctx, filter, limit)
}

// Verify reports chain integrity using the configured strategy
func (s *AuditService) Verify(ctx context.Context) (IntegrityStatus, error) {
	return s.integrity.Status(ctx)
}

// ViewLog lists entries, checks integrity and then records that the log was viewed.
// The returned view does not include its own AUDIT_VIEWED entry.
func (s *AuditService) ViewLog(ctx context.Context, actor string, filter ledger.Filter, limit int) (*AuditLogView, error) {
	limit = ledger.ClampLimit(limit)

	entries, err := s.ledger.List(ctx, filter, limit)
	if err != nil {
		return nil, err
	}

	status, err := s.integrity.Status(ctx)
	if err != nil {
		return nil, err
	}

	_, _ = s.Record(ctx, ledger.Payload{
		EntityType:  models.EntityTypeSystem,
		EntityID:    AuditLogEntityID,
		Action:      models.ActionAuditViewed,
		PerformedBy: actor,
		Details: ledger.Object(map[string]ledger.Value{
			"filters": filterDetails(filter),
			"limit":   ledger.Int(int64(limit)),
		}),
	})

	if entries == nil {
		entries = []models.AuditEntry{}
	}
	return &AuditLogView{Entries: entries, Integrity: status}, nil
}

// RecordExport notes that part of the log left the system
func (s *AuditService) RecordExport(ctx context.Context, actor, format string, filter ledger.Filter, count int) {
	_, _ = s.Record(ctx, ledger.Payload{
		EntityType:  models.EntityTypeSystem,
		EntityID:    AuditLogEntityID,
		Action:      models.ActionAuditExported,
		PerformedBy: actor,
		Details: ledger.Object(map[string]ledger.Value{
			"format":  ledger.String(format),
			"filters": filterDetails(filter),
			"entries": ledger.Int(int64(count)),
		}),
	})
}

func filterDetails(filter ledger.Filter) ledger.Value {
	return ledger.Object(map[string]ledger.Value{
		"entityType": ledger.OptionalString(filter.EntityType),
		"entityId":   ledger.OptionalString(filter.EntityID),
		"action":     ledger.OptionalString(filter.Action),
	})
}
