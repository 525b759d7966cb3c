// Package ledger implements the tamper-evident audit chain: every entry
// carries the hash of its predecessor, and the hash covers the entry's
// canonical payload together with that predecessor hash. Editing, deleting
// or reordering persisted history is therefore detectable by replaying the
// chain from the start.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/trustportal/trust-api/internal/models"
	"github.com/trustportal/trust-api/pkg/logger"
)

// List limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

const (
	defaultMaxAppendRetries = 5
	defaultScanBatchSize    = 500
)

var actionPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

var entityTypes = map[string]bool{
	models.EntityTypeCustomer:        true,
	models.EntityTypeLoanApplication: true,
	models.EntityTypeSystem:          true,
}

// Payload is what producers hand to Append
type Payload struct {
	EntityType  string
	EntityID    string
	Action      string
	PerformedBy string
	Details     Value // null means {}
}

// Validate checks required fields without touching storage
func (p Payload) Validate() error {
	if !entityTypes[p.EntityType] {
		return &ValidationError{Field: "entityType", Reason: fmt.Sprintf("must be one of customer, loan_application, system (got %q)", p.EntityType)}
	}
	if strings.TrimSpace(p.EntityID) == "" {
		return &ValidationError{Field: "entityId", Reason: "is required"}
	}
	if !actionPattern.MatchString(p.Action) {
		return &ValidationError{Field: "action", Reason: fmt.Sprintf("must be an upper-case canonical name (got %q)", p.Action)}
	}
	if strings.TrimSpace(p.PerformedBy) == "" {
		return &ValidationError{Field: "performedBy", Reason: "is required"}
	}
	if k := p.Details.Kind(); k != KindNull && k != KindObject {
		return &ValidationError{Field: "details", Reason: "must be an object, got " + k.String()}
	}
	return nil
}

// Config tunes a Ledger. Zero values select defaults.
type Config struct {
	Digester         Digester
	MaxAppendRetries int
	ScanBatchSize    int
	Now              func() time.Time
}

// Ledger serializes appends to the single chain and replays it for verification.
type Ledger struct {
	// mu is held from reading the tail until the new tail is committed
	mu sync.Mutex

	store      Store
	digester   Digester
	maxRetries int
	batchSize  int
	now        func() time.Time
}

// New creates a ledger over store
func New(store Store, cfg Config) *Ledger {
	l := &Ledger{
		store:      store,
		digester:   cfg.Digester,
		maxRetries: cfg.MaxAppendRetries,
		batchSize:  cfg.ScanBatchSize,
		now:        cfg.Now,
	}
	if l.digester == nil {
		l.digester = SHA256()
	}
	if l.maxRetries <= 0 {
		l.maxRetries = defaultMaxAppendRetries
	}
	if l.batchSize <= 0 {
		l.batchSize = defaultScanBatchSize
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Algorithm returns the configured digest name
func (l *Ledger) Algorithm() string {
	return l.digester.Name()
}

// Append commits a new entry as the chain tail. On success the entry is durable
// and its PrevHash is the hash of the entry that was the tail when it was computed.
func (l *Ledger) Append(ctx context.Context, p Payload) (*models.AuditEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	details := p.Details
	if details.IsNull() {
		details = EmptyObject()
	}
	detailBytes, err := Canonicalize(details)
	if err != nil {
		return nil, &ValidationError{Field: "details", Reason: err.Error()}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, storageError("append", err)
		}

		tail, err := l.store.Tail(ctx)
		if err != nil {
			return nil, storageError("read tail", err)
		}

		entry := &models.AuditEntry{
			ID:          uuid.NewString(),
			EntityType:  p.EntityType,
			EntityID:    p.EntityID,
			Action:      p.Action,
			PerformedBy: p.PerformedBy,
			Details:     datatypes.JSON(detailBytes),
			CreatedAt:   l.now().UTC(),
		}
		if tail != nil {
			prev := tail.Hash
			entry.PrevHash = &prev
			if entry.CreatedAt.Before(tail.CreatedAt) {
				entry.CreatedAt = tail.CreatedAt
			}
		}

		entry.Hash, err = l.hash(entry.EntityType, entry.EntityID, entry.Action, entry.PerformedBy, details, entry.PrevHash)
		if err != nil {
			return nil, &ValidationError{Field: "details", Reason: err.Error()}
		}

		err = l.store.Insert(ctx, entry)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, ErrTailMoved) {
			return nil, storageError("insert entry", err)
		}
		if attempt >= l.maxRetries {
			return nil, storageError("insert entry", ErrTailContention)
		}
		logger.Warn("Audit chain tail moved by another writer, retrying", "attempt", attempt+1)
	}
}

// List returns matching entries newest first. limit is clamped to [1, MaxListLimit],
// with DefaultListLimit for non-positive values.
func (l *Ledger) List(ctx context.Context, filter Filter, limit int) ([]models.AuditEntry, error) {
	entries, err := l.store.List(ctx, filter, ClampLimit(limit))
	if err != nil {
		return nil, storageError("list entries", err)
	}
	return entries, nil
}

// ClampLimit applies the listing default and ceiling
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// hash computes the chain link over the canonical payload. prevHash is an
// explicit field of the hashed object, null for the genesis entry.
func (l *Ledger) hash(entityType, entityID, action, performedBy string, details Value, prevHash *string) (string, error) {
	prev := Null()
	if prevHash != nil {
		prev = String(*prevHash)
	}
	canonical, err := Canonicalize(Object(map[string]Value{
		"entityType":  String(entityType),
		"entityId":    String(entityID),
		"action":      String(action),
		"performedBy": String(performedBy),
		"details":     details,
		"prevHash":    prev,
	}))
	if err != nil {
		return "", err
	}
	return l.digester.Sum(canonical), nil
}

// Walk streams every committed entry in chain order. Errors returned by fn
// are passed through unwrapped.
func (l *Ledger) Walk(ctx context.Context, fn func(entry *models.AuditEntry) error) error {
	var fnErr error
	err := l.store.Scan(ctx, 0, l.batchSize, func(entry *models.AuditEntry) error {
		fnErr = fn(entry)
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return storageError("scan entries", err)
	}
	return nil
}
