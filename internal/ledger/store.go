package ledger

import (
	"context"

	"github.com/trustportal/trust-api/internal/models"
)

// Filter selects entries by equality. Empty fields match everything.
type Filter struct {
	EntityType string `json:"entityType,omitempty"`
	EntityID   string `json:"entityId,omitempty"`
	Action     string `json:"action,omitempty"`
}

// Store is the durable, ordered, append-only home of the chain.
// Only the Ledger writes to it.
type Store interface {
	// Tail returns the most recently committed entry, or nil when the store is empty.
	Tail(ctx context.Context) (*models.AuditEntry, error)

	// Insert persists entry and assigns its Seq. It must be atomic and must fail
	// with ErrTailMoved when entry.PrevHash is not the hash of the current tail
	// (or when PrevHash is nil and the store is not empty).
	Insert(ctx context.Context, entry *models.AuditEntry) error

	// List returns up to limit matching entries, newest first.
	List(ctx context.Context, filter Filter, limit int) ([]models.AuditEntry, error)

	// Scan calls fn for every entry with Seq > afterSeq in ascending order,
	// fetching batchSize entries at a time. A non-nil error from fn stops the scan
	// and is returned unchanged.
	Scan(ctx context.Context, afterSeq int64, batchSize int, fn func(entry *models.AuditEntry) error) error
}
