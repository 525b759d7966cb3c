package repository

import (
	"context"
	"sync"

	"github.com/trustportal/trust-api/internal/ledger"
	"github.com/trustportal/trust-api/internal/models"
)

// memoryAuditRepository keeps the chain in process memory. Used with
// AUDIT_STORE=memory for local demos; history is lost on restart.
type memoryAuditRepository struct {
	mu      sync.RWMutex
	entries []models.AuditEntry
}

// NewMemoryAuditRepository creates an empty in-memory audit store
func NewMemoryAuditRepository() AuditRepository {
	return &memoryAuditRepository{}
}

func (r *memoryAuditRepository) Tail(ctx context.Context) (*models.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.entries) == 0 {
		return nil, nil
	}
	tail := r.entries[len(r.entries)-1]
	return &tail, nil
}

func (r *memoryAuditRepository) Insert(ctx context.Context, entry *models.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.entries)
	switch {
	case n == 0 && entry.PrevHash != nil:
		return ledger.ErrTailMoved
	case n > 0 && (entry.PrevHash == nil || *entry.PrevHash != r.entries[n-1].Hash):
		return ledger.ErrTailMoved
	}

	entry.Seq = int64(n) + 1
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memoryAuditRepository) List(ctx context.Context, filter ledger.Filter, limit int) ([]models.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]models.AuditEntry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		if matches(&r.entries[i], filter) {
			entries = append(entries, r.entries[i])
		}
	}
	return entries, nil
}

func (r *memoryAuditRepository) Scan(ctx context.Context, afterSeq int64, batchSize int, fn func(entry *models.AuditEntry) error) error {
	cursor := afterSeq
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := r.batchAfter(cursor, batchSize)
		for i := range batch {
			if err := fn(&batch[i]); err != nil {
				return err
			}
		}
		if len(batch) < batchSize {
			return nil
		}
		cursor = batch[len(batch)-1].Seq
	}
}

// batchAfter copies out at most size entries so fn runs without the lock held
func (r *memoryAuditRepository) batchAfter(seq int64, size int) []models.AuditEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// Seq is 1-based and dense, so it doubles as the slice index
	start := max(int(seq), 0)
	if start >= len(r.entries) {
		return nil
	}
	end := min(start+size, len(r.entries))
	batch := make([]models.AuditEntry, end-start)
	copy(batch, r.entries[start:end])
	return batch
}

func (r *memoryAuditRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.entries)), nil
}

func matches(e *models.AuditEntry, filter ledger.Filter) bool {
	return (filter.EntityType == "" || e.EntityType == filter.EntityType) &&
		(filter.EntityID == "" || e.EntityID == filter.EntityID) &&
		(filter.Action == "" || e.Action == filter.Action)
}
