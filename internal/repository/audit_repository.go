package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/trustportal/trust-api/internal/ledger"
	"github.com/trustportal/trust-api/internal/models"
)

// Unique constraints that only fire when two writers raced for the same tail
var tailConstraints = map[string]bool{
	"audit_log_prev_hash_key":      true,
	"audit_log_hash_key":           true,
	"idx_audit_log_single_genesis": true,
}

// AuditRepository is the Postgres-backed ledger.Store
type AuditRepository interface {
	ledger.Store
	Count(ctx context.Context) (int64, error)
}

// auditRepository handles database operations for the audit_log table
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Tail returns the entry with the highest seq
func (r *auditRepository) Tail(ctx context.Context) (*models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := r.db.WithContext(ctx).
		Order("seq DESC").
		Limit(1).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// Insert is a single INSERT. The unique prev_hash index and the single-genesis
// index reject it when another writer committed first.
func (r *auditRepository) Insert(ctx context.Context, entry *models.AuditEntry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if isTailConflict(err) {
		return ledger.ErrTailMoved
	}
	return err
}

// List retrieves matching entries newest first
func (r *auditRepository) List(ctx context.Context, filter ledger.Filter, limit int) ([]models.AuditEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditEntry{})
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var entries []models.AuditEntry
	err := query.Order("seq DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// Scan walks the chain in ascending seq order using keyset pagination
func (r *auditRepository) Scan(ctx context.Context, afterSeq int64, batchSize int, fn func(entry *models.AuditEntry) error) error {
	cursor := afterSeq
	for {
		var batch []models.AuditEntry
		err := r.db.WithContext(ctx).
			Where("seq > ?", cursor).
			Order("seq ASC").
			Limit(batchSize).
			Find(&batch).Error
		if err != nil {
			return err
		}
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

// Count returns the number of committed entries
func (r *auditRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AuditEntry{}).Count(&count).Error
	return count, err
}

func isTailConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && tailConstraints[pgErr.ConstraintName]
	}
	return false
}
