package ledger

import (
	"context"
	"sync"

	"github.com/trustportal/trust-api/internal/models"
)

// fakeStore is an in-memory Store with the same tail check the Postgres
// repository gets from its unique prev_hash index
type fakeStore struct {
	mu      sync.Mutex
	entries []models.AuditEntry
	nextSeq int64

	tailErr    error
	insertErr  error
	scanErr    error
	beforeCAS  func()
	insertCall int
}

func (s *fakeStore) Tail(ctx context.Context) (*models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tailErr != nil {
		return nil, s.tailErr
	}
	if len(s.entries) == 0 {
		return nil, nil
	}
	tail := s.entries[len(s.entries)-1]
	return &tail, nil
}

func (s *fakeStore) Insert(ctx context.Context, entry *models.AuditEntry) error {
	if hook := s.beforeCAS; hook != nil {
		hook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCall++
	if s.insertErr != nil {
		return s.insertErr
	}
	var tailHash *string
	if len(s.entries) > 0 {
		h := s.entries[len(s.entries)-1].Hash
		tailHash = &h
	}
	if !sameHash(entry.PrevHash, tailHash) {
		return ErrTailMoved
	}
	s.nextSeq++
	entry.Seq = s.nextSeq
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeStore) List(ctx context.Context, filter Filter, limit int) ([]models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.entries[i]
		if filter.EntityType != "" && e.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && e.EntityID != filter.EntityID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeStore) Scan(ctx context.Context, afterSeq int64, batchSize int, fn func(entry *models.AuditEntry) error) error {
	s.mu.Lock()
	if s.scanErr != nil {
		s.mu.Unlock()
		return s.scanErr
	}
	snapshot := make([]models.AuditEntry, len(s.entries))
	copy(snapshot, s.entries)
	s.mu.Unlock()

	for i := range snapshot {
		if snapshot[i].Seq <= afterSeq {
			continue
		}
		if err := fn(&snapshot[i]); err != nil {
			return err
		}
	}
	return nil
}

// mutate edits stored history in place, the way a hostile DBA would
func (s *fakeStore) mutate(fn func(entries []models.AuditEntry) []models.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = fn(s.entries)
}

func (s *fakeStore) snapshot() []models.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
