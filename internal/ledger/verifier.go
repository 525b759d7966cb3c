package ledger

import (
	"context"
	"errors"

	"github.com/trustportal/trust-api/internal/models"
)

// BreakReason explains why replay stopped
type BreakReason string

const (
	BreakHashMismatch     BreakReason = "hash_mismatch"
	BreakPrevHashMismatch BreakReason = "prev_hash_mismatch"
)

// Checkpoint is the replay state after a verified prefix of Count entries.
// The zero Checkpoint is the start of the chain.
type Checkpoint struct {
	Seq   int64  `json:"seq"`
	Hash  string `json:"hash,omitempty"`
	Count int64  `json:"count"`
}

// Break locates the first entry that failed replay
type Break struct {
	Position int64       `json:"position"`
	Seq      int64       `json:"seq"`
	EntryID  string      `json:"entryId"`
	Reason   BreakReason `json:"reason"`
}

// Report is the outcome of a replay. A broken chain is a result, not an error.
type Report struct {
	Verified  bool       `json:"verified"`
	Checked   int64      `json:"checked"`
	Head      Checkpoint `json:"head"`
	Break     *Break     `json:"break,omitempty"`
	Algorithm string     `json:"algorithm"`
}

var errStopReplay = errors.New("stop replay")

// Verify replays the full chain in insertion order
func (l *Ledger) Verify(ctx context.Context) (Report, error) {
	return l.VerifyFrom(ctx, Checkpoint{})
}

// VerifyFrom replays only entries after from, trusting the prefix it describes.
// Memory use is constant: entries are streamed in batches and only the last
// verified hash is kept.
func (l *Ledger) VerifyFrom(ctx context.Context, from Checkpoint) (Report, error) {
	report := Report{Verified: true, Head: from, Algorithm: l.digester.Name()}

	var expectedPrev *string
	if from.Count > 0 {
		h := from.Hash
		expectedPrev = &h
	}

	err := l.store.Scan(ctx, from.Seq, l.batchSize, func(entry *models.AuditEntry) error {
		if reason, ok := l.check(entry, expectedPrev); !ok {
			report.Verified = false
			report.Break = &Break{
				Position: report.Head.Count,
				Seq:      entry.Seq,
				EntryID:  entry.ID,
				Reason:   reason,
			}
			return errStopReplay
		}
		report.Checked++
		report.Head = Checkpoint{Seq: entry.Seq, Hash: entry.Hash, Count: report.Head.Count + 1}
		h := entry.Hash
		expectedPrev = &h
		return nil
	})
	if err != nil && !errors.Is(err, errStopReplay) {
		return Report{}, storageError("scan entries", err)
	}
	return report, nil
}

// check recomputes the entry hash against the expected predecessor and then
// compares the stored link
func (l *Ledger) check(entry *models.AuditEntry, expectedPrev *string) (BreakReason, bool) {
	details, err := ParseJSON(entry.Details)
	if err != nil {
		return BreakHashMismatch, false
	}
	hash, err := l.hash(entry.EntityType, entry.EntityID, entry.Action, entry.PerformedBy, details, expectedPrev)
	if err != nil || hash != entry.Hash {
		return BreakHashMismatch, false
	}
	if !sameHash(entry.PrevHash, expectedPrev) {
		return BreakPrevHashMismatch, false
	}
	return "", true
}

func sameHash(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
