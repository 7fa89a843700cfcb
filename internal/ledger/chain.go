package ledger

import (
	"context"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/blake2b"

	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

// entryHash returns the chain hash of h given the previous entry's hash.
func entryHash(prev, code string, h *model.HistoryEntry) string {
	var from, to string
	if o, ok := h.From(); ok {
		from = o.String()
	}
	if o, ok := h.To(); ok {
		to = o.String()
	}
	fields := []string{
		prev,
		code,
		h.RecordKind,
		strconv.FormatInt(h.RecordID, 10),
		h.ActionType,
		from,
		to,
		strconv.FormatBool(h.IsRecall),
		h.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	sum := blake2b.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

// appendEntry links h to the code's chain, stores it and advances the
// code's chain head. The code row itself is not written.
func appendEntry(ctx context.Context, tx *sqlx.Tx, c *model.VirtualCode, h *model.HistoryEntry) error {
	h.VirtualCodeID = c.ID
	h.PrevHash = c.ChainHead
	h.Hash = entryHash(h.PrevHash, c.Code, h)
	id, err := store.InsertHistory(ctx, tx, h)
	if err != nil {
		return err
	}
	h.ID = id
	c.ChainHead = h.Hash
	return nil
}

// ChainReport is the result of verifying a code's history chain.
type ChainReport struct {
	Code    string `json:"code"`
	Entries int    `json:"entries"`
	Valid   bool   `json:"valid"`
	// BrokenAt is the ID of the first entry that does not verify. It is
	// zero when the chain is valid or when entries are missing at its end.
	BrokenAt int64  `json:"broken_at,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// VerifyChain recomputes the hash chain of a code's history and compares it
// to the stored hashes and the code's chain head.
func (e *Engine) VerifyChain(ctx context.Context, code string) (*ChainReport, error) {
	c, entries, err := e.loadChain(ctx, code)
	if err != nil {
		return nil, err
	}
	return verifyEntries(c, entries), nil
}

func verifyEntries(c *model.VirtualCode, entries []model.HistoryEntry) *ChainReport {
	report := &ChainReport{Code: c.Code, Entries: len(entries)}

	prev := ""
	for i := range entries {
		h := &entries[i]
		if h.PrevHash != prev {
			report.BrokenAt, report.Reason = h.ID, "previous hash mismatch"
			return report
		}
		if entryHash(prev, c.Code, h) != h.Hash {
			report.BrokenAt, report.Reason = h.ID, "entry hash mismatch"
			return report
		}
		prev = h.Hash
	}
	if prev != c.ChainHead {
		report.Reason = "chain head mismatch"
		return report
	}

	report.Valid = true
	return report
}

func (e *Engine) loadChain(ctx context.Context, code string) (*model.VirtualCode, []model.HistoryEntry, error) {
	c, err := store.GetCodeByValue(ctx, e.db, code)
	if err != nil {
		return nil, nil, wrapInfra(CodeTransactionFailed, err)
	}
	if c == nil {
		return nil, nil, newError(CodeCodeNotFound, "virtual code %q not found", code)
	}
	entries, err := store.ListCodeHistory(ctx, e.db, c.ID)
	if err != nil {
		return nil, nil, wrapInfra(CodeTransactionFailed, err)
	}
	return c, entries, nil
}
