package ledger

import "time"

// RecallWindow is how long after a transfer it may still be reversed.
type RecallWindow time.Duration

// DefaultRecallWindow applies to every recall and return. It is not
// configurable per call.
const DefaultRecallWindow = RecallWindow(24 * time.Hour)

// Allows reports whether a transfer made at transferredAt may be reversed at
// now. The boundary itself is inclusive.
func (w RecallWindow) Allows(transferredAt, now time.Time) bool {
	return now.Sub(transferredAt) <= time.Duration(w)
}
