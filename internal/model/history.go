package model

import "time"

// Action types recorded in the history ledger.
const (
	ActionProduced = "PRODUCED"
	ActionShipped  = "SHIPPED"
	ActionReceived = "RECEIVED"
	ActionTreated  = "TREATED"
	ActionRecalled = "RECALLED"
	ActionDisposed = "DISPOSED"
	ActionReturned = "RETURNED"
)

// HistoryEntry is one immutable fact about one code. Entries for a code form
// a hash chain through PrevHash and Hash.
type HistoryEntry struct {
	ID            int64     `json:"id" db:"id"`
	VirtualCodeID int64     `json:"virtual_code_id" db:"virtual_code_id"`
	RecordKind    string    `json:"record_kind" db:"record_kind"`
	RecordID      int64     `json:"record_id" db:"record_id"`
	ActionType    string    `json:"action_type" db:"action_type"`
	FromOwnerID   *int64    `json:"from_owner_id,omitempty" db:"from_owner_id"`
	FromOwnerType *string   `json:"from_owner_type,omitempty" db:"from_owner_type"`
	ToOwnerID     *int64    `json:"to_owner_id,omitempty" db:"to_owner_id"`
	ToOwnerType   *string   `json:"to_owner_type,omitempty" db:"to_owner_type"`
	IsRecall      bool      `json:"is_recall" db:"is_recall"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	PrevHash      string    `json:"prev_hash" db:"prev_hash"`
	Hash          string    `json:"hash" db:"hash"`

	// Joined fields (not always populated).
	Code      string `json:"code,omitempty" db:"code"`
	LotNumber string `json:"lot_number,omitempty" db:"lot_number"`
	ProductID int64  `json:"product_id,omitempty" db:"product_id"`
}

// SetFrom sets the sending side of the entry.
func (h *HistoryEntry) SetFrom(o Owner) {
	h.FromOwnerID, h.FromOwnerType = &o.ID, &o.Type
}

// SetTo sets the receiving side of the entry.
func (h *HistoryEntry) SetTo(o Owner) {
	h.ToOwnerID, h.ToOwnerType = &o.ID, &o.Type
}

// From returns the sending side, if any.
func (h *HistoryEntry) From() (Owner, bool) {
	if h.FromOwnerID == nil || h.FromOwnerType == nil {
		return Owner{}, false
	}
	return Owner{ID: *h.FromOwnerID, Type: *h.FromOwnerType}, true
}

// To returns the receiving side, if any.
func (h *HistoryEntry) To() (Owner, bool) {
	if h.ToOwnerID == nil || h.ToOwnerType == nil {
		return Owner{}, false
	}
	return Owner{ID: *h.ToOwnerID, Type: *h.ToOwnerType}, true
}

// HistoryFilter narrows a history stream. A nil Owner selects the global stream.
type HistoryFilter struct {
	Owner           *Owner
	From            *time.Time
	To              *time.Time
	ActionTypes     []string
	LotNumber       string
	IncludeRecalled bool
	Limit           int
}
