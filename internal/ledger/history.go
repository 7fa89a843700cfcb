package ledger

import (
	"context"
	"fmt"

	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

// CodeStatus returns the current state of a code.
func (e *Engine) CodeStatus(ctx context.Context, code string) (*model.VirtualCode, error) {
	c, err := store.GetCodeByValue(ctx, e.db, code)
	if err != nil {
		return nil, wrapInfra(CodeTransactionFailed, err)
	}
	if c == nil {
		return nil, newError(CodeCodeNotFound, "virtual code %q not found", code)
	}
	return c, nil
}

// ChainOfCustody returns every history entry of a code, oldest first.
func (e *Engine) ChainOfCustody(ctx context.Context, code string) ([]model.HistoryEntry, error) {
	_, entries, err := e.loadChain(ctx, code)
	return entries, err
}

// History returns the event stream matching f, newest first. With an owner
// set, shipments the owner received are reported as RECEIVED.
func (e *Engine) History(ctx context.Context, f model.HistoryFilter) ([]model.HistoryEntry, error) {
	entries, err := store.QueryHistory(ctx, e.db, f)
	if err != nil {
		return nil, wrapInfra(CodeTransactionFailed, err)
	}
	if f.Owner != nil {
		for i := range entries {
			h := &entries[i]
			if to, ok := h.To(); ok && h.ActionType == model.ActionShipped && to == *f.Owner {
				h.ActionType = model.ActionReceived
			}
		}
	}
	return entries, nil
}

// Inventory returns the IN_STOCK units an owner holds, per lot.
func (e *Engine) Inventory(ctx context.Context, owner model.Owner) ([]model.Inventory, error) {
	inv, err := store.OwnerInventory(ctx, e.db, owner)
	if err != nil {
		return nil, wrapInfra(CodeTransactionFailed, err)
	}
	return inv, nil
}

// Replay derives a code's status and owner from its history entries, which
// must be in the order they were appended.
func Replay(entries []model.HistoryEntry) (string, model.Owner, error) {
	var status string
	var owner model.Owner

	for i, h := range entries {
		if i == 0 && h.ActionType != model.ActionProduced {
			return "", model.Owner{}, fmt.Errorf("history starts with %s", h.ActionType)
		}
		switch h.ActionType {
		case model.ActionProduced, model.ActionShipped, model.ActionRecalled, model.ActionReturned:
			status = model.CodeStatusInStock
		case model.ActionTreated:
			status = model.CodeStatusUsed
		case model.ActionDisposed:
			status = model.CodeStatusDisposed
		default:
			return "", model.Owner{}, fmt.Errorf("entry %d: unknown action %s", h.ID, h.ActionType)
		}
		if to, ok := h.To(); ok {
			owner = to
		}
	}
	if len(entries) == 0 {
		return "", model.Owner{}, fmt.Errorf("no history entries")
	}
	return status, owner, nil
}
