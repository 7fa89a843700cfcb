package ledger

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/db"
	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

// selectCodes picks exactly item.Quantity IN_STOCK codes of item.ProductID
// held by owner, oldest first. It never returns a partial selection.
//
// On Postgres the rows are locked. A concurrent transaction that moved some
// of them first makes the locked read come back short, so the selection is
// repeated once against the now committed state.
func selectCodes(ctx context.Context, tx *sqlx.Tx, owner model.Owner, item model.Item) ([]model.VirtualCode, error) {
	codes, err := store.SelectInStock(ctx, tx, owner, item.ProductID, item.LotID, item.Quantity)
	if err != nil {
		return nil, err
	}
	if len(codes) < item.Quantity && db.LocksRows(tx.DriverName()) {
		codes, err = store.SelectInStock(ctx, tx, owner, item.ProductID, item.LotID, item.Quantity)
		if err != nil {
			return nil, err
		}
	}
	if len(codes) < item.Quantity {
		if item.LotID != nil {
			return nil, newError(CodeInsufficientInventory,
				"product %d lot %d: %d in stock, %d requested", item.ProductID, *item.LotID, len(codes), item.Quantity)
		}
		return nil, newError(CodeInsufficientInventory,
			"product %d: %d in stock, %d requested", item.ProductID, len(codes), item.Quantity)
	}
	return codes, nil
}

// transition describes how a transfer changes the codes it moves.
type transition struct {
	recordKind string
	recordID   int64
	action     string
	status     string
	// to is the new owner. Nil keeps the current owner.
	to       *model.Owner
	isRecall bool
	at       time.Time
}

// apply moves codes through t, appending one history entry per code.
func apply(ctx context.Context, tx *sqlx.Tx, codes []model.VirtualCode, t transition) error {
	for i := range codes {
		c := &codes[i]
		h := &model.HistoryEntry{
			RecordKind: t.recordKind,
			RecordID:   t.recordID,
			ActionType: t.action,
			IsRecall:   t.isRecall,
			CreatedAt:  t.at,
		}
		h.SetFrom(c.Owner())
		owner := c.Owner()
		if t.to != nil {
			h.SetTo(*t.to)
			owner = *t.to
		}
		if err := appendEntry(ctx, tx, c, h); err != nil {
			return err
		}
		if err := store.UpdateCode(ctx, tx, c.ID, t.status, owner, c.ChainHead, t.at); err != nil {
			return err
		}
		c.Status, c.OwnerID, c.OwnerType, c.UpdatedAt = t.status, owner.ID, owner.Type, t.at
	}
	return nil
}

// validateItems checks the shape of a transfer request and returns the
// total quantity it asks for.
func validateItems(items []model.Item) (int, error) {
	if len(items) == 0 {
		return 0, invalid("at least one item is required")
	}
	total := 0
	for i, item := range items {
		if item.ProductID <= 0 {
			return 0, invalid("item %d: product is required", i+1)
		}
		if item.Quantity < 1 {
			return 0, invalid("item %d: quantity must be positive", i+1)
		}
		if item.LotID != nil && *item.LotID <= 0 {
			return 0, invalid("item %d: invalid lot", i+1)
		}
		total += item.Quantity
	}
	return total, nil
}
