package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

// CreateLotInput is a request to register produced units.
type CreateLotInput struct {
	OrganizationID  int64      `json:"organization_id"`
	ProductID       int64      `json:"product_id"`
	Quantity        int        `json:"quantity"`
	ManufactureDate time.Time  `json:"manufacture_date"`
	// ExpiryDate overrides the expiry derived from the lot settings. When the
	// units join an existing lot it must match that lot's expiry.
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
}

// LotResult describes the lot a registration landed in.
type LotResult struct {
	LotID         int64     `json:"lot_id"`
	LotNumber     string    `json:"lot_number"`
	TotalQuantity int       `json:"total_quantity"`
	ExpiryDate    time.Time `json:"expiry_date"`
	// Merged is set when the units were added to an existing lot.
	Merged bool `json:"merged"`
}

// CreateOrAddLot registers in.Quantity new codes for a product. Units whose
// lot number already exists for the product are added to that lot.
func (e *Engine) CreateOrAddLot(ctx context.Context, in CreateLotInput) (res *LotResult, err error) {
	start := time.Now()
	defer func() { e.observe("create_lot", start, in.Quantity, err) }()

	switch {
	case in.OrganizationID <= 0:
		return nil, invalid("organization is required")
	case in.ProductID <= 0:
		return nil, invalid("product is required")
	case in.Quantity < 1:
		return nil, invalid("quantity must be positive")
	case in.Quantity > model.MaxLotQuantity:
		return nil, newError(CodeQuantityLimit, "a lot holds at most %d units, %d requested", model.MaxLotQuantity, in.Quantity)
	case in.ManufactureDate.IsZero():
		return nil, invalid("manufacture date is required")
	}
	manufactured := dateOnly(in.ManufactureDate)
	if in.ExpiryDate != nil && dateOnly(*in.ExpiryDate).Before(manufactured) {
		return nil, invalid("expiry date is before manufacture date")
	}

	err = e.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err = e.createOrAddLot(ctx, tx, in, manufactured)
		return err
	})
	if err != nil {
		return nil, wrapInfra(CodeTransactionFailed, err)
	}

	slog.Info("lot registered",
		"lot", res.LotID, "lot_number", res.LotNumber, "added", in.Quantity,
		"total", res.TotalQuantity, "merged", res.Merged)
	return res, nil
}

func (e *Engine) createOrAddLot(ctx context.Context, tx *sqlx.Tx, in CreateLotInput, manufactured time.Time) (*LotResult, error) {
	product, err := store.GetProduct(ctx, tx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.OrganizationID != in.OrganizationID || !product.IsActive {
		return nil, newError(CodeProductNotFound, "product %d not found for organization %d", in.ProductID, in.OrganizationID)
	}

	settings, err := store.GetLotSettings(ctx, tx, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		s := model.DefaultLotSettings(in.OrganizationID, e.defaultExpiryMonths)
		settings = &s
	}

	number, err := LotNumber(*settings, product.ModelName, manufactured)
	if err != nil {
		return nil, err
	}

	now := e.now()
	res := &LotResult{LotNumber: number}

	lot, err := store.GetLotForUpdate(ctx, tx, product.ID, number)
	if err != nil {
		return nil, err
	}
	if lot != nil {
		if lot.Quantity+in.Quantity > model.MaxLotQuantity {
			return nil, newError(CodeQuantityLimit, "lot %s holds %d units, adding %d exceeds %d",
				number, lot.Quantity, in.Quantity, model.MaxLotQuantity)
		}
		if in.ExpiryDate != nil && !dateOnly(*in.ExpiryDate).Equal(dateOnly(lot.ExpiryDate)) {
			return nil, invalid("lot %s expires %s, not %s",
				number, lot.ExpiryDate.Format(time.DateOnly), in.ExpiryDate.Format(time.DateOnly))
		}
		if err := store.AddLotQuantity(ctx, tx, lot.ID, in.Quantity, now); err != nil {
			return nil, err
		}
		res.LotID = lot.ID
		res.TotalQuantity = lot.Quantity + in.Quantity
		res.ExpiryDate = lot.ExpiryDate
		res.Merged = true
	} else {
		expiry := DefaultExpiry(manufactured, settings.ExpiryMonths)
		if in.ExpiryDate != nil {
			expiry = dateOnly(*in.ExpiryDate)
		}
		id, err := store.InsertLot(ctx, tx, &model.Lot{
			ProductID:       product.ID,
			LotNumber:       number,
			Quantity:        in.Quantity,
			ManufactureDate: manufactured,
			ExpiryDate:      expiry,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return nil, err
		}
		res.LotID = id
		res.TotalQuantity = in.Quantity
		res.ExpiryDate = expiry
	}

	owner := model.OrgOwner(in.OrganizationID)
	for range in.Quantity {
		if err := e.produce(ctx, tx, res.LotID, owner, now); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// produce creates one IN_STOCK code and its PRODUCED entry.
func (e *Engine) produce(ctx context.Context, tx *sqlx.Tx, lotID int64, owner model.Owner, now time.Time) error {
	c := &model.VirtualCode{
		Code:      e.newCode(),
		LotID:     lotID,
		Status:    model.CodeStatusInStock,
		OwnerID:   owner.ID,
		OwnerType: owner.Type,
		CreatedAt: now,
		UpdatedAt: now,
	}
	h := &model.HistoryEntry{
		RecordKind: model.RecordLot,
		RecordID:   lotID,
		ActionType: model.ActionProduced,
		CreatedAt:  now,
	}
	h.SetTo(owner)

	// The code row stores the chain head, so the first hash is computed
	// before the code exists.
	h.Hash = entryHash("", c.Code, h)
	c.ChainHead = h.Hash

	id, err := store.InsertCode(ctx, tx, c)
	if err != nil {
		return err
	}
	h.VirtualCodeID = id
	_, err = store.InsertHistory(ctx, tx, h)
	return err
}
