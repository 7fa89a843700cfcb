package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

// ShipmentInput is a request to move stock between organizations.
type ShipmentInput struct {
	FromOrgID int64        `json:"from_org_id"`
	ToOrgID   int64        `json:"to_org_id"`
	ToOrgType string       `json:"to_org_type"`
	Items     []model.Item `json:"items"`
}

// TransferResult identifies the record a transfer created.
type TransferResult struct {
	RecordID      int64 `json:"record_id"`
	TotalQuantity int   `json:"total_quantity"`
}

// CreateShipment moves the requested units from the sender to the
// recipient. Either every item is shipped or nothing is.
func (e *Engine) CreateShipment(ctx context.Context, in ShipmentInput) (res *TransferResult, err error) {
	start := time.Now()
	var total int
	defer func() { e.observe("create_shipment", start, total, err) }()

	switch {
	case in.FromOrgID <= 0 || in.ToOrgID <= 0:
		return nil, invalid("sender and recipient are required")
	case in.FromOrgID == in.ToOrgID:
		return nil, invalid("cannot ship to the sending organization")
	case !model.ValidOrgType(in.ToOrgType) || in.ToOrgType == model.OrgTypeAdmin:
		return nil, invalid("invalid recipient type %q", in.ToOrgType)
	}
	if total, err = validateItems(in.Items); err != nil {
		return nil, err
	}

	err = e.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err = e.createShipment(ctx, tx, in, total)
		return err
	})
	if err != nil {
		return nil, wrapInfra(CodeShipmentCreateFailed, err)
	}

	slog.Info("shipment created",
		"batch", res.RecordID, "from", in.FromOrgID, "to", in.ToOrgID, "quantity", res.TotalQuantity)
	return res, nil
}

func (e *Engine) createShipment(ctx context.Context, tx *sqlx.Tx, in ShipmentInput, total int) (*TransferResult, error) {
	if err := requireOrg(ctx, tx, in.FromOrgID, ""); err != nil {
		return nil, err
	}
	if err := requireOrg(ctx, tx, in.ToOrgID, in.ToOrgType); err != nil {
		return nil, err
	}

	now := e.now()
	from, to := model.OrgOwner(in.FromOrgID), model.OrgOwner(in.ToOrgID)
	id, err := store.InsertShipment(ctx, tx, &model.ShipmentBatch{
		FromOwnerID:   from.ID,
		FromOwnerType: from.Type,
		ToOwnerID:     to.ID,
		ToOwnerType:   to.Type,
		ToOrgType:     in.ToOrgType,
		Quantity:      total,
		CreatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	t := transition{
		recordKind: model.RecordShipment,
		recordID:   id,
		action:     model.ActionShipped,
		status:     model.CodeStatusInStock,
		to:         &to,
		at:         now,
	}
	for _, item := range in.Items {
		codes, err := selectCodes(ctx, tx, from, item)
		if err != nil {
			return nil, err
		}
		if err := apply(ctx, tx, codes, t); err != nil {
			return nil, err
		}
	}
	return &TransferResult{RecordID: id, TotalQuantity: total}, nil
}

// requireOrg checks that an organization exists and is active. A non-empty
// orgType must also match.
func requireOrg(ctx context.Context, q sqlx.ExtContext, id int64, orgType string) error {
	org, err := store.GetOrganization(ctx, q, id)
	if err != nil {
		return err
	}
	if org == nil || org.Status != model.OrgStatusActive {
		return newError(CodeOrganizationNotFound, "organization %d not found or inactive", id)
	}
	if orgType != "" && org.Type != orgType {
		return newError(CodeOrganizationNotFound, "organization %d is not a %s", id, orgType)
	}
	return nil
}
