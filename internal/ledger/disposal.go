package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

// DisposalInput is a request to destroy units.
type DisposalInput struct {
	OrganizationID int64        `json:"organization_id"`
	DisposalDate   time.Time    `json:"disposal_date"`
	ReasonType     string       `json:"reason_type"`
	ReasonCustom   string       `json:"reason_custom,omitempty"`
	Items          []model.Item `json:"items"`
}

func validDisposalReason(r string) bool {
	switch r {
	case model.DisposalReasonExpired, model.DisposalReasonDamaged, model.DisposalReasonDefective,
		model.DisposalReasonLost, model.DisposalReasonOther:
		return true
	}
	return false
}

// CreateDisposal marks units as DISPOSED. The organization stays the owner
// of record. Disposals cannot be recalled.
func (e *Engine) CreateDisposal(ctx context.Context, in DisposalInput) (res *TransferResult, err error) {
	start := time.Now()
	var total int
	defer func() { e.observe("create_disposal", start, total, err) }()

	if in.OrganizationID <= 0 {
		return nil, invalid("organization is required")
	}
	if !validDisposalReason(in.ReasonType) {
		return nil, invalid("invalid disposal reason %q", in.ReasonType)
	}
	var custom *string
	if c := strings.TrimSpace(in.ReasonCustom); c != "" {
		custom = &c
	} else if in.ReasonType == model.DisposalReasonOther {
		return nil, invalid("a custom reason is required for OTHER")
	}
	if total, err = validateItems(in.Items); err != nil {
		return nil, err
	}
	date := e.today()
	if !in.DisposalDate.IsZero() {
		date = dateOnly(in.DisposalDate)
	}

	err = e.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireOrg(ctx, tx, in.OrganizationID, ""); err != nil {
			return err
		}

		now := e.now()
		id, err := store.InsertDisposal(ctx, tx, &model.DisposalRecord{
			OrganizationID: in.OrganizationID,
			DisposalDate:   date,
			ReasonType:     in.ReasonType,
			ReasonCustom:   custom,
			Quantity:       total,
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}

		t := transition{
			recordKind: model.RecordDisposal,
			recordID:   id,
			action:     model.ActionDisposed,
			status:     model.CodeStatusDisposed,
			at:         now,
		}
		for _, item := range in.Items {
			codes, err := selectCodes(ctx, tx, model.OrgOwner(in.OrganizationID), item)
			if err != nil {
				return err
			}
			if err := apply(ctx, tx, codes, t); err != nil {
				return err
			}
		}
		res = &TransferResult{RecordID: id, TotalQuantity: total}
		return nil
	})
	if err != nil {
		return nil, wrapInfra(CodeTransactionFailed, err)
	}

	slog.Info("disposal recorded",
		"disposal", res.RecordID, "organization", in.OrganizationID, "reason", in.ReasonType, "quantity", total)
	return res, nil
}
