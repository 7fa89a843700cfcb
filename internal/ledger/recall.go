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

// RecallResult reports how many codes a recall or return moved back.
type RecallResult struct {
	RecordID      int64 `json:"record_id"`
	RecalledCount int   `json:"recalled_count"`
	// SkippedCount is the number of codes the record moved that were no
	// longer eligible, for example because the recipient used them.
	SkippedCount int `json:"skipped_count"`
}

// RecallShipment lets the sender take back a shipment within the recall
// window. Codes the recipient still holds IN_STOCK return to the sender;
// codes it already used or passed on stay where they are and the recall
// still succeeds for the rest.
func (e *Engine) RecallShipment(ctx context.Context, batchID, orgID int64, reason string) (*RecallResult, error) {
	return e.reverseShipment(ctx, "recall_shipment", batchID, orgID, reason, model.RecallKindRecall)
}

// ReturnShipment lets the recipient send a shipment back within the recall
// window. Eligibility follows RecallShipment.
func (e *Engine) ReturnShipment(ctx context.Context, batchID, orgID int64, reason string) (*RecallResult, error) {
	return e.reverseShipment(ctx, "return_shipment", batchID, orgID, reason, model.RecallKindReturn)
}

func (e *Engine) reverseShipment(ctx context.Context, op string, batchID, orgID int64, reason, kind string) (res *RecallResult, err error) {
	start := time.Now()
	defer func() {
		units := 0
		if res != nil {
			units = res.RecalledCount
		}
		e.observe(op, start, units, err)
	}()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("a reason is required")
	}

	err = e.inTx(ctx, func(tx *sqlx.Tx) error {
		batch, err := store.GetShipment(ctx, tx, batchID, true)
		if err != nil {
			return err
		}
		if batch == nil {
			return newError(CodeBatchNotFound, "shipment batch %d not found", batchID)
		}

		requester := model.OrgOwner(orgID)
		action := model.ActionRecalled
		if kind == model.RecallKindReturn {
			action = model.ActionReturned
			if batch.To() != requester {
				return ErrNotRecipient
			}
		} else if batch.From() != requester {
			return ErrNotSender
		}
		if batch.IsRecalled {
			return ErrAlreadyRecalled
		}
		now := e.now()
		if !DefaultRecallWindow.Allows(batch.CreatedAt, now) {
			return ErrWindowExpired
		}

		codes, err := store.CodesForRecord(ctx, tx, model.RecordShipment, batch.ID, model.ActionShipped)
		if err != nil {
			return err
		}
		eligible := eligibleCodes(codes, model.CodeStatusInStock, batch.To())

		sender := batch.From()
		err = apply(ctx, tx, eligible, transition{
			recordKind: model.RecordShipment,
			recordID:   batch.ID,
			action:     action,
			status:     model.CodeStatusInStock,
			to:         &sender,
			isRecall:   true,
			at:         now,
		})
		if err != nil {
			return err
		}

		flagged, err := store.MarkShipmentRecalled(ctx, tx, batch.ID, kind, reason, now)
		if err != nil {
			return err
		}
		if !flagged {
			return ErrAlreadyRecalled
		}

		res = &RecallResult{RecordID: batch.ID, RecalledCount: len(eligible), SkippedCount: len(codes) - len(eligible)}
		return nil
	})
	if err != nil {
		return nil, wrapInfra(CodeTransactionFailed, err)
	}

	slog.Info("shipment reversed",
		"batch", batchID, "kind", kind, "organization", orgID,
		"recalled", res.RecalledCount, "skipped", res.SkippedCount)
	return res, nil
}

// RecallTreatment lets the hospital reverse a treatment within the recall
// window. Codes still USED by the patient return to the hospital's stock.
func (e *Engine) RecallTreatment(ctx context.Context, treatmentID, hospitalID int64, reason string) (res *RecallResult, err error) {
	start := time.Now()
	defer func() {
		units := 0
		if res != nil {
			units = res.RecalledCount
		}
		e.observe("recall_treatment", start, units, err)
	}()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("a reason is required")
	}

	err = e.inTx(ctx, func(tx *sqlx.Tx) error {
		rec, err := store.GetTreatment(ctx, tx, treatmentID, true)
		if err != nil {
			return err
		}
		if rec == nil {
			return newError(CodeTreatmentNotFound, "treatment %d not found", treatmentID)
		}
		if rec.HospitalID != hospitalID {
			return ErrNotSender
		}
		if rec.IsRecalled {
			return ErrAlreadyRecalled
		}
		now := e.now()
		if !DefaultRecallWindow.Allows(rec.CreatedAt, now) {
			return ErrWindowExpired
		}

		codes, err := store.CodesForRecord(ctx, tx, model.RecordTreatment, rec.ID, model.ActionTreated)
		if err != nil {
			return err
		}
		eligible := eligibleCodes(codes, model.CodeStatusUsed, model.PatientOwner(rec.PatientID))

		hospital := model.OrgOwner(hospitalID)
		err = apply(ctx, tx, eligible, transition{
			recordKind: model.RecordTreatment,
			recordID:   rec.ID,
			action:     model.ActionRecalled,
			status:     model.CodeStatusInStock,
			to:         &hospital,
			isRecall:   true,
			at:         now,
		})
		if err != nil {
			return err
		}

		flagged, err := store.MarkTreatmentRecalled(ctx, tx, rec.ID, reason, now)
		if err != nil {
			return err
		}
		if !flagged {
			return ErrAlreadyRecalled
		}

		res = &RecallResult{RecordID: rec.ID, RecalledCount: len(eligible), SkippedCount: len(codes) - len(eligible)}
		return nil
	})
	if err != nil {
		return nil, wrapInfra(CodeTransactionFailed, err)
	}

	slog.Info("treatment recalled",
		"treatment", treatmentID, "hospital", hospitalID, "recalled", res.RecalledCount)
	return res, nil
}

// eligibleCodes returns the codes still in status and held by holder.
func eligibleCodes(codes []model.VirtualCode, status string, holder model.Owner) []model.VirtualCode {
	var out []model.VirtualCode
	for _, c := range codes {
		if c.Status == status && c.Owner() == holder {
			out = append(out, c)
		}
	}
	return out
}
