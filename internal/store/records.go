package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/model"
)

const shipmentColumns = `id, from_owner_id, from_owner_type, to_owner_id, to_owner_type, to_org_type,
	quantity, created_at, is_recalled, recall_kind, recall_reason, recall_date`

// InsertShipment records a shipment batch and returns its ID.
func InsertShipment(ctx context.Context, q sqlx.ExtContext, b *model.ShipmentBatch) (int64, error) {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO shipment_batches (from_owner_id, from_owner_type, to_owner_id, to_owner_type, to_org_type, quantity, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.FromOwnerID, b.FromOwnerType, b.ToOwnerID, b.ToOwnerType, b.ToOrgType, b.Quantity, b.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("recording shipment: %w", err)
	}
	return id, nil
}

// GetShipment returns a shipment batch by ID, or nil if it doesn't exist.
// With lock set the row stays locked until the transaction ends.
func GetShipment(ctx context.Context, q sqlx.ExtContext, id int64, lock bool) (*model.ShipmentBatch, error) {
	query := `SELECT ` + shipmentColumns + ` FROM shipment_batches WHERE id = ?`
	if lock {
		query += forUpdate(q, "")
	}

	b := &model.ShipmentBatch{}
	err := sqlx.GetContext(ctx, q, b, q.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting shipment: %w", err)
	}
	return b, nil
}

// MarkShipmentRecalled flags a shipment as recalled or returned. The flag is
// one-way: it reports false if the batch was already flagged.
func MarkShipmentRecalled(ctx context.Context, q sqlx.ExtContext, id int64, kind, reason string, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE shipment_batches SET is_recalled = TRUE, recall_kind = ?, recall_reason = ?, recall_date = ?
		 WHERE id = ? AND NOT is_recalled`),
		kind, reason, at, id,
	)
	if err != nil {
		return false, fmt.Errorf("flagging shipment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("flagging shipment: %w", err)
	}
	return n == 1, nil
}

// ListShipments returns the shipments an organization sent or received,
// newest first.
func ListShipments(ctx context.Context, q sqlx.ExtContext, orgID int64) ([]model.ShipmentBatch, error) {
	var batches []model.ShipmentBatch
	err := sqlx.SelectContext(ctx, q, &batches, q.Rebind(
		`SELECT `+shipmentColumns+` FROM shipment_batches
		 WHERE (from_owner_type = ? AND from_owner_id = ?) OR (to_owner_type = ? AND to_owner_id = ?)
		 ORDER BY created_at DESC, id DESC`),
		model.OwnerTypeOrganization, orgID, model.OwnerTypeOrganization, orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing shipments: %w", err)
	}
	return batches, nil
}

const treatmentColumns = `id, hospital_id, patient_id, treatment_date, quantity, created_at,
	is_recalled, recall_reason, recall_date`

// InsertTreatment records a treatment and returns its ID.
func InsertTreatment(ctx context.Context, q sqlx.ExtContext, t *model.TreatmentRecord) (int64, error) {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO treatment_records (hospital_id, patient_id, treatment_date, quantity, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.HospitalID, t.PatientID, t.TreatmentDate, t.Quantity, t.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("recording treatment: %w", err)
	}
	return id, nil
}

// GetTreatment returns a treatment record by ID, or nil if it doesn't exist.
func GetTreatment(ctx context.Context, q sqlx.ExtContext, id int64, lock bool) (*model.TreatmentRecord, error) {
	query := `SELECT ` + treatmentColumns + ` FROM treatment_records WHERE id = ?`
	if lock {
		query += forUpdate(q, "")
	}

	t := &model.TreatmentRecord{}
	err := sqlx.GetContext(ctx, q, t, q.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting treatment: %w", err)
	}
	return t, nil
}

// MarkTreatmentRecalled flags a treatment as recalled. It reports false if
// the record was already flagged.
func MarkTreatmentRecalled(ctx context.Context, q sqlx.ExtContext, id int64, reason string, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE treatment_records SET is_recalled = TRUE, recall_reason = ?, recall_date = ?
		 WHERE id = ? AND NOT is_recalled`),
		reason, at, id,
	)
	if err != nil {
		return false, fmt.Errorf("flagging treatment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("flagging treatment: %w", err)
	}
	return n == 1, nil
}

// ListTreatments returns a hospital's treatments, newest first.
func ListTreatments(ctx context.Context, q sqlx.ExtContext, hospitalID int64) ([]model.TreatmentRecord, error) {
	var records []model.TreatmentRecord
	err := sqlx.SelectContext(ctx, q, &records, q.Rebind(
		`SELECT `+treatmentColumns+` FROM treatment_records
		 WHERE hospital_id = ? ORDER BY created_at DESC, id DESC`), hospitalID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing treatments: %w", err)
	}
	return records, nil
}

const disposalColumns = `id, organization_id, disposal_date, reason_type, reason_custom, quantity, created_at`

// InsertDisposal records a disposal and returns its ID.
func InsertDisposal(ctx context.Context, q sqlx.ExtContext, d *model.DisposalRecord) (int64, error) {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO disposal_records (organization_id, disposal_date, reason_type, reason_custom, quantity, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.OrganizationID, d.DisposalDate, d.ReasonType, d.ReasonCustom, d.Quantity, d.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("recording disposal: %w", err)
	}
	return id, nil
}

// GetDisposal returns a disposal record by ID, or nil if it doesn't exist.
func GetDisposal(ctx context.Context, q sqlx.ExtContext, id int64) (*model.DisposalRecord, error) {
	d := &model.DisposalRecord{}
	err := sqlx.GetContext(ctx, q, d, q.Rebind(`SELECT `+disposalColumns+` FROM disposal_records WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting disposal: %w", err)
	}
	return d, nil
}

// ListDisposals returns an organization's disposals, newest first.
func ListDisposals(ctx context.Context, q sqlx.ExtContext, orgID int64) ([]model.DisposalRecord, error) {
	var records []model.DisposalRecord
	err := sqlx.SelectContext(ctx, q, &records, q.Rebind(
		`SELECT `+disposalColumns+` FROM disposal_records
		 WHERE organization_id = ? ORDER BY created_at DESC, id DESC`), orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing disposals: %w", err)
	}
	return records, nil
}
