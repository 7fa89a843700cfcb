package model

import "time"

// Record kinds. A history entry links back to exactly one record.
const (
	RecordLot       = "LOT"
	RecordShipment  = "SHIPMENT"
	RecordTreatment = "TREATMENT"
	RecordDisposal  = "DISPOSAL"
)

// Recall kinds stored on a recalled shipment.
const (
	RecallKindRecall = "RECALL"
	RecallKindReturn = "RETURN"
)

// Disposal reasons.
const (
	DisposalReasonExpired   = "EXPIRED"
	DisposalReasonDamaged   = "DAMAGED"
	DisposalReasonDefective = "DEFECTIVE"
	DisposalReasonLost      = "LOST"
	DisposalReasonOther     = "OTHER"
)

// TransferRecord is the shape shared by shipments, treatments and disposals.
// To is nil for disposals.
type TransferRecord struct {
	Kind         string     `json:"kind"`
	ID           int64      `json:"id"`
	From         Owner      `json:"from"`
	To           *Owner     `json:"to,omitempty"`
	Quantity     int        `json:"quantity"`
	CreatedAt    time.Time  `json:"created_at"`
	IsRecalled   bool       `json:"is_recalled"`
	RecallReason string     `json:"recall_reason,omitempty"`
	RecallDate   *time.Time `json:"recall_date,omitempty"`
}

// ShipmentBatch moves IN_STOCK codes between organizations.
type ShipmentBatch struct {
	ID            int64      `json:"id" db:"id"`
	FromOwnerID   int64      `json:"from_owner_id" db:"from_owner_id"`
	FromOwnerType string     `json:"from_owner_type" db:"from_owner_type"`
	ToOwnerID     int64      `json:"to_owner_id" db:"to_owner_id"`
	ToOwnerType   string     `json:"to_owner_type" db:"to_owner_type"`
	ToOrgType     string     `json:"to_org_type" db:"to_org_type"`
	Quantity      int        `json:"quantity" db:"quantity"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	IsRecalled    bool       `json:"is_recalled" db:"is_recalled"`
	RecallKind    *string    `json:"recall_kind,omitempty" db:"recall_kind"`
	RecallReason  *string    `json:"recall_reason,omitempty" db:"recall_reason"`
	RecallDate    *time.Time `json:"recall_date,omitempty" db:"recall_date"`
}

// From returns the sending owner.
func (b *ShipmentBatch) From() Owner { return Owner{ID: b.FromOwnerID, Type: b.FromOwnerType} }

// To returns the receiving owner.
func (b *ShipmentBatch) To() Owner { return Owner{ID: b.ToOwnerID, Type: b.ToOwnerType} }

// Record returns the batch as a generic transfer record.
func (b *ShipmentBatch) Record() TransferRecord {
	to := b.To()
	return TransferRecord{
		Kind:         RecordShipment,
		ID:           b.ID,
		From:         b.From(),
		To:           &to,
		Quantity:     b.Quantity,
		CreatedAt:    b.CreatedAt,
		IsRecalled:   b.IsRecalled,
		RecallReason: deref(b.RecallReason),
		RecallDate:   b.RecallDate,
	}
}

// TreatmentRecord moves codes from a hospital to a patient.
type TreatmentRecord struct {
	ID            int64      `json:"id" db:"id"`
	HospitalID    int64      `json:"hospital_id" db:"hospital_id"`
	PatientID     int64      `json:"patient_id" db:"patient_id"`
	TreatmentDate time.Time  `json:"treatment_date" db:"treatment_date"`
	Quantity      int        `json:"quantity" db:"quantity"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	IsRecalled    bool       `json:"is_recalled" db:"is_recalled"`
	RecallReason  *string    `json:"recall_reason,omitempty" db:"recall_reason"`
	RecallDate    *time.Time `json:"recall_date,omitempty" db:"recall_date"`
}

// Record returns the treatment as a generic transfer record.
func (t *TreatmentRecord) Record() TransferRecord {
	to := PatientOwner(t.PatientID)
	return TransferRecord{
		Kind:         RecordTreatment,
		ID:           t.ID,
		From:         OrgOwner(t.HospitalID),
		To:           &to,
		Quantity:     t.Quantity,
		CreatedAt:    t.CreatedAt,
		IsRecalled:   t.IsRecalled,
		RecallReason: deref(t.RecallReason),
		RecallDate:   t.RecallDate,
	}
}

// DisposalRecord marks codes as destroyed. It has no recipient and no recall.
type DisposalRecord struct {
	ID             int64     `json:"id" db:"id"`
	OrganizationID int64     `json:"organization_id" db:"organization_id"`
	DisposalDate   time.Time `json:"disposal_date" db:"disposal_date"`
	ReasonType     string    `json:"reason_type" db:"reason_type"`
	ReasonCustom   *string   `json:"reason_custom,omitempty" db:"reason_custom"`
	Quantity       int       `json:"quantity" db:"quantity"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Record returns the disposal as a generic transfer record.
func (d *DisposalRecord) Record() TransferRecord {
	return TransferRecord{
		Kind:      RecordDisposal,
		ID:        d.ID,
		From:      OrgOwner(d.OrganizationID),
		Quantity:  d.Quantity,
		CreatedAt: d.CreatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
