package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/text/width"

	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

// TreatmentInput is a request to administer units to a patient.
type TreatmentInput struct {
	HospitalID    int64        `json:"hospital_id"`
	PatientPhone  string       `json:"patient_phone"`
	TreatmentDate time.Time    `json:"treatment_date"`
	Items         []model.Item `json:"items"`
}

// NormalizePhone folds full-width digits, strips separators and checks that
// a phone number has 9 to 11 digits.
func NormalizePhone(phone string) (string, error) {
	phone = width.Narrow.String(phone)
	phone = strings.Map(func(r rune) rune {
		if strings.ContainsRune(" -().", r) {
			return -1
		}
		return r
	}, strings.TrimSpace(phone))

	for _, r := range phone {
		if r < '0' || r > '9' {
			return "", invalid("phone number may contain only digits and separators")
		}
	}
	if len(phone) < 9 || len(phone) > 11 {
		return "", invalid("phone number must have 9 to 11 digits")
	}
	return phone, nil
}

// CreateTreatment hands units from a hospital's stock to a patient. The
// codes become USED.
func (e *Engine) CreateTreatment(ctx context.Context, in TreatmentInput) (res *TransferResult, err error) {
	start := time.Now()
	var total int
	defer func() { e.observe("create_treatment", start, total, err) }()

	if in.HospitalID <= 0 {
		return nil, invalid("hospital is required")
	}
	phone, err := NormalizePhone(in.PatientPhone)
	if err != nil {
		return nil, err
	}
	if total, err = validateItems(in.Items); err != nil {
		return nil, err
	}
	date := e.today()
	if !in.TreatmentDate.IsZero() {
		date = dateOnly(in.TreatmentDate)
	}

	var patientID int64
	err = e.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireOrg(ctx, tx, in.HospitalID, model.OrgTypeHospital); err != nil {
			return err
		}

		now := e.now()
		patient, err := store.UpsertPatient(ctx, tx, phone, now)
		if err != nil {
			return err
		}
		patientID = patient.ID

		id, err := store.InsertTreatment(ctx, tx, &model.TreatmentRecord{
			HospitalID:    in.HospitalID,
			PatientID:     patient.ID,
			TreatmentDate: date,
			Quantity:      total,
			CreatedAt:     now,
		})
		if err != nil {
			return err
		}

		to := model.PatientOwner(patient.ID)
		t := transition{
			recordKind: model.RecordTreatment,
			recordID:   id,
			action:     model.ActionTreated,
			status:     model.CodeStatusUsed,
			to:         &to,
			at:         now,
		}
		for _, item := range in.Items {
			codes, err := selectCodes(ctx, tx, model.OrgOwner(in.HospitalID), item)
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

	slog.Info("treatment recorded",
		"treatment", res.RecordID, "hospital", in.HospitalID, "patient", patientID, "quantity", total)
	return res, nil
}
