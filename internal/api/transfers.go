package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/ledger"
	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

// TransfersHandler handles shipment, treatment and disposal endpoints. The
// acting organization always comes from the token.
type TransfersHandler struct {
	DB     *sqlx.DB
	Engine *ledger.Engine
}

type createShipmentRequest struct {
	ToOrgID   int64        `json:"to_org_id"`
	ToOrgType string       `json:"to_org_type"`
	Items     []model.Item `json:"items"`
}

type createTreatmentRequest struct {
	PatientPhone  string       `json:"patient_phone"`
	TreatmentDate string       `json:"treatment_date"`
	Items         []model.Item `json:"items"`
}

type createDisposalRequest struct {
	DisposalDate string       `json:"disposal_date"`
	ReasonType   string       `json:"reason_type"`
	ReasonCustom string       `json:"reason_custom"`
	Items        []model.Item `json:"items"`
}

type recallRequest struct {
	Reason string `json:"reason"`
}

// CreateShipment handles POST /api/shipments.
func (h *TransfersHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	var req createShipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Engine.CreateShipment(r.Context(), ledger.ShipmentInput{
		FromOrgID: GetClaims(r.Context()).OrganizationID,
		ToOrgID:   req.ToOrgID,
		ToOrgType: req.ToOrgType,
		Items:     req.Items,
	})
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, res)
}

// RecallShipment handles POST /api/shipments/{id}/recall.
func (h *TransfersHandler) RecallShipment(w http.ResponseWriter, r *http.Request) {
	h.reverse(w, r, h.Engine.RecallShipment)
}

// ReturnShipment handles POST /api/shipments/{id}/return.
func (h *TransfersHandler) ReturnShipment(w http.ResponseWriter, r *http.Request) {
	h.reverse(w, r, h.Engine.ReturnShipment)
}

// RecallTreatment handles POST /api/treatments/{id}/recall.
func (h *TransfersHandler) RecallTreatment(w http.ResponseWriter, r *http.Request) {
	h.reverse(w, r, h.Engine.RecallTreatment)
}

type reverseFunc func(ctx context.Context, recordID, orgID int64, reason string) (*ledger.RecallResult, error)

func (h *TransfersHandler) reverse(w http.ResponseWriter, r *http.Request, fn reverseFunc) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	var req recallRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := fn(r.Context(), id, GetClaims(r.Context()).OrganizationID, req.Reason)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

// CreateTreatment handles POST /api/treatments.
func (h *TransfersHandler) CreateTreatment(w http.ResponseWriter, r *http.Request) {
	var req createTreatmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDate(req.TreatmentDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid treatment_date")
		return
	}

	res, err := h.Engine.CreateTreatment(r.Context(), ledger.TreatmentInput{
		HospitalID:    GetClaims(r.Context()).OrganizationID,
		PatientPhone:  req.PatientPhone,
		TreatmentDate: date,
		Items:         req.Items,
	})
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, res)
}

// CreateDisposal handles POST /api/disposals.
func (h *TransfersHandler) CreateDisposal(w http.ResponseWriter, r *http.Request) {
	var req createDisposalRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDate(req.DisposalDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid disposal_date")
		return
	}

	res, err := h.Engine.CreateDisposal(r.Context(), ledger.DisposalInput{
		OrganizationID: GetClaims(r.Context()).OrganizationID,
		DisposalDate:   date,
		ReasonType:     req.ReasonType,
		ReasonCustom:   req.ReasonCustom,
		Items:          req.Items,
	})
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, res)
}

// ListShipments handles GET /api/shipments.
func (h *TransfersHandler) ListShipments(w http.ResponseWriter, r *http.Request) {
	orgID, ok := scopeOrg(w, r)
	if !ok {
		return
	}
	batches, err := store.ListShipments(r.Context(), h.DB, orgID)
	if err != nil {
		slog.Error("failed to list shipments", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list shipments")
		return
	}
	jsonResponse(w, http.StatusOK, records(batches, (*model.ShipmentBatch).Record))
}

// ListTreatments handles GET /api/treatments.
func (h *TransfersHandler) ListTreatments(w http.ResponseWriter, r *http.Request) {
	orgID, ok := scopeOrg(w, r)
	if !ok {
		return
	}
	treatments, err := store.ListTreatments(r.Context(), h.DB, orgID)
	if err != nil {
		slog.Error("failed to list treatments", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list treatments")
		return
	}
	jsonResponse(w, http.StatusOK, records(treatments, (*model.TreatmentRecord).Record))
}

// ListDisposals handles GET /api/disposals.
func (h *TransfersHandler) ListDisposals(w http.ResponseWriter, r *http.Request) {
	orgID, ok := scopeOrg(w, r)
	if !ok {
		return
	}
	disposals, err := store.ListDisposals(r.Context(), h.DB, orgID)
	if err != nil {
		slog.Error("failed to list disposals", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list disposals")
		return
	}
	jsonResponse(w, http.StatusOK, records(disposals, (*model.DisposalRecord).Record))
}

// records converts stored rows to the common transfer record shape.
func records[T any](rows []T, conv func(*T) model.TransferRecord) []model.TransferRecord {
	out := make([]model.TransferRecord, 0, len(rows))
	for i := range rows {
		out = append(out, conv(&rows[i]))
	}
	return out
}

// scopeOrg returns the organization a listing is about: the caller, or for
// admins the org_id query parameter.
func scopeOrg(w http.ResponseWriter, r *http.Request) (int64, bool) {
	orgID := GetClaims(r.Context()).OrganizationID
	v := r.URL.Query().Get("org_id")
	if v == "" {
		return orgID, true
	}
	if !isAdmin(r) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid org_id")
		return 0, false
	}
	return id, true
}
