package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/auth"
	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

// OrganizationsHandler handles organization registry endpoints.
type OrganizationsHandler struct {
	DB        *sqlx.DB
	JWTSecret string
}

type createOrganizationRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type lotSettingsRequest struct {
	Prefix       string `json:"prefix"`
	ModelDigits  int    `json:"model_digits"`
	DateFormat   string `json:"date_format"`
	ExpiryMonths int    `json:"expiry_months"`
}

type issueTokenRequest struct {
	TTLHours int `json:"ttl_hours"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// List handles GET /api/organizations.
func (h *OrganizationsHandler) List(w http.ResponseWriter, r *http.Request) {
	orgType := r.URL.Query().Get("type")
	orgs, err := store.ListOrganizations(r.Context(), h.DB, orgType)
	if err != nil {
		slog.Error("failed to list organizations", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list organizations")
		return
	}
	if orgs == nil {
		orgs = []model.Organization{}
	}
	jsonResponse(w, http.StatusOK, orgs)
}

// Create handles POST /api/organizations.
func (h *OrganizationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Type == "" {
		jsonError(w, http.StatusBadRequest, "name and type required")
		return
	}
	if !model.ValidOrgType(req.Type) {
		jsonError(w, http.StatusBadRequest, "type must be MANUFACTURER, DISTRIBUTOR, HOSPITAL or ADMIN")
		return
	}

	org, err := store.CreateOrganization(r.Context(), h.DB, req.Name, req.Type, time.Now().UTC())
	if err != nil {
		slog.Error("failed to create organization", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create organization")
		return
	}

	slog.Info("organization created", "organization", org.ID, "name", org.Name, "type", org.Type)
	jsonResponse(w, http.StatusCreated, org)
}

// Get handles GET /api/organizations/{id}.
func (h *OrganizationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, ok := h.load(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, org)
}

// UpdateStatus handles PUT /api/organizations/{id}/status.
func (h *OrganizationsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	org, ok := h.load(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Status {
	case model.OrgStatusActive, model.OrgStatusInactive, model.OrgStatusPending:
	default:
		jsonError(w, http.StatusBadRequest, "status must be ACTIVE, INACTIVE or PENDING")
		return
	}

	if err := store.UpdateOrganizationStatus(r.Context(), h.DB, org.ID, req.Status); err != nil {
		slog.Error("failed to update organization status", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update organization")
		return
	}

	slog.Info("organization status changed", "organization", org.ID, "from", org.Status, "to", req.Status)
	org.Status = req.Status
	jsonResponse(w, http.StatusOK, org)
}

// GetLotSettings handles GET /api/organizations/{id}/lot-settings.
func (h *OrganizationsHandler) GetLotSettings(w http.ResponseWriter, r *http.Request) {
	org, ok := h.load(w, r)
	if !ok {
		return
	}

	s, err := store.GetLotSettings(r.Context(), h.DB, org.ID)
	if err != nil {
		slog.Error("failed to get lot settings", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get lot settings")
		return
	}
	if s == nil {
		jsonError(w, http.StatusNotFound, "lot settings not configured")
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// PutLotSettings handles PUT /api/organizations/{id}/lot-settings.
func (h *OrganizationsHandler) PutLotSettings(w http.ResponseWriter, r *http.Request) {
	org, ok := h.load(w, r)
	if !ok {
		return
	}

	var req lotSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch {
	case req.ModelDigits < 1 || req.ModelDigits > 12:
		jsonError(w, http.StatusBadRequest, "model_digits must be between 1 and 12")
		return
	case req.DateFormat != model.DateFormatYYMMDD && req.DateFormat != model.DateFormatYYYYMMDD &&
		req.DateFormat != model.DateFormatYYJJJ:
		jsonError(w, http.StatusBadRequest, "date_format must be YYMMDD, YYYYMMDD or YYJJJ")
		return
	case req.ExpiryMonths < 1:
		jsonError(w, http.StatusBadRequest, "expiry_months must be positive")
		return
	}

	s := model.LotSettings{
		OrganizationID: org.ID,
		Prefix:         strings.ToUpper(strings.TrimSpace(req.Prefix)),
		ModelDigits:    req.ModelDigits,
		DateFormat:     req.DateFormat,
		ExpiryMonths:   req.ExpiryMonths,
	}
	if err := store.UpsertLotSettings(r.Context(), h.DB, s); err != nil {
		slog.Error("failed to store lot settings", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to store lot settings")
		return
	}

	slog.Info("lot settings updated", "organization", org.ID, "prefix", s.Prefix, "date_format", s.DateFormat)
	jsonResponse(w, http.StatusOK, s)
}

// IssueToken handles POST /api/organizations/{id}/tokens.
func (h *OrganizationsHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	org, ok := h.load(w, r)
	if !ok {
		return
	}
	if org.Status != model.OrgStatusActive {
		jsonError(w, http.StatusConflict, "organization is not active")
		return
	}

	var req issueTokenRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.TTLHours < 0 {
		jsonError(w, http.StatusBadRequest, "ttl_hours must not be negative")
		return
	}

	ttl := time.Duration(req.TTLHours) * time.Hour
	if ttl == 0 {
		ttl = auth.TokenExpiry
	}
	token, err := auth.GenerateToken(h.JWTSecret, org.ID, org.Type, ttl)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("token issued", "organization", org.ID, "ttl", ttl)
	jsonResponse(w, http.StatusCreated, tokenResponse{Token: token, ExpiresAt: time.Now().Add(ttl).UTC()})
}

// load resolves the {id} path parameter to an organization, writing the
// error response itself when that fails.
func (h *OrganizationsHandler) load(w http.ResponseWriter, r *http.Request) (*model.Organization, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid organization id")
		return nil, false
	}
	org, err := store.GetOrganization(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get organization", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get organization")
		return nil, false
	}
	if org == nil {
		jsonError(w, http.StatusNotFound, "organization not found")
		return nil, false
	}
	return org, true
}
