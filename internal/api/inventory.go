package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/vcledger/internal/ledger"
	"github.com/erazemk/vcledger/internal/model"
)

// InventoryHandler handles code lookup, history and inventory endpoints.
type InventoryHandler struct {
	Engine *ledger.Engine
}

type codeHistoryResponse struct {
	Code     string               `json:"code"`
	Verified bool                 `json:"verified"`
	Chain    *ledger.ChainReport  `json:"chain"`
	Entries  []model.HistoryEntry `json:"entries"`
}

// CodeStatus handles GET /api/codes/{code}.
func (h *InventoryHandler) CodeStatus(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if _, ok := h.visibleChain(w, r, code); !ok {
		return
	}
	c, err := h.Engine.CodeStatus(r.Context(), code)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// CodeHistory handles GET /api/codes/{code}/history. It returns the chain of
// custody together with the result of verifying its hash chain.
func (h *InventoryHandler) CodeHistory(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	entries, ok := h.visibleChain(w, r, code)
	if !ok {
		return
	}
	report, err := h.Engine.VerifyChain(r.Context(), code)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	jsonResponse(w, http.StatusOK, codeHistoryResponse{
		Code:     code,
		Verified: report.Valid,
		Chain:    report,
		Entries:  entries,
	})
}

// visibleChain loads a code's chain of custody if the caller may see it.
// Admins see every code; organizations only codes they sent or received.
func (h *InventoryHandler) visibleChain(w http.ResponseWriter, r *http.Request, code string) ([]model.HistoryEntry, bool) {
	entries, err := h.Engine.ChainOfCustody(r.Context(), code)
	if err != nil {
		ledgerError(w, r, err)
		return nil, false
	}
	if isAdmin(r) {
		return entries, true
	}

	caller := model.OrgOwner(GetClaims(r.Context()).OrganizationID)
	for i := range entries {
		from, _ := entries[i].From()
		to, _ := entries[i].To()
		if from == caller || to == caller {
			return entries, true
		}
	}
	jsonError(w, http.StatusForbidden, "insufficient permissions")
	return nil, false
}

// History handles GET /api/history.
//
// Query parameters: from, to (date or RFC 3339; a date-only "to" covers the
// whole day), action (repeatable or comma separated), lot_number,
// include_recalled, limit. Organizations always see their own stream;
// admins see the global stream unless they pass owner_id and owner_type.
func (h *InventoryHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f model.HistoryFilter

	claims := GetClaims(r.Context())
	switch {
	case !isAdmin(r):
		owner := model.OrgOwner(claims.OrganizationID)
		f.Owner = &owner
	case q.Get("owner_id") != "":
		id, err := strconv.ParseInt(q.Get("owner_id"), 10, 64)
		if err != nil || id <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid owner_id")
			return
		}
		ownerType := q.Get("owner_type")
		if ownerType == "" {
			ownerType = model.OwnerTypeOrganization
		}
		if ownerType != model.OwnerTypeOrganization && ownerType != model.OwnerTypePatient {
			jsonError(w, http.StatusBadRequest, "owner_type must be ORGANIZATION or PATIENT")
			return
		}
		f.Owner = &model.Owner{ID: id, Type: ownerType}
	}

	if v := q.Get("from"); v != "" {
		from, err := parseDate(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid from")
			return
		}
		f.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := parseDate(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid to")
			return
		}
		if len(v) == len(time.DateOnly) {
			to = to.Add(24*time.Hour - time.Microsecond)
		}
		f.To = &to
	}

	for _, v := range q["action"] {
		for _, action := range strings.Split(v, ",") {
			if action = strings.ToUpper(strings.TrimSpace(action)); action != "" {
				f.ActionTypes = append(f.ActionTypes, action)
			}
		}
	}
	f.LotNumber = q.Get("lot_number")

	if v := q.Get("include_recalled"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid include_recalled")
			return
		}
		f.IncludeRecalled = include
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = limit
	}

	entries, err := h.Engine.History(r.Context(), f)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// List handles GET /api/inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := scopeOrg(w, r)
	if !ok {
		return
	}
	inventory, err := h.Engine.Inventory(r.Context(), model.OrgOwner(orgID))
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if inventory == nil {
		inventory = []model.Inventory{}
	}
	jsonResponse(w, http.StatusOK, inventory)
}
