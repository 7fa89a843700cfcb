package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/ledger"
	"github.com/erazemk/vcledger/internal/model"
	"github.com/erazemk/vcledger/internal/store"
)

// ProductsHandler handles product catalog and lot endpoints.
type ProductsHandler struct {
	DB     *sqlx.DB
	Engine *ledger.Engine
}

type createProductRequest struct {
	OrganizationID int64  `json:"organization_id"`
	Name           string `json:"name"`
	ModelName      string `json:"model_name"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

type createLotRequest struct {
	ProductID       int64  `json:"product_id"`
	Quantity        int    `json:"quantity"`
	ManufactureDate string `json:"manufacture_date"`
	ExpiryDate      string `json:"expiry_date"`
}

type lotResponse struct {
	model.Lot
	StatusCounts map[string]int `json:"status_counts"`
}

// List handles GET /api/products. Without org_id it lists the caller's own
// catalog.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := GetClaims(r.Context()).OrganizationID
	if v := r.URL.Query().Get("org_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid org_id")
			return
		}
		orgID = id
	}

	products, err := store.ListProducts(r.Context(), h.DB, orgID)
	if err != nil {
		slog.Error("failed to list products", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

// Create handles POST /api/products. Manufacturers create products in their
// own catalog; admins name the manufacturer.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if !isAdmin(r) {
		req.OrganizationID = claims.OrganizationID
	}
	req.Name = strings.TrimSpace(req.Name)
	req.ModelName = strings.TrimSpace(req.ModelName)
	if req.OrganizationID <= 0 || req.Name == "" || req.ModelName == "" {
		jsonError(w, http.StatusBadRequest, "organization_id, name and model_name required")
		return
	}

	org, err := store.GetOrganization(r.Context(), h.DB, req.OrganizationID)
	if err != nil {
		slog.Error("failed to get organization", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	if org == nil || org.Type != model.OrgTypeManufacturer {
		jsonError(w, http.StatusBadRequest, "products belong to a manufacturer")
		return
	}

	product, err := store.CreateProduct(r.Context(), h.DB, org.ID, req.Name, req.ModelName, time.Now().UTC())
	if err != nil {
		slog.Error("failed to create product", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	slog.Info("product created", "organization", org.ID, "product", product.ID, "model", product.ModelName)
	jsonResponse(w, http.StatusCreated, product)
}

// SetActive handles PUT /api/products/{id}/active.
func (h *ProductsHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get product", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update product")
		return
	}
	if product == nil || (!isAdmin(r) && product.OrganizationID != GetClaims(r.Context()).OrganizationID) {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}

	if err := store.SetProductActive(r.Context(), h.DB, id, req.Active); err != nil {
		slog.Error("failed to update product", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	slog.Info("product updated", "product", id, "active", req.Active)
	product.IsActive = req.Active
	jsonResponse(w, http.StatusOK, product)
}

// CreateLot handles POST /api/lots.
func (h *ProductsHandler) CreateLot(w http.ResponseWriter, r *http.Request) {
	var req createLotRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mfg, err := parseDate(req.ManufactureDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid manufacture_date")
		return
	}
	in := ledger.CreateLotInput{
		OrganizationID:  GetClaims(r.Context()).OrganizationID,
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		ManufactureDate: mfg,
	}
	if req.ExpiryDate != "" {
		exp, err := parseDate(req.ExpiryDate)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid expiry_date")
			return
		}
		in.ExpiryDate = &exp
	}

	res, err := h.Engine.CreateOrAddLot(r.Context(), in)
	if err != nil {
		ledgerError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Merged {
		status = http.StatusOK
	}
	jsonResponse(w, status, res)
}

// ListLots handles GET /api/lots?product_id=.
func (h *ProductsHandler) ListLots(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		jsonError(w, http.StatusBadRequest, "product_id required")
		return
	}

	lots, err := store.ListLots(r.Context(), h.DB, productID)
	if err != nil {
		slog.Error("failed to list lots", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list lots")
		return
	}
	if lots == nil {
		lots = []model.Lot{}
	}
	jsonResponse(w, http.StatusOK, lots)
}

// GetLot handles GET /api/lots/{id}. The response includes how many of the
// lot's codes are in each status.
func (h *ProductsHandler) GetLot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid lot id")
		return
	}

	lot, err := store.GetLot(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get lot", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get lot")
		return
	}
	if lot == nil {
		jsonError(w, http.StatusNotFound, "lot not found")
		return
	}

	counts, err := store.CountLotCodes(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to count lot codes", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get lot")
		return
	}
	jsonResponse(w, http.StatusOK, lotResponse{Lot: *lot, StatusCounts: counts})
}
