package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/ledger"
	"github.com/erazemk/vcledger/internal/metrics"
	"github.com/erazemk/vcledger/internal/model"
)

// NewRouter creates the API router with all endpoints registered. rec may be
// nil, in which case /metrics is not served.
func NewRouter(database *sqlx.DB, engine *ledger.Engine, jwtSecret string, rec *metrics.Recorder) http.Handler {
	mux := http.NewServeMux()

	tokensHandler := &TokensHandler{DB: database}
	orgsHandler := &OrganizationsHandler{DB: database, JWTSecret: jwtSecret}
	productsHandler := &ProductsHandler{DB: database, Engine: engine}
	transfersHandler := &TransfersHandler{DB: database, Engine: engine}
	inventoryHandler := &InventoryHandler{Engine: engine}

	authMW := AuthMiddleware(jwtSecret, database)
	requireAdmin := RequireOrgType(model.OrgTypeAdmin)
	requireParticipant := RequireOrgType(model.OrgTypeManufacturer, model.OrgTypeDistributor, model.OrgTypeHospital)
	requireManufacturer := RequireOrgType(model.OrgTypeManufacturer)
	requireHospital := RequireOrgType(model.OrgTypeHospital)
	requireProductOwner := RequireOrgType(model.OrgTypeManufacturer, model.OrgTypeAdmin)

	// Tokens.
	mux.Handle("POST /api/tokens/revoke", authMW(http.HandlerFunc(tokensHandler.Revoke)))

	// Organizations (admin only).
	mux.Handle("GET /api/organizations", authMW(requireAdmin(http.HandlerFunc(orgsHandler.List))))
	mux.Handle("POST /api/organizations", authMW(requireAdmin(http.HandlerFunc(orgsHandler.Create))))
	mux.Handle("GET /api/organizations/{id}", authMW(requireAdmin(http.HandlerFunc(orgsHandler.Get))))
	mux.Handle("PUT /api/organizations/{id}/status", authMW(requireAdmin(http.HandlerFunc(orgsHandler.UpdateStatus))))
	mux.Handle("GET /api/organizations/{id}/lot-settings", authMW(requireAdmin(http.HandlerFunc(orgsHandler.GetLotSettings))))
	mux.Handle("PUT /api/organizations/{id}/lot-settings", authMW(requireAdmin(http.HandlerFunc(orgsHandler.PutLotSettings))))
	mux.Handle("POST /api/organizations/{id}/tokens", authMW(requireAdmin(http.HandlerFunc(orgsHandler.IssueToken))))

	// Products: read (all), write (manufacturer for its own catalog, or admin).
	mux.Handle("GET /api/products", authMW(http.HandlerFunc(productsHandler.List)))
	mux.Handle("POST /api/products", authMW(requireProductOwner(http.HandlerFunc(productsHandler.Create))))
	mux.Handle("PUT /api/products/{id}/active", authMW(requireProductOwner(http.HandlerFunc(productsHandler.SetActive))))

	// Lots.
	mux.Handle("POST /api/lots", authMW(requireManufacturer(http.HandlerFunc(productsHandler.CreateLot))))
	mux.Handle("GET /api/lots", authMW(http.HandlerFunc(productsHandler.ListLots)))
	mux.Handle("GET /api/lots/{id}", authMW(http.HandlerFunc(productsHandler.GetLot)))

	// Transfers.
	mux.Handle("POST /api/shipments", authMW(requireParticipant(http.HandlerFunc(transfersHandler.CreateShipment))))
	mux.Handle("GET /api/shipments", authMW(http.HandlerFunc(transfersHandler.ListShipments)))
	mux.Handle("POST /api/shipments/{id}/recall", authMW(requireParticipant(http.HandlerFunc(transfersHandler.RecallShipment))))
	mux.Handle("POST /api/shipments/{id}/return", authMW(requireParticipant(http.HandlerFunc(transfersHandler.ReturnShipment))))
	mux.Handle("POST /api/treatments", authMW(requireHospital(http.HandlerFunc(transfersHandler.CreateTreatment))))
	mux.Handle("GET /api/treatments", authMW(http.HandlerFunc(transfersHandler.ListTreatments)))
	mux.Handle("POST /api/treatments/{id}/recall", authMW(requireHospital(http.HandlerFunc(transfersHandler.RecallTreatment))))
	mux.Handle("POST /api/disposals", authMW(requireParticipant(http.HandlerFunc(transfersHandler.CreateDisposal))))
	mux.Handle("GET /api/disposals", authMW(http.HandlerFunc(transfersHandler.ListDisposals)))

	// Codes, history and inventory.
	mux.Handle("GET /api/codes/{code}", authMW(http.HandlerFunc(inventoryHandler.CodeStatus)))
	mux.Handle("GET /api/codes/{code}/history", authMW(http.HandlerFunc(inventoryHandler.CodeHistory)))
	mux.Handle("GET /api/history", authMW(http.HandlerFunc(inventoryHandler.History)))
	mux.Handle("GET /api/inventory", authMW(http.HandlerFunc(inventoryHandler.List)))

	if rec != nil {
		mux.Handle("GET /metrics", rec.Handler())
	}

	return mux
}
