package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/vcledger/internal/store"
)

// TokensHandler handles bearer token endpoints.
type TokensHandler struct {
	DB *sqlx.DB
}

// Revoke handles POST /api/tokens/revoke. It revokes the token that
// authenticated the request.
func (h *TokensHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	expiresAt := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expiresAt, time.Now()); err != nil {
		slog.Error("failed to revoke token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to revoke token")
		return
	}

	slog.Info("token revoked", "organization", claims.OrganizationID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "token revoked"})
}
