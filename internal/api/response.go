package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/vcledger/internal/ledger"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// ledgerError writes the response for an error returned by the engine.
// Business failures keep their code so clients can branch on it.
func ledgerError(w http.ResponseWriter, r *http.Request, err error) {
	code := ledger.CodeOf(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		slog.Error("ledger operation failed", "path", r.URL.Path, "error", err)
	} else {
		slog.Warn("ledger request rejected", "path", r.URL.Path, "code", code)
	}

	if code == "" {
		jsonError(w, status, "internal error")
		return
	}
	msg := string(code)
	var le *ledger.Error
	if errors.As(err, &le) {
		msg = le.Message
	}
	jsonResponse(w, status, map[string]string{"code": string(code), "error": msg})
}

func statusFor(code ledger.Code) int {
	switch code {
	case ledger.CodeInvalidInput:
		return http.StatusBadRequest
	case ledger.CodeNotSender, ledger.CodeNotRecipient:
		return http.StatusForbidden
	case ledger.CodeProductNotFound, ledger.CodeOrganizationNotFound, ledger.CodeBatchNotFound,
		ledger.CodeTreatmentNotFound, ledger.CodeCodeNotFound:
		return http.StatusNotFound
	case ledger.CodeAlreadyRecalled, ledger.CodeInsufficientInventory:
		return http.StatusConflict
	case ledger.CodeWindowExpired, ledger.CodeQuantityLimit, ledger.CodeLotNumberFailed:
		return http.StatusUnprocessableEntity
	case ledger.CodeShipmentCreateFailed, ledger.CodeTransactionFailed:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// pathID parses a numeric path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// parseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
// An empty string yields the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
