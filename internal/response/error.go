package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/moneymap-app/moneymap-backend/internal/errs"
	"github.com/moneymap-app/moneymap-backend/pkg/logger"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *responseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
	}); err != nil {
		log := logger.FromContext(r.Context())
		log.Error("failed to encode error response", "error", err, "status", status, "code", code)
	}
}

// HandleError maps the service error taxonomy onto HTTP statuses. Upstream
// bank API failures are bad gateways, secret store and database failures
// are internal, and a missing or rejected access token asks the client to
// relink.
func (h *responseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	switch e := err.(type) {
	case *errs.ConfigurationError:
		log.Error("service misconfigured", "error", e.Message)
		h.WriteError(w, r, http.StatusServiceUnavailable, "not_configured", e.Message)

	case *errs.InvalidInputError:
		log.Warn("invalid input", "error", e.Message)
		h.WriteError(w, r, http.StatusBadRequest, "invalid_input", e.Message)

	case *errs.ValidationError:
		log.Warn("validation failed", "error", e.Message)
		h.WriteError(w, r, http.StatusBadRequest, "invalid_input", e.Message)

	case *errs.InvalidAccessTokenError:
		log.Warn("no usable access token", "error", e.Message)
		h.WriteError(w, r, http.StatusUnauthorized, "no_access_token", e.Message)

	case *errs.NotFoundError:
		log.Warn("resource not found", "error", e.Message)
		h.WriteError(w, r, http.StatusNotFound, "not_found", e.Message)

	case *errs.AlreadyExistsError:
		log.Warn("resource already exists", "error", e.Message)
		h.WriteError(w, r, http.StatusConflict, "already_exists", e.Message)

	case *errs.HTTPError:
		log.Warn("bank API returned an error status", "status", e.Status)
		h.WriteError(w, r, http.StatusBadGateway, "bank_api_error", e.Message)

	case *errs.APIError:
		log.Warn("bank API rejected the request", "error", e.Message)
		h.WriteError(w, r, http.StatusBadGateway, "bank_api_error", e.Message)

	case *errs.ParseError:
		log.Error("bank API response could not be parsed", "error", e.Message)
		h.WriteError(w, r, http.StatusBadGateway, "bank_api_error", e.Message)

	case *errs.NetworkError:
		log.Warn("bank API unreachable", "error", e.Message)
		h.WriteError(w, r, http.StatusBadGateway, "bank_unreachable", e.Message)

	case *errs.ExchangeTokenFailedError:
		log.Error("public token exchange failed", "error", e.Message, "cause", e.Cause)
		h.WriteError(w, r, http.StatusBadGateway, "exchange_failed",
			"Could not complete the bank link")

	case *errs.AccountFetchFailedError:
		log.Warn("account fetch failed", "error", e.Message, "cause", e.Cause)
		h.WriteError(w, r, http.StatusBadGateway, "fetch_failed",
			"Could not fetch accounts")

	case *errs.TransactionFetchFailedError:
		log.Warn("transaction fetch failed", "error", e.Message, "cause", e.Cause)
		h.WriteError(w, r, http.StatusBadGateway, "fetch_failed",
			"Could not fetch transactions")

	case *errs.SecretStoreError:
		log.Error("secret store error", "error", e.Message, "cause", e.Cause)
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An error occurred")

	case *errs.DatabaseError:
		log.Error("database error", "operation", e.Operation, "error", e.Message)
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An error occurred")

	default:
		log.Error("unexpected error",
			"error", err,
			"type", fmt.Sprintf("%T", err))
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An unexpected error occurred")
	}
}
