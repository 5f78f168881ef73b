package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/internal/errs"
	"github.com/moneymap-app/moneymap-backend/internal/middleware"
	"github.com/moneymap-app/moneymap-backend/internal/response"
)

type bankHandlers struct {
	ResponseHandler response.ResponseHandler
	Sessions        ManagerProvider
}

func NewBankHandlers(deps *Deps) *bankHandlers {
	return &bankHandlers{
		ResponseHandler: deps.ResponseHandler,
		Sessions:        deps.Sessions,
	}
}

func (h *bankHandlers) BankRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/bank/link", h.Link)
	r.Post("/bank/exchange", h.Exchange)
	r.Get("/sync/status", h.SyncStatus)
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.ListAccounts)
		r.Delete("/", h.DisconnectAll)
		r.Delete("/{accountId}", h.DisconnectAccount)
	})
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.ListTransactions)
		r.Post("/refresh", h.Refresh)
		r.Patch("/{transactionId}", h.UpdateTransaction)
	})
	return r
}

// Link runs the whole link pipeline headlessly; in sandbox the link
// handler mints its own public token, so one POST takes the caller from
// nothing to synced accounts.
func (h *bankHandlers) Link(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	m := h.Sessions(r.Context(), uid)

	if err := m.PrepareLink(r.Context()); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, m.Snapshot())
}

// Exchange serves clients that ran a real Link UI themselves and already
// hold a public token.
func (h *bankHandlers) Exchange(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PublicToken string `json:"publicToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewInvalidInputError("invalid request body"))
		return
	}
	if body.PublicToken == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewInvalidInputError("publicToken is required"))
		return
	}

	uid := middleware.UID(r.Context())
	m := h.Sessions(r.Context(), uid)

	if err := m.ExchangePublicToken(r.Context(), body.PublicToken); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, m.Snapshot())
}

func (h *bankHandlers) SyncStatus(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	m := h.Sessions(r.Context(), uid)

	snap := m.Snapshot()
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]any{
		"linkState":   snap.LinkState,
		"isLoading":   snap.IsLoading,
		"lastError":   snap.LastError,
		"lastRefresh": snap.LastRefresh,
		"hasAccounts": m.HasLinkedAccounts(),
	})
}

func (h *bankHandlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	m := h.Sessions(r.Context(), uid)

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, m.Snapshot().Accounts)
}

func (h *bankHandlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	m := h.Sessions(r.Context(), uid)

	if accountID := r.URL.Query().Get("accountId"); accountID != "" {
		h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, m.TransactionsForAccount(accountID))
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, m.Snapshot().Transactions)
}

func (h *bankHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	m := h.Sessions(r.Context(), uid)

	if err := m.RefreshAll(r.Context()); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, m.Snapshot())
}

func (h *bankHandlers) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var body dto.TransactionUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewInvalidInputError("invalid request body"))
		return
	}

	uid := middleware.UID(r.Context())
	transactionID := chi.URLParam(r, "transactionId")
	m := h.Sessions(r.Context(), uid)

	if err := m.UpdateTransaction(r.Context(), transactionID, body); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *bankHandlers) DisconnectAccount(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	accountID := chi.URLParam(r, "accountId")
	m := h.Sessions(r.Context(), uid)

	if err := m.DisconnectAccount(r.Context(), accountID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *bankHandlers) DisconnectAll(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	m := h.Sessions(r.Context(), uid)

	if err := m.DisconnectAll(r.Context()); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
