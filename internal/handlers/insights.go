package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moneymap-app/moneymap-backend/internal/middleware"
	"github.com/moneymap-app/moneymap-backend/internal/response"
)

type insightsHandlers struct {
	ResponseHandler response.ResponseHandler
	Sessions        ManagerProvider
	ContextSvc      ContextService
}

func NewInsightsHandlers(deps *Deps) *insightsHandlers {
	return &insightsHandlers{
		ResponseHandler: deps.ResponseHandler,
		Sessions:        deps.Sessions,
		ContextSvc:      deps.ContextSvc,
	}
}

func (h *insightsHandlers) InsightsRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/monthly", h.Monthly)
	r.Get("/budgets", h.Budgets)
	r.Get("/context", h.Context)
	return r
}

func (h *insightsHandlers) Monthly(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	m := h.Sessions(r.Context(), uid)

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, m.MonthlyFinancialData())
}

func (h *insightsHandlers) Budgets(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	m := h.Sessions(r.Context(), uid)

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, m.BudgetCategoryList())
}

func (h *insightsHandlers) Context(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	m := h.Sessions(r.Context(), uid)

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.ContextSvc.BuildContext(m.Snapshot()))
}
