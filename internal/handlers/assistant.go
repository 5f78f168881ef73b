package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/internal/errs"
	"github.com/moneymap-app/moneymap-backend/internal/middleware"
	"github.com/moneymap-app/moneymap-backend/internal/response"
)

const defaultHistoryLimit = 50

type assistantHandlers struct {
	ResponseHandler response.ResponseHandler
	Sessions        ManagerProvider
	ContextSvc      ContextService
	AssistantSvc    AssistantService
}

func NewAssistantHandlers(deps *Deps) *assistantHandlers {
	return &assistantHandlers{
		ResponseHandler: deps.ResponseHandler,
		Sessions:        deps.Sessions,
		ContextSvc:      deps.ContextSvc,
		AssistantSvc:    deps.AssistantSvc,
	}
}

func (h *assistantHandlers) AssistantRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/ask", h.Ask)
	r.Get("/history", h.History)
	return r
}

func (h *assistantHandlers) Ask(w http.ResponseWriter, r *http.Request) {
	var body dto.AssistantAskRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewInvalidInputError("invalid request body"))
		return
	}

	uid := middleware.UID(r.Context())
	m := h.Sessions(r.Context(), uid)
	fctx := h.ContextSvc.BuildContext(m.Snapshot())

	answer, sessionID, err := h.AssistantSvc.Ask(r.Context(), uid, body.SessionID, body.Question, fctx)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]any{
		"answer":    answer.Answer,
		"sessionId": sessionID,
	})
}

func (h *assistantHandlers) History(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	sessionID := r.URL.Query().Get("sessionId")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.ResponseHandler.HandleError(w, r, errs.NewInvalidInputError("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	messages, err := h.AssistantSvc.History(r.Context(), uid, sessionID, limit)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, messages)
}
