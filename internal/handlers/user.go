package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moneymap-app/moneymap-backend/internal/errs"
	"github.com/moneymap-app/moneymap-backend/internal/middleware"
	"github.com/moneymap-app/moneymap-backend/internal/response"
)

type userHandlers struct {
	ResponseHandler response.ResponseHandler
	UserSvc         UserService
}

func NewUserHandlers(deps *Deps) *userHandlers {
	return &userHandlers{
		ResponseHandler: deps.ResponseHandler,
		UserSvc:         deps.UserSvc,
	}
}

func (h *userHandlers) UserRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Register)
	r.Get("/me", h.Me)
	r.Put("/me", h.Update)
	return r
}

type userBody struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (h *userHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var body userBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewInvalidInputError("invalid request body"))
		return
	}
	if body.Email == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("email is required"))
		return
	}

	uid := middleware.UID(r.Context())
	if err := h.UserSvc.Register(r.Context(), uid, body.Email, body.FirstName, body.LastName); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, nil)
}

func (h *userHandlers) Me(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())

	user, err := h.UserSvc.Get(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, user)
}

func (h *userHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var body userBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewInvalidInputError("invalid request body"))
		return
	}

	uid := middleware.UID(r.Context())
	if err := h.UserSvc.Update(r.Context(), uid, body.Email, body.FirstName, body.LastName); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
