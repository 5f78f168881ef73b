package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/moneymap-app/moneymap-backend/internal/handlers"
	"github.com/moneymap-app/moneymap-backend/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)

	auth := middleware.NewMiddleware(deps.Firebase)

	bh := handlers.NewBankHandlers(deps)
	ih := handlers.NewInsightsHandlers(deps)
	ah := handlers.NewAssistantHandlers(deps)
	uh := handlers.NewUserHandlers(deps)

	r.Group(func(r chi.Router) {
		r.Use(auth.FirebaseAuth)
		r.Mount("/", bh.BankRoutes())
		r.Mount("/insights", ih.InsightsRoutes())
		r.Mount("/assistant", ah.AssistantRoutes())
		r.Mount("/users", uh.UserRoutes())
	})
	return r
}
