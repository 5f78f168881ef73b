package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/moneymap-app/moneymap-backend/internal/bootstrap"
	"github.com/moneymap-app/moneymap-backend/internal/client/bankapi"
	"github.com/moneymap-app/moneymap-backend/internal/client/plaidlink"
	"github.com/moneymap-app/moneymap-backend/internal/config"
	"github.com/moneymap-app/moneymap-backend/internal/crypto"
	"github.com/moneymap-app/moneymap-backend/internal/handlers"
	"github.com/moneymap-app/moneymap-backend/internal/response"
	"github.com/moneymap-app/moneymap-backend/internal/router"
	"github.com/moneymap-app/moneymap-backend/internal/services"
	"github.com/moneymap-app/moneymap-backend/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// helpers
	kmsHelper := crypto.NewKMS(bs.KMS, cfg.KMSKeyName)

	// stores
	ustore := store.NewUserStore(bs.Firestore)
	astore := store.NewAccountStore(bs.Firestore)
	tstore := store.NewTransactionStore(bs.Firestore)
	sstore := store.NewSecretStore(bs.SecretManager, kmsHelper, cfg.ProjectID)
	mstore := store.NewAssistantStore(bs.Firestore)

	// bank clients
	bank := bankapi.New(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnvironment, cfg.DemoMode)
	link := plaidlink.NewSandboxHandler(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnvironment, "")

	// per-user sessions
	pool := services.NewSessionPool(func(uid string) *services.SyncManager {
		return services.NewSyncManager(uid, bank, link, sstore, astore, tstore, cfg.RefreshInterval)
	})
	defer pool.CloseAll()

	// services
	userv := services.NewUserService(ustore)
	ctxsvc := services.NewContextService()
	aisvc := services.NewAssistantService(bs.VertexAdapter, mstore)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.Sessions = func(ctx context.Context, uid string) handlers.SyncSession {
		return pool.Get(ctx, uid)
	}
	deps.ContextSvc = ctxsvc
	deps.AssistantSvc = aisvc
	deps.UserSvc = userv

	// router
	r := router.NewRouter(deps)
	err = http.ListenAndServe(":8080", r)
	exitOnError("server start failed", err, bs.Log)
}
