package plaidlink

import (
	"context"

	"github.com/plaid/plaid-go/v24/plaid"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/pkg/logger"
)

// SandboxHandler is a headless stand-in for the Plaid Link UI: given a link
// token it produces either a success event carrying a public token or an
// exit event. It drives the sandbox /sandbox/public_token/create flow via
// the Plaid SDK, which skips user credential entry entirely.
type SandboxHandler struct {
	client        *plaid.APIClient
	institutionID string
}

func NewSandboxHandler(clientID, secret string, env dto.PlaidEnvironment, institutionID string) *SandboxHandler {
	cfg := plaid.NewConfiguration()
	cfg.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	cfg.AddDefaultHeader("PLAID-SECRET", secret)
	cfg.UseEnvironment(toPlaidEnv(env))

	if institutionID == "" {
		institutionID = "ins_109508" // First Platypus Bank
	}

	return &SandboxHandler{
		client:        plaid.NewAPIClient(cfg),
		institutionID: institutionID,
	}
}

func (h *SandboxHandler) Open(ctx context.Context, linkToken string, onSuccess func(dto.LinkSuccess), onExit func(dto.LinkExit)) {
	log := logger.FromContext(ctx)

	req := plaid.NewSandboxPublicTokenCreateRequest(
		h.institutionID,
		[]plaid.Products{plaid.PRODUCTS_TRANSACTIONS},
	)
	resp, _, err := h.client.PlaidApi.SandboxPublicTokenCreate(ctx).SandboxPublicTokenCreateRequest(*req).Execute()
	if err != nil {
		log.Warn("sandbox link failed", "institution_id", h.institutionID)
		onExit(dto.LinkExit{Err: err})
		return
	}

	log.Info("sandbox link completed", "institution_id", h.institutionID)
	onSuccess(dto.LinkSuccess{
		PublicToken:     resp.GetPublicToken(),
		InstitutionName: h.institutionID,
	})
}

func toPlaidEnv(env dto.PlaidEnvironment) plaid.Environment {
	switch env {
	case dto.PlaidSandbox:
		return plaid.Sandbox
	case dto.PlaidDevelopment:
		return plaid.Development
	default: // dto.PlaidProduction
		return plaid.Production
	}
}
