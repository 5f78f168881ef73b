package handlers

import (
	"context"
	"log/slog"

	"firebase.google.com/go/v4/auth"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/internal/models"
	"github.com/moneymap-app/moneymap-backend/internal/response"
)

// SyncSession is one user's synchronization session as the HTTP layer sees
// it. *services.SyncManager satisfies it.
type SyncSession interface {
	PrepareLink(ctx context.Context) error
	ExchangePublicToken(ctx context.Context, publicToken string) error
	FetchAccounts(ctx context.Context) error
	FetchTransactions(ctx context.Context) error
	RefreshAll(ctx context.Context) error
	DisconnectAccount(ctx context.Context, accountID string) error
	DisconnectAll(ctx context.Context) error
	UpdateTransaction(ctx context.Context, transactionID string, update dto.TransactionUpdate) error
	Snapshot() dto.Snapshot
	BudgetCategoryList() []dto.BudgetCategoryItem
	MonthlyFinancialData() []dto.MonthlyFinancialData
	TransactionsForAccount(accountID string) []models.Transaction
	HasLinkedAccounts() bool
}

// ManagerProvider resolves the caller's session; main wires it to the
// session pool.
type ManagerProvider func(ctx context.Context, uid string) SyncSession

type ContextService interface {
	BuildContext(snap dto.Snapshot) dto.FinancialContext
}

type AssistantService interface {
	Ask(ctx context.Context, uid, sessionID, question string, fctx dto.FinancialContext) (dto.AssistantAskResponse, string, error)
	History(ctx context.Context, uid, sessionID string, limit int) ([]models.AssistantMessage, error)
}

type UserService interface {
	Register(ctx context.Context, uid, email, first, last string) error
	Get(ctx context.Context, uid string) (*models.User, error)
	Update(ctx context.Context, uid, email, first, last string) error
}

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	Sessions        ManagerProvider
	ContextSvc      ContextService
	AssistantSvc    AssistantService
	UserSvc         UserService
	Firebase        *auth.Client
}
