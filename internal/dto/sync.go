package dto

import (
	"time"

	"github.com/moneymap-app/moneymap-backend/internal/models"
)

// LinkState tracks the bank-link flow through its explicit states.
type LinkState string

const (
	LinkIdle                 LinkState = "idle"
	LinkCreatingToken        LinkState = "creatingToken"
	LinkAwaitingUserLink     LinkState = "awaitingUserLink"
	LinkExchanging           LinkState = "exchanging"
	LinkFetchingAccounts     LinkState = "fetchingAccounts"
	LinkFetchingTransactions LinkState = "fetchingTransactions"
	LinkReady                LinkState = "ready"
	LinkFailed               LinkState = "failed"
)

// Snapshot is the observable state of a SyncManager, emitted to subscribers
// after every mutation, in mutation order.
type Snapshot struct {
	Accounts         []models.Account     `json:"accounts"`
	Transactions     []models.Transaction `json:"transactions"`
	BudgetCategories map[string]float64   `json:"budgetCategories"`
	IsLoading        bool                 `json:"isLoading"`
	LinkState        LinkState            `json:"linkState"`
	LastError        string               `json:"lastError,omitempty"`
	LastRefresh      time.Time            `json:"lastRefresh"`
}

// LinkSuccess is the success outcome of the bank-link handler: the user
// completed linking and a one-time public token is available.
type LinkSuccess struct {
	PublicToken     string
	InstitutionName string
}

// LinkExit is the exit outcome of the bank-link handler. Err is nil when the
// user simply cancelled.
type LinkExit struct {
	Err error
}

type PlaidEnvironment string

const (
	PlaidSandbox     PlaidEnvironment = "sandbox"
	PlaidDevelopment PlaidEnvironment = "development"
	PlaidProduction  PlaidEnvironment = "production"
)
