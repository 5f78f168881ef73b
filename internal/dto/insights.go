package dto

import (
	"time"

	"github.com/moneymap-app/moneymap-backend/internal/models"
)

// MonthlyFinancialData is one month of the trailing income/expense series.
type MonthlyFinancialData struct {
	Month    string  `json:"month"` // YYYY-MM
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

// BudgetCategoryItem pairs a derived category total with its deterministic
// presentation assignment.
type BudgetCategoryItem struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
	Icon  string  `json:"icon"`
	Color string  `json:"color"`
}

// FinancialContext is the read-only snapshot handed to the assistant.
type FinancialContext struct {
	Accounts           []models.Account     `json:"accounts"`
	TotalBalance       float64              `json:"totalBalance"`
	MonthCategorySpend map[string]float64   `json:"monthCategorySpend"`
	RecentTransactions []models.Transaction `json:"recentTransactions"`
	MonthIncome        float64              `json:"monthIncome"`
	MonthExpenses      float64              `json:"monthExpenses"`
	TopCategory        string               `json:"topCategory"`
	TopCategoryAmount  float64              `json:"topCategoryAmount"`
	GeneratedAt        time.Time            `json:"generatedAt"`
}

type TransactionUpdate struct {
	Category *string   `json:"category,omitempty"`
	Notes    *string   `json:"notes,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Hidden   *bool     `json:"hidden,omitempty"`
}
