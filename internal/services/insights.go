package services

import (
	"sort"
	"time"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/internal/models"
)

const (
	txDateLayout   = "2006-01-02"
	trailingMonths = 6
)

// computeBudgetCategories sums expense amounts by category. Only positive
// (money-out) amounts contribute; income never appears in a budget total.
func computeBudgetCategories(txs []models.Transaction) map[string]float64 {
	budgets := make(map[string]float64)
	for _, t := range txs {
		if t.Amount <= 0 {
			continue
		}
		category := t.Category
		if category == "" {
			category = "Other"
		}
		budgets[category] += t.Amount
	}
	return budgets
}

// Fixed presentation palette; assignment is by sorted-name index so a given
// category set always gets the same icons and colors.
var budgetPalette = []struct {
	Icon  string
	Color string
}{
	{"cart", "#4E79A7"},
	{"film", "#F28E2B"},
	{"car", "#E15759"},
	{"fork.knife", "#76B7B2"},
	{"bag", "#59A14F"},
	{"cross.case", "#EDC948"},
	{"house", "#B07AA1"},
	{"airplane", "#FF9DA7"},
}

// BudgetCategoryList returns the derived category totals zipped with their
// deterministic presentation assignment, ordered by name.
func (m *SyncManager) BudgetCategoryList() []dto.BudgetCategoryItem {
	m.mu.Lock()
	totals := make(map[string]float64, len(m.budgetCategories))
	for k, v := range m.budgetCategories {
		totals[k] = v
	}
	m.mu.Unlock()

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]dto.BudgetCategoryItem, 0, len(names))
	for i, name := range names {
		p := budgetPalette[i%len(budgetPalette)]
		items = append(items, dto.BudgetCategoryItem{
			Name:  name,
			Total: totals[name],
			Icon:  p.Icon,
			Color: p.Color,
		})
	}
	return items
}

// MonthlyFinancialData returns income and expense totals for each of the
// trailing six calendar months, oldest first, zero-filled for months with
// no transactions.
func (m *SyncManager) MonthlyFinancialData() []dto.MonthlyFinancialData {
	m.mu.Lock()
	txs := append([]models.Transaction(nil), m.transactions...)
	m.mu.Unlock()

	return monthlySeries(txs, m.clockNow())
}

func monthlySeries(txs []models.Transaction, now time.Time) []dto.MonthlyFinancialData {
	type bucket struct {
		income, expenses float64
	}
	buckets := make(map[string]*bucket, trailingMonths)

	months := make([]string, 0, trailingMonths)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(trailingMonths - 1), 0)
	for i := 0; i < trailingMonths; i++ {
		key := first.AddDate(0, i, 0).Format("2006-01")
		months = append(months, key)
		buckets[key] = &bucket{}
	}

	for _, t := range txs {
		day, err := time.Parse(txDateLayout, t.Date)
		if err != nil {
			continue
		}
		b, ok := buckets[day.Format("2006-01")]
		if !ok {
			continue
		}
		if t.Amount > 0 {
			b.expenses += t.Amount
		} else if t.Amount < 0 {
			b.income += -t.Amount
		}
	}

	out := make([]dto.MonthlyFinancialData, 0, trailingMonths)
	for _, key := range months {
		b := buckets[key]
		out = append(out, dto.MonthlyFinancialData{
			Month:    key,
			Income:   b.income,
			Expenses: b.expenses,
		})
	}
	return out
}

// TransactionsForAccount filters the current transaction list to one
// account.
func (m *SyncManager) TransactionsForAccount(accountID string) []models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Transaction
	for _, t := range m.transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out
}
