package services

import (
	"sort"
	"time"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
)

const recentTransactionCount = 30

// contextService builds the read-only financial snapshot the assistant
// consumes. It holds no state and performs no network calls; everything is
// derived from the manager snapshot it is handed.
type contextService struct {
	clockNow func() time.Time
}

func NewContextService() *contextService {
	return &contextService{clockNow: time.Now}
}

func (s *contextService) BuildContext(snap dto.Snapshot) dto.FinancialContext {
	now := s.clockNow()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := dto.FinancialContext{
		Accounts:           snap.Accounts,
		MonthCategorySpend: map[string]float64{},
		GeneratedAt:        now,
	}

	for _, a := range snap.Accounts {
		out.TotalBalance += a.Balance
	}

	for _, t := range snap.Transactions {
		day, err := time.Parse(txDateLayout, t.Date)
		if err != nil {
			continue
		}
		if day.Before(monthStart) || day.After(now) {
			continue
		}
		if t.Amount > 0 {
			category := t.Category
			if category == "" {
				category = "Other"
			}
			out.MonthExpenses += t.Amount
			out.MonthCategorySpend[category] += t.Amount
		} else if t.Amount < 0 {
			out.MonthIncome += -t.Amount
		}
	}

	out.TopCategory = "None"
	for name, total := range out.MonthCategorySpend {
		if total > out.TopCategoryAmount || (total == out.TopCategoryAmount && out.TopCategory != "None" && name < out.TopCategory) {
			out.TopCategory = name
			out.TopCategoryAmount = total
		}
	}

	txs := snap.Transactions
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date > txs[j].Date })
	if len(txs) > recentTransactionCount {
		txs = txs[:recentTransactionCount]
	}
	out.RecentTransactions = txs

	return out
}
