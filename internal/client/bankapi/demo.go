package bankapi

import (
	"fmt"
	"time"

	"github.com/moneymap-app/moneymap-backend/internal/models"
)

// Demo transaction pool. Amounts are positive (expenses) except payroll.
var demoMerchants = []struct {
	name     string
	category string
	min, max float64
}{
	{"Whole Foods Market", "Groceries", 18, 140},
	{"Trader Joe's", "Groceries", 12, 90},
	{"Starbucks", "Coffee Shop", 4, 14},
	{"Shell", "Gas Stations", 25, 70},
	{"Netflix", "Entertainment", 15.49, 15.49},
	{"Spotify", "Entertainment", 11.99, 11.99},
	{"Uber", "Transportation", 8, 45},
	{"Chipotle", "Restaurants", 9, 28},
	{"Amazon", "Shopping", 10, 120},
	{"CVS Pharmacy", "Pharmacy", 6, 55},
	{"Planet Fitness", "Gyms and Fitness Centers", 24.99, 24.99},
	{"Delta Air Lines", "Airlines and Aviation Services", 180, 420},
}

const demoTransactionCount = 20

// demoTransactions generates a plausible ~30-day transaction history ending
// at endDate, including two payroll deposits.
func (c *Client) demoTransactions(endDate time.Time) []models.Transaction {
	now := c.clockNow()
	txs := make([]models.Transaction, 0, demoTransactionCount+2)

	for i := 0; i < demoTransactionCount; i++ {
		m := demoMerchants[c.rng.Intn(len(demoMerchants))]
		amount := m.min
		if m.max > m.min {
			amount = m.min + c.rng.Float64()*(m.max-m.min)
		}
		daysAgo := c.rng.Intn(30)
		txs = append(txs, models.Transaction{
			TransactionID: fmt.Sprintf("demo-%d", i+1),
			AccountID:     "demo-account",
			Name:          m.name,
			Amount:        roundCents(amount),
			Date:          endDate.AddDate(0, 0, -daysAgo).Format(dateLayout),
			Category:      m.category,
			Merchant:      m.name,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	for i, daysAgo := range []int{2, 16} {
		txs = append(txs, models.Transaction{
			TransactionID: fmt.Sprintf("demo-payroll-%d", i+1),
			AccountID:     "demo-account",
			Name:          "ACME Payroll",
			Amount:        -2500,
			Date:          endDate.AddDate(0, 0, -daysAgo).Format(dateLayout),
			Category:      "Payroll",
			Merchant:      "ACME Inc",
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return txs
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
