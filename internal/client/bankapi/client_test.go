package bankapi

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/internal/errs"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New("client-id", "secret-1", dto.PlaidSandbox, false)
	c.baseURL = srv.URL
	c.clockNow = func() time.Time { return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC) }
	c.rng = rand.New(rand.NewSource(1))
	return c, srv
}

func TestCreateLinkTokenMissingCredentials(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls++ })
	c.clientID = ""

	_, err := c.CreateLinkToken(context.Background(), "uid-1")
	if _, ok := err.(*errs.ConfigurationError); !ok {
		t.Fatalf("expected ConfigurationError, got %T (%v)", err, err)
	}
	if calls != 0 {
		t.Fatalf("expected no HTTP call, got %d", calls)
	}
}

func TestPlaceholderCredentialsRejected(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	c.clientID = "YOUR_CLIENT_ID"

	_, err := c.CreateLinkToken(context.Background(), "uid-1")
	if _, ok := err.(*errs.ConfigurationError); !ok {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
}

func TestCreateLinkToken(t *testing.T) {
	var gotBody linkTokenCreateRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/link/token/create" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"link_token": "link-sandbox-abc"})
	})

	token, err := c.CreateLinkToken(context.Background(), "uid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "link-sandbox-abc" {
		t.Fatalf("unexpected token %q", token)
	}
	if gotBody.User.ClientUserID != "uid-1" || gotBody.Language != "en" || len(gotBody.Products) != 1 {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestCreateLinkTokenMissingField(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	})

	_, err := c.CreateLinkToken(context.Background(), "uid-1")
	if _, ok := err.(*errs.ParseError); !ok {
		t.Fatalf("expected ParseError, got %T (%v)", err, err)
	}
}

func TestCreateLinkTokenAPIError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error_message": "invalid client id"})
	})

	_, err := c.CreateLinkToken(context.Background(), "uid-1")
	apiErr, ok := err.(*errs.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T (%v)", err, err)
	}
	if apiErr.Message != "invalid client id" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestCreateLinkTokenHTTPError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.CreateLinkToken(context.Background(), "uid-1")
	httpErr, ok := err.(*errs.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Status != http.StatusBadGateway {
		t.Fatalf("unexpected status %d", httpErr.Status)
	}
}

func TestExchangePublicTokenEmptyInput(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	_, _, err := c.ExchangePublicToken(context.Background(), "")
	if _, ok := err.(*errs.InvalidInputError); !ok {
		t.Fatalf("expected InvalidInputError, got %T (%v)", err, err)
	}
	if calls != 0 {
		t.Fatalf("expected no HTTP call, got %d", calls)
	}
}

func TestExchangePublicToken(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/item/public_token/exchange" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "access-1", "item_id": "item-1"})
	})

	access, itemID, err := c.ExchangePublicToken(context.Background(), "public-xyz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if access != "access-1" || itemID != "item-1" {
		t.Fatalf("unexpected result %q %q", access, itemID)
	}
}

func TestGetAccountsDropsMalformedRecords(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accounts": []map[string]any{
				{"account_id": "acc1", "name": "Checking", "type": "depository", "balances": map[string]any{"current": 1250.55}},
				{"account_id": "acc2", "name": "", "type": "credit", "balances": map[string]any{"current": -430.10}},
				{"account_id": "acc3", "name": "Savings", "type": "depository", "balances": map[string]any{}},
			},
			"item": map[string]any{"institution_id": "ins_109508"},
		})
	})

	accounts, err := c.GetAccounts(context.Background(), "access-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	if accounts[0].AccountID != "acc1" || accounts[0].Institution != "First Platypus Bank" {
		t.Fatalf("unexpected account %+v", accounts[0])
	}
	if accounts[0].Balance != 1250.55 {
		t.Fatalf("unexpected balance %v", accounts[0].Balance)
	}
}

func TestGetAccountsUnknownInstitution(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accounts": []map[string]any{
				{"account_id": "acc1", "name": "Checking", "type": "depository", "balances": map[string]any{"current": 10.0}},
			},
			"item": map[string]any{"institution_id": "ins_999999"},
		})
	})

	accounts, err := c.GetAccounts(context.Background(), "access-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accounts[0].Institution != "Connected Bank" {
		t.Fatalf("unexpected institution %q", accounts[0].Institution)
	}
}

func TestGetTransactionsMapsFields(t *testing.T) {
	var gotBody transactionsGetRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"transactions": []map[string]any{
				{
					"transaction_id": "t1", "name": "SQ *BLUE BOTTLE", "amount": 6.25,
					"date": "2025-06-10", "category": []string{"Food and Drink", "Coffee Shop"},
					"merchant_name": "Blue Bottle Coffee", "account_id": "acc1", "pending": true,
				},
				{
					"transaction_id": "t2", "name": "Venmo Cashout", "amount": -40.0,
					"date": "2025-06-09", "account_id": "acc1",
				},
				{
					"transaction_id": "", "name": "broken", "amount": 1.0,
					"date": "2025-06-08", "account_id": "acc1",
				},
			},
		})
	})

	txs, err := c.GetTransactions(context.Background(), "access-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Category != "Coffee Shop" || txs[0].Merchant != "Blue Bottle Coffee" || !txs[0].Pending {
		t.Fatalf("unexpected mapping %+v", txs[0])
	}
	if txs[1].Category != "Other" || txs[1].Merchant != "Venmo Cashout" {
		t.Fatalf("expected category/merchant fallbacks, got %+v", txs[1])
	}
	if gotBody.EndDate != "2025-06-15" || gotBody.StartDate != "2025-05-16" {
		t.Fatalf("unexpected default date range %q..%q", gotBody.StartDate, gotBody.EndDate)
	}
}

func TestGetTransactionsEmptyWithoutDemoMode(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"transactions": []any{}})
	})

	txs, err := c.GetTransactions(context.Background(), "access-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected empty result, got %d", len(txs))
	}
}

func TestGetTransactionsEmptyDemoFallback(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"transactions": []any{}})
	})
	c.demoMode = true

	txs, err := c.GetTransactions(context.Background(), "access-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != demoTransactionCount+2 {
		t.Fatalf("expected %d demo transactions, got %d", demoTransactionCount+2, len(txs))
	}

	end := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -30)
	income := 0
	for _, tx := range txs {
		day, err := time.Parse(dateLayout, tx.Date)
		if err != nil {
			t.Fatalf("bad date %q: %v", tx.Date, err)
		}
		if day.Before(start) || day.After(end) {
			t.Fatalf("demo transaction outside window: %s", tx.Date)
		}
		if tx.Amount < 0 {
			income++
		}
	}
	if income != 2 {
		t.Fatalf("expected 2 payroll deposits, got %d", income)
	}
}
