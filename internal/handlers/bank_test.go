package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/internal/errs"
	"github.com/moneymap-app/moneymap-backend/internal/middleware"
	"github.com/moneymap-app/moneymap-backend/internal/models"
	"github.com/moneymap-app/moneymap-backend/internal/response"
)

// fakeSession implements SyncSession for handler tests.
type fakeSession struct {
	snap       dto.Snapshot
	linkErr    error
	exchange   struct {
		publicToken string
		err         error
	}
	refreshErr error
	updates    []struct {
		id     string
		update dto.TransactionUpdate
	}
	updateErr        error
	disconnectedID   string
	disconnectAllHit bool
}

func (f *fakeSession) PrepareLink(ctx context.Context) error { return f.linkErr }
func (f *fakeSession) ExchangePublicToken(ctx context.Context, publicToken string) error {
	f.exchange.publicToken = publicToken
	return f.exchange.err
}
func (f *fakeSession) FetchAccounts(ctx context.Context) error     { return nil }
func (f *fakeSession) FetchTransactions(ctx context.Context) error { return nil }
func (f *fakeSession) RefreshAll(ctx context.Context) error        { return f.refreshErr }
func (f *fakeSession) DisconnectAccount(ctx context.Context, accountID string) error {
	f.disconnectedID = accountID
	return nil
}
func (f *fakeSession) DisconnectAll(ctx context.Context) error {
	f.disconnectAllHit = true
	return nil
}
func (f *fakeSession) UpdateTransaction(ctx context.Context, transactionID string, update dto.TransactionUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, struct {
		id     string
		update dto.TransactionUpdate
	}{transactionID, update})
	return nil
}
func (f *fakeSession) Snapshot() dto.Snapshot { return f.snap }
func (f *fakeSession) BudgetCategoryList() []dto.BudgetCategoryItem {
	return []dto.BudgetCategoryItem{{Name: "Groceries", Total: 75.50, Icon: "cart", Color: "#4E79A7"}}
}
func (f *fakeSession) MonthlyFinancialData() []dto.MonthlyFinancialData {
	return []dto.MonthlyFinancialData{{Month: "2025-06", Income: 2500, Expenses: 130.74}}
}
func (f *fakeSession) TransactionsForAccount(accountID string) []models.Transaction {
	var out []models.Transaction
	for _, t := range f.snap.Transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out
}
func (f *fakeSession) HasLinkedAccounts() bool { return len(f.snap.Accounts) > 0 }

func testDeps(session *fakeSession) *Deps {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Deps{
		Log:             log,
		ResponseHandler: response.New(log),
		Sessions: func(ctx context.Context, uid string) SyncSession {
			return session
		},
	}
}

func ctxWithUID(ctx context.Context) context.Context {
	return context.WithValue(ctx, middleware.UIDKey, "uid-123")
}

func doRequest(h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader).WithContext(ctxWithUID(context.Background()))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestLinkHandler(t *testing.T) {
	session := &fakeSession{snap: dto.Snapshot{
		Accounts:  []models.Account{{AccountID: "acc1", Name: "Checking"}},
		LinkState: dto.LinkReady,
	}}
	h := NewBankHandlers(testDeps(session))

	rr := doRequest(h.BankRoutes(), http.MethodPost, "/bank/link", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var envelope struct {
		Success bool         `json:"success"`
		Data    dto.Snapshot `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if !envelope.Success || len(envelope.Data.Accounts) != 1 {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestLinkHandlerConfigurationError(t *testing.T) {
	session := &fakeSession{linkErr: errs.NewConfigurationError("plaid credentials are not configured")}
	h := NewBankHandlers(testDeps(session))

	rr := doRequest(h.BankRoutes(), http.MethodPost, "/bank/link", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestExchangeHandler(t *testing.T) {
	session := &fakeSession{}
	h := NewBankHandlers(testDeps(session))

	rr := doRequest(h.BankRoutes(), http.MethodPost, "/bank/exchange", map[string]string{"publicToken": "public-xyz"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if session.exchange.publicToken != "public-xyz" {
		t.Fatalf("public token not forwarded: %q", session.exchange.publicToken)
	}
}

func TestExchangeHandlerMissingToken(t *testing.T) {
	h := NewBankHandlers(testDeps(&fakeSession{}))
	rr := doRequest(h.BankRoutes(), http.MethodPost, "/bank/exchange", map[string]string{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestExchangeHandlerUpstreamFailure(t *testing.T) {
	session := &fakeSession{}
	session.exchange.err = errs.NewExchangeTokenFailedError(io.ErrUnexpectedEOF)
	h := NewBankHandlers(testDeps(session))

	rr := doRequest(h.BankRoutes(), http.MethodPost, "/bank/exchange", map[string]string{"publicToken": "public-xyz"})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
}

func TestListTransactionsFiltersByAccount(t *testing.T) {
	session := &fakeSession{snap: dto.Snapshot{Transactions: []models.Transaction{
		{TransactionID: "t1", AccountID: "acc1"},
		{TransactionID: "t2", AccountID: "acc2"},
	}}}
	h := NewBankHandlers(testDeps(session))

	rr := doRequest(h.BankRoutes(), http.MethodGet, "/transactions?accountId=acc2", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var envelope struct {
		Data []models.Transaction `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].TransactionID != "t2" {
		t.Fatalf("unexpected transactions: %+v", envelope.Data)
	}
}

func TestUpdateTransactionHandler(t *testing.T) {
	session := &fakeSession{}
	h := NewBankHandlers(testDeps(session))

	rr := doRequest(h.BankRoutes(), http.MethodPatch, "/transactions/t1", map[string]any{"category": "Dining"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if len(session.updates) != 1 || session.updates[0].id != "t1" || *session.updates[0].update.Category != "Dining" {
		t.Fatalf("update not forwarded: %+v", session.updates)
	}
}

func TestUpdateTransactionNotFound(t *testing.T) {
	session := &fakeSession{updateErr: errs.NewNotFoundError("transaction not found")}
	h := NewBankHandlers(testDeps(session))

	rr := doRequest(h.BankRoutes(), http.MethodPatch, "/transactions/nope", map[string]any{"category": "Dining"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestDisconnectAccountHandler(t *testing.T) {
	session := &fakeSession{}
	h := NewBankHandlers(testDeps(session))

	rr := doRequest(h.BankRoutes(), http.MethodDelete, "/accounts/acc2", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if session.disconnectedID != "acc2" {
		t.Fatalf("account id not forwarded: %q", session.disconnectedID)
	}
}

func TestDisconnectAllHandler(t *testing.T) {
	session := &fakeSession{}
	h := NewBankHandlers(testDeps(session))

	rr := doRequest(h.BankRoutes(), http.MethodDelete, "/accounts", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !session.disconnectAllHit {
		t.Fatal("disconnect all not forwarded")
	}
}

func TestRefreshHandlerNoToken(t *testing.T) {
	session := &fakeSession{refreshErr: errs.NewInvalidAccessTokenError()}
	h := NewBankHandlers(testDeps(session))

	rr := doRequest(h.BankRoutes(), http.MethodPost, "/transactions/refresh", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}
