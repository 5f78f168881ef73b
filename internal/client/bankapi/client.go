package bankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/internal/errs"
	"github.com/moneymap-app/moneymap-backend/internal/models"
	"github.com/moneymap-app/moneymap-backend/pkg/logger"
)

const (
	clientName    = "MoneyMap"
	dateLayout    = "2006-01-02"
	defaultWindow = 30 * 24 * time.Hour
)

// Client is a stateless wrapper around the Plaid REST endpoints the sync
// pipeline needs. Each call is one request/response round trip with no
// retry; callers decide whether to retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
	demoMode   bool
	clockNow   func() time.Time
	rng        *rand.Rand
}

func New(clientID, secret string, env dto.PlaidEnvironment, demoMode bool) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL(env),
		clientID:   clientID,
		secret:     secret,
		demoMode:   demoMode,
		clockNow:   time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func baseURL(env dto.PlaidEnvironment) string {
	switch env {
	case dto.PlaidSandbox:
		return "https://sandbox.plaid.com"
	case dto.PlaidDevelopment:
		return "https://development.plaid.com"
	default: // dto.PlaidProduction
		return "https://production.plaid.com"
	}
}

// --- request/response wire shapes ---

type linkTokenCreateRequest struct {
	ClientID     string        `json:"client_id"`
	Secret       string        `json:"secret"`
	ClientName   string        `json:"client_name"`
	Products     []string      `json:"products"`
	CountryCodes []string      `json:"country_codes"`
	Language     string        `json:"language"`
	User         linkTokenUser `json:"user"`
}

type linkTokenUser struct {
	ClientUserID string `json:"client_user_id"`
}

type linkTokenCreateResponse struct {
	LinkToken string `json:"link_token"`
}

type publicTokenExchangeRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	PublicToken string `json:"public_token"`
}

type publicTokenExchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

type accountsGetRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
}

type accountsGetResponse struct {
	Accounts []rawAccount `json:"accounts"`
	Item     rawItem      `json:"item"`
}

type rawAccount struct {
	AccountID string      `json:"account_id"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Balances  rawBalances `json:"balances"`
}

type rawBalances struct {
	Current *float64 `json:"current"`
}

type rawItem struct {
	InstitutionID string `json:"institution_id"`
}

type transactionsGetRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type transactionsGetResponse struct {
	Transactions []rawTransaction `json:"transactions"`
}

type rawTransaction struct {
	TransactionID string   `json:"transaction_id"`
	Name          string   `json:"name"`
	Amount        *float64 `json:"amount"`
	Date          string   `json:"date"`
	Category      []string `json:"category"`
	MerchantName  string   `json:"merchant_name"`
	AccountID     string   `json:"account_id"`
	Pending       bool     `json:"pending"`
}

// --- operations ---

func (c *Client) CreateLinkToken(ctx context.Context, uid string) (string, error) {
	if err := c.checkCredentials(); err != nil {
		return "", err
	}

	req := linkTokenCreateRequest{
		ClientID:     c.clientID,
		Secret:       c.secret,
		ClientName:   clientName,
		Products:     []string{"transactions"},
		CountryCodes: []string{"US"},
		Language:     "en",
		User:         linkTokenUser{ClientUserID: uid},
	}

	var resp linkTokenCreateResponse
	if err := c.post(ctx, "/link/token/create", req, &resp); err != nil {
		return "", err
	}
	if resp.LinkToken == "" {
		return "", errs.NewParseError("link_token missing from response")
	}
	return resp.LinkToken, nil
}

func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID string, err error) {
	if publicToken == "" {
		return "", "", errs.NewInvalidInputError("public token is empty")
	}
	if err := c.checkCredentials(); err != nil {
		return "", "", err
	}

	req := publicTokenExchangeRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		PublicToken: publicToken,
	}

	var resp publicTokenExchangeResponse
	if err := c.post(ctx, "/item/public_token/exchange", req, &resp); err != nil {
		return "", "", err
	}
	if resp.AccessToken == "" {
		return "", "", errs.NewParseError("access_token missing from response")
	}
	return resp.AccessToken, resp.ItemID, nil
}

// GetAccounts drops any record missing a required field rather than failing
// the whole call.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]models.Account, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	req := accountsGetRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
	}

	var resp accountsGetResponse
	if err := c.post(ctx, "/accounts/get", req, &resp); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	now := c.clockNow()
	institution := institutionName(resp.Item.InstitutionID)

	accounts := make([]models.Account, 0, len(resp.Accounts))
	for _, raw := range resp.Accounts {
		if raw.AccountID == "" || raw.Name == "" || raw.Type == "" || raw.Balances.Current == nil || resp.Item.InstitutionID == "" {
			log.Warn("dropping malformed account record", "account_id", raw.AccountID)
			continue
		}
		accounts = append(accounts, models.Account{
			AccountID:   raw.AccountID,
			Name:        raw.Name,
			Type:        raw.Type,
			Balance:     *raw.Balances.Current,
			Institution: institution,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return accounts, nil
}

// GetTransactions fetches transactions in [from, to]. A zero from/to
// defaults to the trailing 30 days. In demo mode an empty or unparseable
// result is replaced with generated sandbox transactions so a freshly
// linked sandbox item still produces data.
func (c *Client) GetTransactions(ctx context.Context, accessToken string, from, to time.Time) ([]models.Transaction, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	now := c.clockNow()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.Add(-defaultWindow)
	}

	req := transactionsGetRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		StartDate:   from.Format(dateLayout),
		EndDate:     to.Format(dateLayout),
	}

	var resp transactionsGetResponse
	if err := c.post(ctx, "/transactions/get", req, &resp); err != nil {
		if c.demoMode {
			if _, ok := err.(*errs.ParseError); ok {
				logger.FromContext(ctx).Warn("transactions unparseable, substituting demo data")
				return c.demoTransactions(to), nil
			}
		}
		return nil, err
	}

	log := logger.FromContext(ctx)
	now = c.clockNow()

	txs := make([]models.Transaction, 0, len(resp.Transactions))
	for _, raw := range resp.Transactions {
		if raw.TransactionID == "" || raw.Name == "" || raw.Amount == nil || raw.Date == "" || raw.AccountID == "" {
			log.Warn("dropping malformed transaction record", "transaction_id", raw.TransactionID)
			continue
		}
		txs = append(txs, models.Transaction{
			TransactionID: raw.TransactionID,
			AccountID:     raw.AccountID,
			Name:          raw.Name,
			Amount:        *raw.Amount,
			Date:          raw.Date,
			Category:      categoryLabel(raw.Category),
			Merchant:      merchantLabel(raw),
			Pending:       raw.Pending,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	if len(txs) == 0 && c.demoMode {
		log.Info("no sandbox transactions returned, substituting demo data")
		return c.demoTransactions(to), nil
	}
	return txs, nil
}

// categoryLabel picks the most specific (last) element of the provider's
// category path.
func categoryLabel(path []string) string {
	if len(path) == 0 {
		return "Other"
	}
	last := path[len(path)-1]
	if last == "" {
		return "Other"
	}
	return last
}

func merchantLabel(raw rawTransaction) string {
	if raw.MerchantName != "" {
		return raw.MerchantName
	}
	return raw.Name
}

// --- plumbing ---

func (c *Client) checkCredentials() error {
	if c.clientID == "" || c.secret == "" ||
		c.clientID == "YOUR_CLIENT_ID" || c.secret == "YOUR_SECRET" {
		return errs.NewConfigurationError("plaid credentials are not configured")
	}
	return nil
}

type apiErrorBody struct {
	ErrorMessage string `json:"error_message"`
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errs.NewParseError("failed to encode request: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errs.NewNetworkError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewNetworkError("request to bank API failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewNetworkError("failed to read response", err)
	}

	var apiErr apiErrorBody
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.ErrorMessage != "" {
		return errs.NewAPIError(apiErr.ErrorMessage)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errs.NewHTTPError(resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.NewParseError("failed to decode response: " + err.Error())
	}
	return nil
}
