package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
	"github.com/moneymap-app/moneymap-backend/internal/errs"
	"github.com/moneymap-app/moneymap-backend/internal/models"
	"github.com/moneymap-app/moneymap-backend/pkg/logger"
)

// --- Dependencies (minimal interfaces scoped to this service) ---

// bankAPIClient is the bank-aggregation API surface the manager drives.
type bankAPIClient interface {
	CreateLinkToken(ctx context.Context, uid string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID string, err error)
	GetAccounts(ctx context.Context, accessToken string) ([]models.Account, error)
	GetTransactions(ctx context.Context, accessToken string, from, to time.Time) ([]models.Transaction, error)
}

// linkHandler is the bank-link UI stand-in: it resolves a link token into
// either a success event or an exit event.
type linkHandler interface {
	Open(ctx context.Context, linkToken string, onSuccess func(dto.LinkSuccess), onExit func(dto.LinkExit))
}

// tokenStore persists the single access token per user.
type tokenStore interface {
	GetToken(ctx context.Context, uid string) (string, error)
	SetToken(ctx context.Context, uid, token string) error
	DeleteToken(ctx context.Context, uid string) error
}

// accountCache is the remote mirror of the account list.
type accountCache interface {
	SyncAccounts(ctx context.Context, uid string, accounts []models.Account) error
	LoadAccounts(ctx context.Context, uid string) ([]models.Account, error)
	DeleteAccount(ctx context.Context, uid, accountID string) error
	DeleteAllAccounts(ctx context.Context, uid string) error
}

// transactionCache is the remote mirror of the transaction list.
type transactionCache interface {
	SyncTransactions(ctx context.Context, uid string, txs []models.Transaction) error
	LoadTransactions(ctx context.Context, uid string, limit int) ([]models.Transaction, error)
	UpdateTransactionFields(ctx context.Context, uid, transactionID string, update dto.TransactionUpdate) error
	DeleteTransactionsByAccount(ctx context.Context, uid, accountID string) error
	DeleteAllTransactions(ctx context.Context, uid string) error
}

const cacheLoadLimit = 100

// SyncManager is the sole authoritative holder of one user's accounts,
// transactions and derived budget categories. It drives the
// link-token → exchange → fetch pipeline, keeps the remote cache written
// through after every successful live fetch, and hydrates from the cache
// when the live API fails. All observable state lives behind one mutex;
// subscribers receive a snapshot after every mutation, in mutation order.
type SyncManager struct {
	uid      string
	api      bankAPIClient
	link     linkHandler
	tokens   tokenStore
	accCache accountCache
	txCache  transactionCache

	clockNow        func() time.Time
	refreshInterval time.Duration
	flight          singleflight.Group

	mu               sync.Mutex
	accounts         []models.Account
	transactions     []models.Transaction
	budgetCategories map[string]float64
	isLoading        bool
	lastErr          error
	lastRefresh      time.Time
	linkState        dto.LinkState
	accessToken      string
	// tokenGen is bumped whenever the access token is set or cleared;
	// fetch results carrying a stale generation are discarded.
	tokenGen    uint64
	subscribers map[int]chan dto.Snapshot
	nextSubID   int
	stopRefresh chan struct{}
	closed      bool
}

func NewSyncManager(uid string, api bankAPIClient, link linkHandler, tokens tokenStore, accounts accountCache, txs transactionCache, refreshInterval time.Duration) *SyncManager {
	if refreshInterval <= 0 {
		refreshInterval = time.Hour
	}
	return &SyncManager{
		uid:              uid,
		api:              api,
		link:             link,
		tokens:           tokens,
		accCache:         accounts,
		txCache:          txs,
		clockNow:         time.Now,
		refreshInterval:  refreshInterval,
		budgetCategories: map[string]float64{},
		linkState:        dto.LinkIdle,
		subscribers:      map[int]chan dto.Snapshot{},
		stopRefresh:      make(chan struct{}),
	}
}

// Start loads the stored access token and, when one exists, runs an initial
// fetch. A user with no stored token starts empty, not in error. Start also
// launches the periodic auto-refresh.
func (m *SyncManager) Start(ctx context.Context) error {
	log := logger.FromContext(ctx)

	token, err := m.tokens.GetToken(ctx, m.uid)
	if err != nil {
		m.recordError(err)
		return err
	}

	if token != "" {
		m.mu.Lock()
		m.accessToken = token
		m.tokenGen++
		m.mu.Unlock()

		if err := m.FetchAccounts(ctx); err != nil {
			log.Warn("initial account fetch failed", "error", err)
		}
		if err := m.FetchTransactions(ctx); err != nil {
			log.Warn("initial transaction fetch failed", "error", err)
		}
	}

	go m.refreshLoop()
	return nil
}

// Close stops the auto-refresh and closes all subscriber channels.
func (m *SyncManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.stopRefresh)
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
}

// Subscribe registers an observer. Snapshots are delivered in mutation
// order; a subscriber that falls behind misses intermediate snapshots
// rather than blocking the manager. The returned func unsubscribes.
func (m *SyncManager) Subscribe() (<-chan dto.Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	ch := make(chan dto.Snapshot, 32)
	m.subscribers[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subscribers[id]; ok {
			close(sub)
			delete(m.subscribers, id)
		}
	}
	return ch, cancel
}

// --- link pipeline ---

// PrepareLink runs the full link pipeline: create a link token, hand it to
// the link handler, and on success exchange the public token and fetch
// fresh data. One failure surfaces to the caller; there is no retry.
func (m *SyncManager) PrepareLink(ctx context.Context) error {
	log := logger.FromContext(ctx)

	m.setLinkState(dto.LinkCreatingToken)
	linkToken, err := m.api.CreateLinkToken(ctx, m.uid)
	if err != nil {
		m.recordError(err)
		m.setLinkState(dto.LinkFailed)
		return err
	}

	m.setLinkState(dto.LinkAwaitingUserLink)

	var flowErr error
	m.link.Open(ctx, linkToken,
		func(success dto.LinkSuccess) {
			m.addPlaceholderAccount(success.InstitutionName)
			flowErr = m.ExchangePublicToken(ctx, success.PublicToken)
		},
		func(exit dto.LinkExit) {
			if exit.Err != nil {
				log.Warn("link exited with error", "error", exit.Err)
				m.recordError(exit.Err)
				m.setLinkState(dto.LinkFailed)
				flowErr = exit.Err
				return
			}
			// user cancelled
			m.setLinkState(dto.LinkIdle)
		},
	)
	return flowErr
}

// addPlaceholderAccount inserts the optimistic account shown between link
// success and the real account fetch.
func (m *SyncManager) addPlaceholderAccount(institution string) {
	if institution == "" {
		institution = "Connected Bank"
	}
	now := m.clockNow()

	m.mu.Lock()
	m.accounts = append(m.accounts, models.Account{
		AccountID:     uuid.New().String(),
		Name:          institution,
		Type:          "depository",
		Institution:   institution,
		IsPlaceholder: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	m.notifyLocked()
	m.mu.Unlock()
}

// ExchangePublicToken swaps the one-time public token for an access token,
// persists it, then fetches accounts and transactions in that order.
// isLoading is reset whatever the outcome.
func (m *SyncManager) ExchangePublicToken(ctx context.Context, publicToken string) error {
	log := logger.FromContext(ctx)

	m.setLoading(true)
	m.setLinkState(dto.LinkExchanging)
	defer m.setLoading(false)

	accessToken, itemID, err := m.api.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		wrapped := errs.NewExchangeTokenFailedError(err)
		m.recordError(wrapped)
		m.setLinkState(dto.LinkFailed)
		return wrapped
	}

	if err := m.tokens.SetToken(ctx, m.uid, accessToken); err != nil {
		m.recordError(err)
		m.setLinkState(dto.LinkFailed)
		return err
	}

	m.mu.Lock()
	m.accessToken = accessToken
	m.tokenGen++
	m.mu.Unlock()

	log.Info("bank linked", "item_id", itemID)

	if err := m.FetchAccounts(ctx); err != nil {
		log.Warn("account fetch after exchange failed", "error", err)
	}
	if err := m.FetchTransactions(ctx); err != nil {
		log.Warn("transaction fetch after exchange failed", "error", err)
	}
	return nil
}

// --- fetch operations ---

// FetchAccounts replaces placeholder accounts with freshly fetched real
// ones. On live failure the existing list stays visible and the remote
// cache is tried; cache failure is not recovered further.
func (m *SyncManager) FetchAccounts(ctx context.Context) error {
	_, err, _ := m.flight.Do("accounts", func() (any, error) {
		return nil, m.fetchAccounts(ctx)
	})
	return err
}

func (m *SyncManager) fetchAccounts(ctx context.Context) error {
	log := logger.FromContext(ctx)

	token, gen := m.currentToken()
	if token == "" {
		err := errs.NewInvalidAccessTokenError()
		m.recordError(err)
		return err
	}

	m.setLoading(true)
	m.setLinkState(dto.LinkFetchingAccounts)
	defer m.setLoading(false)

	fetched, err := m.api.GetAccounts(ctx, token)
	if err != nil {
		wrapped := errs.NewAccountFetchFailedError(err)
		m.recordError(wrapped)
		if m.hydrateAccountsFromCache(ctx) {
			log.Info("accounts hydrated from cache after live failure")
		}
		return wrapped
	}

	if len(fetched) == 0 {
		// sandbox items can come back empty; prefer the last good snapshot
		if m.hydrateAccountsFromCache(ctx) {
			log.Info("accounts hydrated from cache after empty live result")
			return nil
		}
		// The fetch still succeeded, so optimistic placeholders are
		// resolved even when nothing came back.
		m.mu.Lock()
		if gen == m.tokenGen {
			kept := m.accounts[:0:0]
			for _, a := range m.accounts {
				if !a.IsPlaceholder {
					kept = append(kept, a)
				}
			}
			if len(kept) != len(m.accounts) {
				m.accounts = kept
				m.notifyLocked()
			}
		}
		m.mu.Unlock()
		return nil
	}

	fetchedIDs := make(map[string]bool, len(fetched))
	for _, a := range fetched {
		fetchedIDs[a.AccountID] = true
	}

	m.mu.Lock()
	if gen != m.tokenGen {
		m.mu.Unlock()
		log.Warn("discarding stale account fetch result")
		return nil
	}
	// Purge placeholders and superseded records, then append the real
	// accounts, in one critical section so observers never see an empty
	// mid-update list.
	kept := m.accounts[:0:0]
	for _, a := range m.accounts {
		if a.IsPlaceholder || fetchedIDs[a.AccountID] {
			continue
		}
		kept = append(kept, a)
	}
	m.accounts = append(kept, fetched...)
	m.notifyLocked()
	m.mu.Unlock()

	m.writeThroughAccounts(ctx, fetched)
	return nil
}

// FetchTransactions replaces the entire transaction list on success; there
// is no merge. On live failure the old list stays and the remote cache is
// tried.
func (m *SyncManager) FetchTransactions(ctx context.Context) error {
	_, err, _ := m.flight.Do("transactions", func() (any, error) {
		return nil, m.fetchTransactions(ctx)
	})
	return err
}

func (m *SyncManager) fetchTransactions(ctx context.Context) error {
	log := logger.FromContext(ctx)

	token, gen := m.currentToken()
	if token == "" {
		err := errs.NewInvalidAccessTokenError()
		m.recordError(err)
		return err
	}

	m.setLoading(true)
	m.setLinkState(dto.LinkFetchingTransactions)
	defer m.setLoading(false)

	fetched, err := m.api.GetTransactions(ctx, token, time.Time{}, time.Time{})
	if err != nil {
		wrapped := errs.NewTransactionFetchFailedError(err)
		m.recordError(wrapped)
		if m.hydrateTransactionsFromCache(ctx) {
			log.Info("transactions hydrated from cache after live failure")
		}
		return wrapped
	}

	// Budget categories are recomputed from the incoming list before the
	// state swap so the lock is held only for the assignment.
	budgets := computeBudgetCategories(fetched)

	m.mu.Lock()
	if gen != m.tokenGen {
		m.mu.Unlock()
		log.Warn("discarding stale transaction fetch result")
		return nil
	}
	m.transactions = fetched
	m.budgetCategories = budgets
	m.linkState = dto.LinkReady
	m.notifyLocked()
	m.mu.Unlock()

	m.writeThroughTransactions(ctx, fetched)
	return nil
}

// RefreshAll re-runs the transaction fetch unless one is already in
// flight, in which case it is skipped entirely rather than queued.
func (m *SyncManager) RefreshAll(ctx context.Context) error {
	m.mu.Lock()
	if m.isLoading {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if err := m.FetchTransactions(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.lastRefresh = m.clockNow()
	m.notifyLocked()
	m.mu.Unlock()
	return nil
}

func (m *SyncManager) refreshLoop() {
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = m.RefreshAll(context.Background())
		case <-m.stopRefresh:
			return
		}
	}
}

// --- disconnect ---

// DisconnectAll clears the access token and all local and cached state.
// Irreversible; confirmation is the caller's concern.
func (m *SyncManager) DisconnectAll(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if err := m.tokens.DeleteToken(ctx, m.uid); err != nil {
		m.recordError(err)
		return err
	}

	m.mu.Lock()
	m.accessToken = ""
	m.tokenGen++
	m.accounts = nil
	m.transactions = nil
	m.budgetCategories = map[string]float64{}
	m.lastErr = nil
	m.linkState = dto.LinkIdle
	m.notifyLocked()
	m.mu.Unlock()

	if err := m.accCache.DeleteAllAccounts(ctx, m.uid); err != nil {
		log.Warn("failed to clear cached accounts", "error", err)
	}
	if err := m.txCache.DeleteAllTransactions(ctx, m.uid); err != nil {
		log.Warn("failed to clear cached transactions", "error", err)
	}

	log.Info("all accounts disconnected")
	return nil
}

// DisconnectAccount removes one account and its transactions. When the
// last account goes, the access token goes with it.
func (m *SyncManager) DisconnectAccount(ctx context.Context, accountID string) error {
	log := logger.FromContext(ctx)

	m.mu.Lock()
	kept := m.accounts[:0:0]
	found := false
	for _, a := range m.accounts {
		if a.AccountID == accountID {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		m.mu.Unlock()
		return errs.NewNotFoundError("account not found: " + accountID)
	}
	m.accounts = kept

	keptTxs := m.transactions[:0:0]
	for _, t := range m.transactions {
		if t.AccountID == accountID {
			continue
		}
		keptTxs = append(keptTxs, t)
	}
	m.transactions = keptTxs
	m.budgetCategories = computeBudgetCategories(keptTxs)
	noneLeft := len(kept) == 0
	m.notifyLocked()
	m.mu.Unlock()

	if err := m.accCache.DeleteAccount(ctx, m.uid, accountID); err != nil {
		log.Warn("failed to delete cached account", "error", err)
	}
	if err := m.txCache.DeleteTransactionsByAccount(ctx, m.uid, accountID); err != nil {
		log.Warn("failed to delete cached transactions", "error", err)
	}

	if noneLeft {
		if err := m.tokens.DeleteToken(ctx, m.uid); err != nil {
			log.Warn("failed to delete access token", "error", err)
		} else {
			m.mu.Lock()
			m.accessToken = ""
			m.tokenGen++
			m.linkState = dto.LinkIdle
			m.mu.Unlock()
		}
	}

	log.Info("account disconnected", "account_id", accountID)
	return nil
}

// --- per-transaction edits ---

// UpdateTransactionCategory changes one transaction's category locally,
// recomputes budgets, and merge-writes the change to the remote cache.
func (m *SyncManager) UpdateTransactionCategory(ctx context.Context, transactionID, category string) error {
	if category == "" {
		return errs.NewValidationError("category is required")
	}

	m.mu.Lock()
	found := false
	for i := range m.transactions {
		if m.transactions[i].TransactionID == transactionID {
			m.transactions[i].Category = category
			found = true
			break
		}
	}
	if !found {
		m.mu.Unlock()
		return errs.NewNotFoundError("transaction not found: " + transactionID)
	}
	m.budgetCategories = computeBudgetCategories(m.transactions)
	m.notifyLocked()
	m.mu.Unlock()

	return m.txCache.UpdateTransactionFields(ctx, m.uid, transactionID, dto.TransactionUpdate{Category: &category})
}

// UpdateTransaction merge-applies a partial edit (category, notes, tags,
// hidden). A hidden transaction leaves the local list and its category
// totals.
func (m *SyncManager) UpdateTransaction(ctx context.Context, transactionID string, update dto.TransactionUpdate) error {
	m.mu.Lock()
	idx := -1
	for i := range m.transactions {
		if m.transactions[i].TransactionID == transactionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return errs.NewNotFoundError("transaction not found: " + transactionID)
	}

	if update.Category != nil {
		m.transactions[idx].Category = *update.Category
	}
	if update.Notes != nil {
		m.transactions[idx].Notes = *update.Notes
	}
	if update.Tags != nil {
		m.transactions[idx].Tags = *update.Tags
	}
	if update.Hidden != nil && *update.Hidden {
		m.transactions = append(m.transactions[:idx], m.transactions[idx+1:]...)
	}
	m.budgetCategories = computeBudgetCategories(m.transactions)
	m.notifyLocked()
	m.mu.Unlock()

	return m.txCache.UpdateTransactionFields(ctx, m.uid, transactionID, update)
}

// --- cache fallback ---

// hydrateAccountsFromCache replaces the in-memory account list with the
// cached one. Returns false when the cache is empty or unreadable; that is
// surfaced as no data, not a further fallback.
func (m *SyncManager) hydrateAccountsFromCache(ctx context.Context) bool {
	cached, err := m.accCache.LoadAccounts(ctx, m.uid)
	if err != nil || len(cached) == 0 {
		return false
	}

	m.mu.Lock()
	m.accounts = cached
	m.notifyLocked()
	m.mu.Unlock()
	return true
}

func (m *SyncManager) hydrateTransactionsFromCache(ctx context.Context) bool {
	cached, err := m.txCache.LoadTransactions(ctx, m.uid, cacheLoadLimit)
	if err != nil || len(cached) == 0 {
		return false
	}

	// Hidden transactions stay cached so the edit survives restarts, but
	// they never re-enter the visible list or its category totals.
	visible := cached[:0:0]
	for _, t := range cached {
		if t.Hidden {
			continue
		}
		visible = append(visible, t)
	}
	if len(visible) == 0 {
		return false
	}
	cached = visible

	budgets := computeBudgetCategories(cached)

	m.mu.Lock()
	m.transactions = cached
	m.budgetCategories = budgets
	m.notifyLocked()
	m.mu.Unlock()
	return true
}

// --- write-through ---

// Sync failures never roll back local state; they are logged and the next
// successful fetch writes through again.
func (m *SyncManager) writeThroughAccounts(ctx context.Context, accounts []models.Account) {
	log := logger.FromContext(ctx)
	go func(ctx context.Context) {
		if err := m.accCache.SyncAccounts(ctx, m.uid, accounts); err != nil {
			log.Warn("account cache sync failed", "error", err)
		}
	}(context.WithoutCancel(ctx))
}

func (m *SyncManager) writeThroughTransactions(ctx context.Context, txs []models.Transaction) {
	log := logger.FromContext(ctx)
	go func(ctx context.Context) {
		if err := m.txCache.SyncTransactions(ctx, m.uid, txs); err != nil {
			log.Warn("transaction cache sync failed", "error", err)
		}
	}(context.WithoutCancel(ctx))
}

// --- observable state ---

func (m *SyncManager) Snapshot() dto.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *SyncManager) snapshotLocked() dto.Snapshot {
	snap := dto.Snapshot{
		Accounts:         append([]models.Account(nil), m.accounts...),
		Transactions:     append([]models.Transaction(nil), m.transactions...),
		BudgetCategories: make(map[string]float64, len(m.budgetCategories)),
		IsLoading:        m.isLoading,
		LinkState:        m.linkState,
		LastRefresh:      m.lastRefresh,
	}
	for k, v := range m.budgetCategories {
		snap.BudgetCategories[k] = v
	}
	if m.lastErr != nil {
		snap.LastError = m.lastErr.Error()
	}
	return snap
}

func (m *SyncManager) notifyLocked() {
	snap := m.snapshotLocked()
	for _, ch := range m.subscribers {
		select {
		case ch <- snap:
		default: // slow subscriber misses this snapshot
		}
	}
}

// HasLinkedAccounts reports whether any non-placeholder account exists.
func (m *SyncManager) HasLinkedAccounts() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if !a.IsPlaceholder {
			return true
		}
	}
	return false
}

// LastError returns the sticky last operation error; it is overwritten by
// the next operation's outcome, so callers should check per-operation
// results rather than polling this.
func (m *SyncManager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *SyncManager) currentToken() (string, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken, m.tokenGen
}

func (m *SyncManager) setLoading(v bool) {
	m.mu.Lock()
	m.isLoading = v
	m.notifyLocked()
	m.mu.Unlock()
}

func (m *SyncManager) setLinkState(s dto.LinkState) {
	m.mu.Lock()
	m.linkState = s
	m.notifyLocked()
	m.mu.Unlock()
}

func (m *SyncManager) recordError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.notifyLocked()
	m.mu.Unlock()
}
