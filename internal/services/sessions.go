package services

import (
	"context"
	"sync"

	"github.com/moneymap-app/moneymap-backend/pkg/logger"
)

// ManagerFactory builds a SyncManager for one user. Injected so tests and
// main can wire different clients behind the pool.
type ManagerFactory func(uid string) *SyncManager

// SessionPool holds one started SyncManager per signed-in user. Managers
// are created lazily on first use and torn down explicitly at sign-out.
type SessionPool struct {
	factory ManagerFactory

	mu       sync.Mutex
	managers map[string]*SyncManager
}

func NewSessionPool(factory ManagerFactory) *SessionPool {
	return &SessionPool{
		factory:  factory,
		managers: map[string]*SyncManager{},
	}
}

// Get returns the user's manager, starting a fresh one on first use.
func (p *SessionPool) Get(ctx context.Context, uid string) *SyncManager {
	p.mu.Lock()
	if m, ok := p.managers[uid]; ok {
		p.mu.Unlock()
		return m
	}
	m := p.factory(uid)
	p.managers[uid] = m
	p.mu.Unlock()

	if err := m.Start(ctx); err != nil {
		logger.FromContext(ctx).Warn("manager start failed", "error", err)
	}
	return m
}

// Close tears down one user's manager (sign-out).
func (p *SessionPool) Close(uid string) {
	p.mu.Lock()
	m, ok := p.managers[uid]
	delete(p.managers, uid)
	p.mu.Unlock()
	if ok {
		m.Close()
	}
}

// CloseAll tears down every active session.
func (p *SessionPool) CloseAll() {
	p.mu.Lock()
	managers := p.managers
	p.managers = map[string]*SyncManager{}
	p.mu.Unlock()
	for _, m := range managers {
		m.Close()
	}
}
