package identity

import (
	"context"
	"sync"
)

// StaticProvider treats the bearer token itself as the principal id and
// serves accounts from an in-memory table. It backs local development and
// tests; never enable it in front of real traffic.
type StaticProvider struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{accounts: make(map[string]Account)}
}

// Register adds or replaces an account, keyed by its id.
func (p *StaticProvider) Register(acct Account) {
	p.mu.Lock()
	p.accounts[acct.ID] = acct
	p.mu.Unlock()
}

func (p *StaticProvider) Verify(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

func (p *StaticProvider) FetchAccount(_ context.Context, principalID string) (*Account, error) {
	p.mu.RLock()
	acct, ok := p.accounts[principalID]
	p.mu.RUnlock()
	if ok {
		return &acct, nil
	}
	// Unregistered principals get a synthesized profile so a bare dev setup
	// can sign in with any token.
	return &Account{
		ID:    principalID,
		Email: principalID + "@example.com",
	}, nil
}
