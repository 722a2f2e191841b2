// Package coinserver is a stand-in for the remote coin service.
// It serves the same wire contract the client expects and is used for local runs and integration tests.
package coinserver

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/cointrack/internal/domain"
)

// ErrUnknownCoin is returned when a symbol is not tracked by the store.
var ErrUnknownCoin = errors.New("unknown coin")

// Store keeps the server-side coin list.
type Store interface {
	List(ctx context.Context) ([]domain.Coin, error)
	SetEnabled(ctx context.Context, symbol string, enabled bool) (domain.Coin, error)
}

// MemoryStore is an ordered in-memory Store.
type MemoryStore struct {
	mu    sync.RWMutex
	coins []domain.Coin
}

// NewMemoryStore creates a store holding coins in the given order.
func NewMemoryStore(coins ...domain.Coin) *MemoryStore {
	return &MemoryStore{coins: domain.Dedup(coins)}
}

// List returns a copy of the stored coins.
func (m *MemoryStore) List(_ context.Context) ([]domain.Coin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Coin, len(m.coins))
	copy(out, m.coins)
	return out, nil
}

// SetEnabled updates the flag for symbol.
func (m *MemoryStore) SetEnabled(_ context.Context, symbol string, enabled bool) (domain.Coin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := domain.IndexOf(m.coins, symbol)
	if idx < 0 {
		return domain.Coin{}, errors.Wrapf(ErrUnknownCoin, "set %q", symbol)
	}
	m.coins[idx].Enabled = enabled
	return m.coins[idx], nil
}
