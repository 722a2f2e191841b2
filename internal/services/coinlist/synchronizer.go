// Package coinlist owns the tracked coin list and keeps it in step with the remote coin service.
package coinlist

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/cointrack/internal/domain"
	"go.uber.org/zap"
)

// ErrCoinNotFound is returned when toggling a symbol that is not in the list.
var ErrCoinNotFound = errors.New("coin not found")

type coinService interface {
	FetchCoins(ctx context.Context) ([]domain.Coin, error)
	SetCoinEnabled(ctx context.Context, symbol string, enabled bool) error
}

// ToggleRecorder receives every settled toggle.
type ToggleRecorder interface {
	Save(event domain.ToggleEvent) error
}

// Snapshot published list value.
// Version grows by one on every publish, so observers can tell list values apart.
type Snapshot struct {
	Version uint64
	Status  domain.LoadStatus
	Err     error
	Coins   []domain.Coin
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithRecorder attaches a journal for toggle outcomes.
func WithRecorder(r ToggleRecorder) Option {
	return func(s *Synchronizer) {
		s.recorder = r
	}
}

// WithClock overrides the clock used for toggle event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		s.now = now
	}
}

// Synchronizer owns the in-memory coin list.
// Remote calls are made without holding the lock; the lock only guards swapping list values.
// Published slices are never modified after publish.
type Synchronizer struct {
	service  coinService
	recorder ToggleRecorder
	logger   *zap.Logger
	now      func() time.Time

	mu         sync.RWMutex
	coins      []domain.Coin
	status     domain.LoadStatus
	loadErr    error
	version    uint64
	generation uint64
	subs       map[int]chan Snapshot
	nextSubID  int
}

// NewSynchronizer creates a Synchronizer with an empty list.
func NewSynchronizer(service coinService, logger *zap.Logger, opts ...Option) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Synchronizer{
		service: service,
		logger:  logger,
		now:     time.Now,
		status:  domain.LoadStatusIdle,
		subs:    make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize fetches the full list once and replaces the local list with it.
// On failure the list is left empty and the state records the cause; nothing is retried.
// Only the most recently started fetch is applied.
func (s *Synchronizer) Initialize(ctx context.Context) domain.LoadResult {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.status = domain.LoadStatusLoading
	s.loadErr = nil
	s.publishLocked()
	s.mu.Unlock()

	coins, err := s.service.FetchCoins(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("dropping superseded coin list fetch", zap.Uint64("generation", gen))
		return s.resultLocked()
	}

	if err != nil {
		s.logger.Error("failed to fetch coin list", zap.Error(err))
		s.coins = nil
		s.status = domain.LoadStatusFailed
		s.loadErr = err
	} else {
		fetched := domain.Dedup(domain.NormalizeSymbols(coins))
		if len(fetched) != len(coins) {
			s.logger.Warn("coin service returned duplicate or blank symbols",
				zap.Int("received", len(coins)), zap.Int("kept", len(fetched)))
		}
		s.coins = fetched
		s.status = domain.LoadStatusLoaded
		s.logger.Info("coin list loaded", zap.Int("coins", len(fetched)))
	}
	s.publishLocked()

	return s.resultLocked()
}

// Toggle asks the service to set the flag for symbol and, once acknowledged,
// updates that single entry in place of its index.
// On error the list is left untouched and the error is returned.
// Concurrent toggles are allowed; acknowledgements are applied in completion order.
func (s *Synchronizer) Toggle(ctx context.Context, symbol string, enabled bool) error {
	symbol = domain.NormalizeSymbol(symbol)

	s.mu.RLock()
	idx := domain.IndexOf(s.coins, symbol)
	s.mu.RUnlock()
	if idx < 0 {
		return errors.Wrapf(ErrCoinNotFound, "toggle %q", symbol)
	}

	log := s.logger.With(zap.String("symbol", symbol), zap.Bool("enabled", enabled))

	err := s.service.SetCoinEnabled(ctx, symbol, enabled)
	s.record(log, symbol, enabled, err)
	if err != nil {
		log.Warn("toggle rejected, keeping previous state", zap.Error(err))
		return errors.Wrapf(err, "toggle %q", symbol)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := domain.WithEnabled(s.coins, symbol, enabled)
	if !ok {
		// list was replaced by a newer fetch while the request was in flight
		log.Info("toggle acknowledged for a coin no longer listed")
		return nil
	}
	s.coins = next
	s.publishLocked()
	log.Info("toggle applied")

	return nil
}

// Coins returns the current list value. Callers must not modify it.
func (s *Synchronizer) Coins() []domain.Coin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coins
}

// State returns the outcome of the most recent fetch.
func (s *Synchronizer) State() domain.LoadResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resultLocked()
}

// Snapshot returns the current published value.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers an observer. The channel holds at most the latest snapshot;
// a slow reader skips intermediate values. The returned func unsubscribes.
func (s *Synchronizer) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Synchronizer) record(log *zap.Logger, symbol string, enabled bool, err error) {
	if s.recorder == nil {
		return
	}
	if saveErr := s.recorder.Save(domain.NewToggleEvent(s.now(), symbol, enabled, err)); saveErr != nil {
		log.Error("failed to journal toggle", zap.Error(saveErr))
	}
}

func (s *Synchronizer) resultLocked() domain.LoadResult {
	return domain.LoadResult{Status: s.status, Coins: s.coins, Err: s.loadErr}
}

func (s *Synchronizer) snapshotLocked() Snapshot {
	return Snapshot{Version: s.version, Status: s.status, Err: s.loadErr, Coins: s.coins}
}

// publishLocked must be called with mu held for writing.
func (s *Synchronizer) publishLocked() {
	s.version++
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
