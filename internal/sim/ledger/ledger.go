package ledger

import (
	"errors"
	"fmt"

	"geocoin.ai/internal/sim/coin"
	"geocoin.ai/internal/sim/grid"
)

var (
	// ErrEmptyCache is returned by Collect on a cache with no coins. Nothing changes.
	ErrEmptyCache = errors.New("cache is empty")
	// ErrUnknownCache means the cell was never decided to hold a cache.
	ErrUnknownCache = errors.New("unknown cache")
)

// UnknownCacheError names the cell an operation referenced.
type UnknownCacheError struct {
	Cell grid.CellID
}

func (e *UnknownCacheError) Error() string {
	return fmt.Sprintf("%s at %s", ErrUnknownCache, e.Cell)
}

func (e *UnknownCacheError) Unwrap() error { return ErrUnknownCache }

// CacheState is the retained contents of one cache. Its coin sequence is a
// stack: deposits append, collects take the last coin.
type CacheState struct {
	Cell  grid.CellID
	coins []coin.Coin
}

func (s *CacheState) Len() int    { return len(s.coins) }
func (s *CacheState) Empty() bool { return len(s.coins) == 0 }

// Coins returns a copy of the sequence in order.
func (s *CacheState) Coins() []coin.Coin {
	out := make([]coin.Coin, len(s.coins))
	copy(out, s.coins)
	return out
}

// Top is the coin the next Collect would return.
func (s *CacheState) Top() (coin.Coin, bool) {
	if len(s.coins) == 0 {
		return coin.Coin{}, false
	}
	return s.coins[len(s.coins)-1], true
}

func (s *CacheState) push(c coin.Coin) { s.coins = append(s.coins, c) }

func (s *CacheState) pop() (coin.Coin, bool) {
	n := len(s.coins)
	if n == 0 {
		return coin.Coin{}, false
	}
	c := s.coins[n-1]
	s.coins[n-1] = coin.Coin{}
	s.coins = s.coins[:n-1]
	return c, true
}

// Memento is a detached copy of a cache, safe to hand to renderers.
type Memento struct {
	Cell  grid.CellID `json:"cell"`
	Coins []coin.Coin `json:"coins"`
}

// Ledger maps cells to their cache state. Entries are never removed.
type Ledger struct {
	caches map[grid.CellID]*CacheState
	total  int
}

func New() *Ledger {
	return &Ledger{caches: map[grid.CellID]*CacheState{}}
}

func (l *Ledger) Has(id grid.CellID) bool {
	_, ok := l.caches[id]
	return ok
}

func (l *Ledger) Get(id grid.CellID) (*CacheState, bool) {
	s, ok := l.caches[id]
	return s, ok
}

func (l *Ledger) Len() int { return len(l.caches) }

// TotalCoins is the number of coins currently sitting in caches.
func (l *Ledger) TotalCoins() int { return l.total }

func (l *Ledger) IDs() []grid.CellID {
	ids := make([]grid.CellID, 0, len(l.caches))
	for id := range l.caches {
		ids = append(ids, id)
	}
	grid.SortCellIDs(ids)
	return ids
}

// Create inserts a cache for id holding coins. If id already has a cache the
// existing state is returned untouched and created is false.
func (l *Ledger) Create(id grid.CellID, coins []coin.Coin) (s *CacheState, created bool) {
	if s, ok := l.caches[id]; ok {
		return s, false
	}
	s = &CacheState{Cell: id, coins: append([]coin.Coin(nil), coins...)}
	l.caches[id] = s
	l.total += len(coins)
	return s, true
}

// Collect removes and returns the last coin of the cache at id.
func (l *Ledger) Collect(id grid.CellID) (coin.Coin, error) {
	s, ok := l.caches[id]
	if !ok {
		return coin.Coin{}, &UnknownCacheError{Cell: id}
	}
	c, ok := s.pop()
	if !ok {
		return coin.Coin{}, ErrEmptyCache
	}
	l.total--
	return c, nil
}

// Deposit appends c to the cache at id. Any coin may go into any cache.
func (l *Ledger) Deposit(id grid.CellID, c coin.Coin) error {
	s, ok := l.caches[id]
	if !ok {
		return &UnknownCacheError{Cell: id}
	}
	s.push(c)
	l.total++
	return nil
}

func (l *Ledger) Memento(id grid.CellID) (Memento, bool) {
	s, ok := l.caches[id]
	if !ok {
		return Memento{}, false
	}
	return Memento{Cell: id, Coins: s.Coins()}, true
}

// Each visits caches in (i, j) order.
func (l *Ledger) Each(fn func(s *CacheState)) {
	for _, id := range l.IDs() {
		fn(l.caches[id])
	}
}
