package ledger

import (
	"errors"
	"testing"

	"geocoin.ai/internal/sim/coin"
	"geocoin.ai/internal/sim/grid"
)

func TestCreate_Once(t *testing.T) {
	l := New()
	id := grid.CellID{I: 1, J: 1}
	s1, created := l.Create(id, coin.Mint(id, 3))
	if !created || s1.Len() != 3 {
		t.Fatalf("first create: created=%v len=%d", created, s1.Len())
	}
	if _, err := l.Collect(id); err != nil {
		t.Fatalf("collect: %v", err)
	}

	s2, created := l.Create(id, coin.Mint(id, 10))
	if created {
		t.Fatalf("second create must not replace the cache")
	}
	if s2 != s1 || s2.Len() != 2 {
		t.Fatalf("existing cache was reset: len=%d", s2.Len())
	}
	if l.Len() != 1 || l.TotalCoins() != 2 {
		t.Fatalf("Len=%d TotalCoins=%d", l.Len(), l.TotalCoins())
	}
}

func TestCollect_StackOrder(t *testing.T) {
	l := New()
	id := grid.CellID{I: 0, J: 0}
	l.Create(id, coin.Mint(id, 3))

	for want := 2; want >= 0; want-- {
		c, err := l.Collect(id)
		if err != nil {
			t.Fatalf("collect: %v", err)
		}
		if c.Serial != want {
			t.Fatalf("collected serial %d want %d", c.Serial, want)
		}
	}
	if _, err := l.Collect(id); !errors.Is(err, ErrEmptyCache) {
		t.Fatalf("expected ErrEmptyCache, got %v", err)
	}
	s, _ := l.Get(id)
	if !s.Empty() || l.TotalCoins() != 0 {
		t.Fatalf("empty collect changed state: len=%d total=%d", s.Len(), l.TotalCoins())
	}
}

func TestUnknownCache(t *testing.T) {
	l := New()
	id := grid.CellID{I: 5, J: -5}
	_, err := l.Collect(id)
	if !errors.Is(err, ErrUnknownCache) {
		t.Fatalf("collect: expected ErrUnknownCache, got %v", err)
	}
	var uerr *UnknownCacheError
	if !errors.As(err, &uerr) || uerr.Cell != id {
		t.Fatalf("expected UnknownCacheError for %v, got %v", id, err)
	}
	if err := l.Deposit(id, coin.Coin{Origin: id}); !errors.Is(err, ErrUnknownCache) {
		t.Fatalf("deposit: expected ErrUnknownCache, got %v", err)
	}
	if l.Has(id) || l.Len() != 0 {
		t.Fatalf("failed ops must not create caches")
	}
}

func TestDeposit_AnyCoinAnyCache(t *testing.T) {
	l := New()
	a := grid.CellID{I: 0, J: 0}
	b := grid.CellID{I: 9, J: 9}
	l.Create(a, nil)
	foreign := coin.Coin{Origin: b, Serial: 4}
	if err := l.Deposit(a, foreign); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	s, _ := l.Get(a)
	top, ok := s.Top()
	if !ok || top != foreign {
		t.Fatalf("top=%v ok=%v", top, ok)
	}
}

func TestMemento_IsCopy(t *testing.T) {
	l := New()
	id := grid.CellID{I: 2, J: 3}
	l.Create(id, coin.Mint(id, 2))
	m, ok := l.Memento(id)
	if !ok || len(m.Coins) != 2 {
		t.Fatalf("memento=%+v ok=%v", m, ok)
	}
	m.Coins[0] = coin.Coin{}
	s, _ := l.Get(id)
	if s.Coins()[0].Serial != 0 || s.Coins()[0].Origin != id {
		t.Fatalf("memento mutation leaked into ledger")
	}
	if _, ok := l.Memento(grid.CellID{I: 99}); ok {
		t.Fatalf("memento for unknown cell")
	}
}

func TestEach_Ordered(t *testing.T) {
	l := New()
	for _, id := range []grid.CellID{{I: 3, J: 0}, {I: -2, J: 1}, {I: 0, J: 0}} {
		l.Create(id, nil)
	}
	var got []grid.CellID
	l.Each(func(s *CacheState) { got = append(got, s.Cell) })
	want := []grid.CellID{{I: -2, J: 1}, {I: 0, J: 0}, {I: 3, J: 0}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Each order %v want %v", got, want)
		}
	}
}
