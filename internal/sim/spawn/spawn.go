// Package spawn decides which grid cells hold caches and stocks them.
//
// Decisions are keyed on a cell's offset from the world origin cell, so the
// same absolute cell gets the same answer no matter where the player stood
// when it was scanned.
package spawn

import (
	"math"

	"geocoin.ai/internal/sim/coin"
	"geocoin.ai/internal/sim/grid"
	"geocoin.ai/internal/sim/ledger"
	"geocoin.ai/internal/sim/luck"
)

const (
	MinCoins = 1
	MaxCoins = 10
)

type Spawner struct {
	locator *grid.Locator
	ledger  *ledger.Ledger
	origin  grid.CellID
}

func New(loc *grid.Locator, led *ledger.Ledger, origin grid.CellID) *Spawner {
	return &Spawner{locator: loc, ledger: led, origin: origin}
}

func (s *Spawner) Origin() grid.CellID { return s.origin }

// ScanResult lists what one neighborhood scan did. Spawned holds only cells
// that got a new cache during this scan.
type ScanResult struct {
	Center  grid.CellID   `json:"center"`
	Radius  int           `json:"radius"`
	Scanned int           `json:"scanned"`
	Spawned []grid.CellID `json:"spawned,omitempty"`
	Minted  int           `json:"minted"`
}

// Decide reports whether id hosts a cache and how many coins it starts with.
func (s *Spawner) Decide(id grid.CellID, p float64) (spawn bool, coins int) {
	di, dj := id.Sub(s.origin)
	if !luck.Below(luck.Key(di, dj), p) {
		return false, 0
	}
	return true, CoinCount(di, dj)
}

// CoinCount is the starting stock for the cell at origin offset (di, dj).
func CoinCount(di, dj int) int {
	n := int(math.Floor(luck.Luck(luck.Key(di, dj, "coins"))*MaxCoins)) + 1
	if n < MinCoins {
		n = MinCoins
	}
	if n > MaxCoins {
		n = MaxCoins
	}
	return n
}

// ScanNeighborhood visits the square of cells within radius of center, row by
// row, and creates a cache in every cell whose decision says so and that does
// not already have one.
func (s *Spawner) ScanNeighborhood(center grid.CellID, radius int, p float64) ScanResult {
	if radius < 0 {
		radius = 0
	}
	res := ScanResult{Center: center, Radius: radius}
	for di := -radius; di <= radius; di++ {
		for dj := -radius; dj <= radius; dj++ {
			res.Scanned++
			id := s.locator.At(center.Add(di, dj)).ID
			if s.ledger.Has(id) {
				continue
			}
			ok, n := s.Decide(id, p)
			if !ok {
				continue
			}
			if _, created := s.ledger.Create(id, coin.Mint(id, n)); created {
				res.Spawned = append(res.Spawned, id)
				res.Minted += n
			}
		}
	}
	return res
}
