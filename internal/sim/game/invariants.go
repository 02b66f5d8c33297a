package game

import (
	"fmt"

	"geocoin.ai/internal/sim/coin"
	"geocoin.ai/internal/sim/ledger"
)

// CheckInvariants verifies coin conservation and uniqueness across the
// player's inventory and every cache.
func (g *Game) CheckInvariants() error {
	seen := make(map[coin.Coin]string, g.minted)
	total := 0
	var dup error
	note := func(where string, coins []coin.Coin) {
		for _, c := range coins {
			total++
			if prev, ok := seen[c]; ok && dup == nil {
				dup = fmt.Errorf("coin %s held by both %s and %s", c, prev, where)
			}
			seen[c] = where
		}
	}

	note("player", g.player.inventory)
	g.ledger.Each(func(s *ledger.CacheState) {
		note("cache "+s.Cell.String(), s.Coins())
	})

	if dup != nil {
		return dup
	}
	if total != g.minted {
		return fmt.Errorf("coin count %d != minted %d", total, g.minted)
	}
	if held := g.ledger.TotalCoins() + g.player.Holding(); held != total {
		return fmt.Errorf("ledger total %d + inventory %d != counted %d", g.ledger.TotalCoins(), g.player.Holding(), total)
	}
	return nil
}
