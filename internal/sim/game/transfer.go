package game

import (
	"errors"

	"geocoin.ai/internal/sim/coin"
	"geocoin.ai/internal/sim/grid"
	"geocoin.ai/internal/sim/ledger"
)

// Collect moves the top coin of the cache at id into the player's inventory.
// ledger.ErrEmptyCache leaves everything unchanged.
func (g *Game) Collect(id grid.CellID) (coin.Coin, error) {
	c, err := g.ledger.Collect(id)
	if err != nil {
		g.reportUnknown("collect", err)
		return coin.Coin{}, err
	}
	g.player.take(c)
	g.audit(AuditEntry{Action: "COLLECT", Cell: cellArray(id), Coin: c.String()})
	return c, nil
}

// Deposit moves c from the player's inventory onto the cache at id. The coin
// does not have to come from that cache.
func (g *Game) Deposit(id grid.CellID, c coin.Coin) error {
	if !g.ledger.Has(id) {
		err := error(&ledger.UnknownCacheError{Cell: id})
		g.reportUnknown("deposit", err)
		return err
	}
	if !g.player.give(c) {
		return ErrNoCoinHeld
	}
	if err := g.ledger.Deposit(id, c); err != nil {
		// Has(id) was checked above; put the coin back so nothing is lost.
		g.player.take(c)
		return err
	}
	g.audit(AuditEntry{Action: "DEPOSIT", Cell: cellArray(id), Coin: c.String()})
	return nil
}

// DepositLast deposits the most recently acquired coin.
func (g *Game) DepositLast(id grid.CellID) (coin.Coin, error) {
	c, ok := g.player.last()
	if !ok {
		if !g.ledger.Has(id) {
			err := error(&ledger.UnknownCacheError{Cell: id})
			g.reportUnknown("deposit", err)
			return coin.Coin{}, err
		}
		return coin.Coin{}, ErrNoCoinHeld
	}
	if err := g.Deposit(id, c); err != nil {
		return coin.Coin{}, err
	}
	return c, nil
}

func (g *Game) reportUnknown(op string, err error) {
	var uerr *ledger.UnknownCacheError
	if errors.As(err, &uerr) {
		g.log.Printf("ERROR %s on undecided cell %s: caller skipped the neighborhood scan", op, uerr.Cell)
	}
}
