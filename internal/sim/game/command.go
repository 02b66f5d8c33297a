package game

import (
	"errors"
	"fmt"

	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/coin"
	"geocoin.ai/internal/sim/grid"
	"geocoin.ai/internal/sim/ledger"
	"geocoin.ai/internal/sim/spawn"
)

// Command is one user event. Kind uses the protocol action names.
type Command struct {
	Kind      string       `json:"kind"`
	Direction string       `json:"direction,omitempty"`
	Cell      *grid.CellID `json:"cell,omitempty"`
	Coin      *coin.Coin   `json:"coin,omitempty"`
}

type Result struct {
	Seq  uint64
	Code string
	Err  error

	Coin *coin.Coin
	Scan *spawn.ScanResult
}

func (r Result) OK() bool { return r.Err == nil }

// Apply runs cmd to completion and records it. Failed commands still consume
// a sequence number so the event log mirrors every click.
func (g *Game) Apply(cmd Command) Result {
	g.seq++
	res := Result{Seq: g.seq}

	switch cmd.Kind {
	case protocol.ActMove:
		d, err := ParseDirection(cmd.Direction)
		if err != nil {
			res.Err = err
			break
		}
		scan, err := g.Move(d)
		res.Err = err
		res.Scan = &scan
	case protocol.ActScan:
		scan := g.Scan()
		res.Scan = &scan
	case protocol.ActCollect:
		if cmd.Cell == nil {
			res.Err = fmt.Errorf("collect: missing cell")
			break
		}
		c, err := g.Collect(*cmd.Cell)
		if err == nil {
			res.Coin = &c
		}
		res.Err = err
	case protocol.ActDeposit:
		if cmd.Cell == nil || cmd.Coin == nil {
			res.Err = fmt.Errorf("deposit: missing cell or coin")
			break
		}
		res.Err = g.Deposit(*cmd.Cell, *cmd.Coin)
		if res.Err == nil {
			c := *cmd.Coin
			res.Coin = &c
		}
	case protocol.ActDepositLast:
		if cmd.Cell == nil {
			res.Err = fmt.Errorf("deposit: missing cell")
			break
		}
		c, err := g.DepositLast(*cmd.Cell)
		if err == nil {
			res.Coin = &c
		}
		res.Err = err
	default:
		res.Err = fmt.Errorf("unknown command %q", cmd.Kind)
	}
	res.Code = CodeFor(res.Err)
	if !protocol.IsKnownCode(res.Code) {
		res.Code = protocol.ErrInternal
	}

	if g.eventLogger != nil {
		entry := EventLogEntry{
			SessionID: g.cfg.ID,
			Seq:       res.Seq,
			Command:   cmd,
			Code:      res.Code,
			Digest:    g.StateDigest(),
		}
		if err := g.eventLogger.WriteEvent(entry); err != nil {
			g.log.Printf("event write: %v", err)
		}
	}
	return res
}

// CodeFor maps a game error onto its protocol code.
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ledger.ErrEmptyCache):
		return protocol.ErrEmptyCache
	case errors.Is(err, ErrNoCoinHeld):
		return protocol.ErrNoCoinHeld
	case errors.Is(err, ledger.ErrUnknownCache):
		return protocol.ErrUnknownCache
	}
	return protocol.ErrBadRequest
}
