package game

import (
	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/coin"
	"geocoin.ai/internal/sim/grid"
	"geocoin.ai/internal/sim/ledger"
)

// Observation is a detached read of the session for renderers.
type Observation struct {
	Seq       uint64
	Lat, Lng  float64
	Cell      grid.CellID
	Inventory []coin.Coin
	Caches    []ledger.Memento
	Digest    string
}

// Observe reads the player and the caches within the scan radius.
func (g *Game) Observe() Observation {
	lat, lng := g.player.Position()
	cell := g.locator.Locate(lat, lng).ID
	return Observation{
		Seq:       g.seq,
		Lat:       lat,
		Lng:       lng,
		Cell:      cell,
		Inventory: g.player.Inventory(),
		Caches:    g.CachesNear(cell, g.cfg.NeighborhoodRadius),
		Digest:    g.StateDigest(),
	}
}

func (o Observation) Msg() protocol.ObsMsg {
	caches := make([]protocol.CacheObs, 0, len(o.Caches))
	for _, m := range o.Caches {
		caches = append(caches, protocol.CacheObs{
			Cell:  cellArray(m.Cell),
			Coins: coin.Strings(m.Coins),
		})
	}
	return protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Seq:             o.Seq,
		Player: protocol.PlayerObs{
			Pos:       [2]float64{o.Lat, o.Lng},
			Cell:      cellArray(o.Cell),
			Inventory: coin.Strings(o.Inventory),
		},
		Caches: caches,
		Digest: o.Digest,
	}
}

func (g *Game) SessionParams() protocol.SessionParams {
	return protocol.SessionParams{
		OriginLat:          g.cfg.OriginLat,
		OriginLng:          g.cfg.OriginLng,
		TileSize:           g.cfg.TileSize,
		Scale:              g.cfg.Scale,
		NeighborhoodRadius: g.cfg.NeighborhoodRadius,
		SpawnProbability:   g.cfg.SpawnProbability,
	}
}
