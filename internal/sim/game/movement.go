package game

import (
	"fmt"

	"geocoin.ai/internal/sim/grid"
	"geocoin.ai/internal/sim/spawn"
)

// Move steps the player one tile and scans the neighborhood of the new cell.
func (g *Game) Move(d Direction) (spawn.ScanResult, error) {
	if d < North || d > West {
		return spawn.ScanResult{}, fmt.Errorf("move: bad direction %v", d)
	}
	g.player.step(d)
	return g.Scan(), nil
}

// Scan runs the configured neighborhood scan around the player's cell.
func (g *Game) Scan() spawn.ScanResult {
	return g.ScanAround(g.PlayerCell().ID, g.cfg.NeighborhoodRadius, g.cfg.SpawnProbability)
}

// ScanAround decides every cell within radius of center that has not been decided yet.
func (g *Game) ScanAround(center grid.CellID, radius int, p float64) spawn.ScanResult {
	res := g.spawner.ScanNeighborhood(center, radius, p)
	g.minted += res.Minted
	for _, id := range res.Spawned {
		st, _ := g.ledger.Get(id)
		g.audit(AuditEntry{Action: "MINT", Cell: cellArray(id), Count: st.Len()})
	}
	return res
}

func cellArray(id grid.CellID) [2]int { return [2]int{id.I, id.J} }
