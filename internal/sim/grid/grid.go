package grid

import (
	"fmt"
	"sort"

	"geocoin.ai/internal/sim/logic/mathx"
)

// DefaultScale puts one grid unit at 1e-4 degrees.
const DefaultScale = 1e4

// CellID is the canonical (i, j) address of a grid cell.
type CellID struct {
	I int `json:"i"`
	J int `json:"j"`
}

func (c CellID) String() string { return fmt.Sprintf("%d:%d", c.I, c.J) }

// Key is the ledger key form "i,j".
func (c CellID) Key() string { return fmt.Sprintf("%d,%d", c.I, c.J) }

func (c CellID) Add(di, dj int) CellID { return CellID{I: c.I + di, J: c.J + dj} }

func (c CellID) Sub(o CellID) (di, dj int) { return c.I - o.I, c.J - o.J }

func CompareCellID(a, b CellID) int {
	switch {
	case a.I < b.I:
		return -1
	case a.I > b.I:
		return 1
	case a.J < b.J:
		return -1
	case a.J > b.J:
		return 1
	}
	return 0
}

func SortCellIDs(ids []CellID) {
	sort.Slice(ids, func(i, j int) bool { return CompareCellID(ids[i], ids[j]) < 0 })
}

// Cell is the flyweight record for one grid address.
type Cell struct {
	ID    CellID
	scale float64
}

// Lat is the latitude of the cell's south edge.
func (c *Cell) Lat() float64 { return float64(c.ID.I) / c.scale }

// Lng is the longitude of the cell's west edge.
func (c *Cell) Lng() float64 { return float64(c.ID.J) / c.scale }

func (c *Cell) String() string { return c.ID.String() }

// Locator owns the arena of canonical cells. It is append-only: a cell,
// once created, is returned for every later lookup of the same address.
type Locator struct {
	scale float64
	cells map[CellID]*Cell
}

func NewLocator(scale float64) *Locator {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Locator{
		scale: scale,
		cells: map[CellID]*Cell{},
	}
}

func (l *Locator) Scale() float64 { return l.scale }

// ID converts continuous coordinates to a cell address without registering it.
func (l *Locator) ID(lat, lng float64) CellID {
	return CellID{
		I: mathx.RoundHalfUp(lat * l.scale),
		J: mathx.RoundHalfUp(lng * l.scale),
	}
}

// Locate returns the canonical cell for (lat, lng), creating it on first use.
func (l *Locator) Locate(lat, lng float64) *Cell {
	return l.At(l.ID(lat, lng))
}

// At returns the canonical cell for id, creating it on first use.
func (l *Locator) At(id CellID) *Cell {
	if c, ok := l.cells[id]; ok {
		return c
	}
	c := &Cell{ID: id, scale: l.scale}
	l.cells[id] = c
	return c
}

func (l *Locator) Lookup(id CellID) (*Cell, bool) {
	c, ok := l.cells[id]
	return c, ok
}

func (l *Locator) Len() int { return len(l.cells) }

func (l *Locator) IDs() []CellID {
	ids := make([]CellID, 0, len(l.cells))
	for id := range l.cells {
		ids = append(ids, id)
	}
	SortCellIDs(ids)
	return ids
}
