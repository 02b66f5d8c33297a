package game

import (
	"fmt"
	"strings"

	"geocoin.ai/internal/sim/coin"
)

type Direction int

const (
	North Direction = iota + 1
	South
	East
	West
)

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n", "up":
		return North, nil
	case "south", "s", "down":
		return South, nil
	case "east", "e", "right":
		return East, nil
	case "west", "w", "left":
		return West, nil
	}
	return 0, fmt.Errorf("bad direction %q", s)
}

// delta is the (lat, lng) step in tiles.
func (d Direction) delta() (int, int) {
	switch d {
	case North:
		return 1, 0
	case South:
		return -1, 0
	case East:
		return 0, 1
	case West:
		return 0, -1
	}
	return 0, 0
}

// Player position is the origin plus a whole number of tiles on each axis,
// so stepping away and back lands on the exact starting coordinates.
type Player struct {
	originLat float64
	originLng float64
	tile      float64

	stepLat int
	stepLng int

	inventory []coin.Coin
}

func newPlayer(lat, lng, tile float64) *Player {
	return &Player{originLat: lat, originLng: lng, tile: tile}
}

func (p *Player) Position() (lat, lng float64) {
	return p.originLat + float64(p.stepLat)*p.tile, p.originLng + float64(p.stepLng)*p.tile
}

// Steps is the offset from the start in tiles.
func (p *Player) Steps() (lat, lng int) { return p.stepLat, p.stepLng }

func (p *Player) Inventory() []coin.Coin {
	out := make([]coin.Coin, len(p.inventory))
	copy(out, p.inventory)
	return out
}

func (p *Player) Holding() int { return len(p.inventory) }

func (p *Player) step(d Direction) {
	di, dj := d.delta()
	p.stepLat += di
	p.stepLng += dj
}

func (p *Player) take(c coin.Coin) { p.inventory = append(p.inventory, c) }

// give removes c from the inventory. The most recently acquired copy goes first.
func (p *Player) give(c coin.Coin) bool {
	for i := len(p.inventory) - 1; i >= 0; i-- {
		if p.inventory[i] != c {
			continue
		}
		p.inventory = append(p.inventory[:i], p.inventory[i+1:]...)
		return true
	}
	return false
}

func (p *Player) last() (coin.Coin, bool) {
	if len(p.inventory) == 0 {
		return coin.Coin{}, false
	}
	return p.inventory[len(p.inventory)-1], true
}
