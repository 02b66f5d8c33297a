package coin

import (
	"fmt"
	"strconv"
	"strings"

	"geocoin.ai/internal/sim/grid"
)

// Coin is an identity token: the cell it was minted in plus a serial that is
// unique within that cell. Coins are values; moving one never changes it.
type Coin struct {
	Origin grid.CellID `json:"origin"`
	Serial int         `json:"serial"`
}

func (c Coin) String() string { return fmt.Sprintf("%s#%d", c.Origin, c.Serial) }

// Mint returns n fresh coins for origin with serials 0..n-1.
func Mint(origin grid.CellID, n int) []Coin {
	if n <= 0 {
		return nil
	}
	out := make([]Coin, n)
	for i := range out {
		out[i] = Coin{Origin: origin, Serial: i}
	}
	return out
}

// Parse reads the "i:j#serial" form produced by String.
func Parse(s string) (Coin, error) {
	cell, serial, ok := strings.Cut(strings.TrimSpace(s), "#")
	if !ok {
		return Coin{}, fmt.Errorf("coin %q: missing serial", s)
	}
	is, js, ok := strings.Cut(cell, ":")
	if !ok {
		return Coin{}, fmt.Errorf("coin %q: bad cell", s)
	}
	i, err := strconv.Atoi(is)
	if err != nil {
		return Coin{}, fmt.Errorf("coin %q: %w", s, err)
	}
	j, err := strconv.Atoi(js)
	if err != nil {
		return Coin{}, fmt.Errorf("coin %q: %w", s, err)
	}
	n, err := strconv.Atoi(serial)
	if err != nil {
		return Coin{}, fmt.Errorf("coin %q: %w", s, err)
	}
	if n < 0 {
		return Coin{}, fmt.Errorf("coin %q: negative serial", s)
	}
	return Coin{Origin: grid.CellID{I: i, J: j}, Serial: n}, nil
}

// Strings renders a coin sequence in order.
func Strings(coins []Coin) []string {
	out := make([]string, len(coins))
	for i, c := range coins {
		out[i] = c.String()
	}
	return out
}
