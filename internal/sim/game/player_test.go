package game

import (
	"testing"

	"geocoin.ai/internal/sim/coin"
	"geocoin.ai/internal/sim/grid"
)

func TestParseDirection(t *testing.T) {
	cases := map[string]Direction{
		"north": North, "N": North, " South ": South, "e": East, "west": West, "left": West,
	}
	for in, want := range cases {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Fatalf("ParseDirection(%q)=%v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseDirection("up-left"); err == nil {
		t.Fatalf("expected error")
	}
	if North.String() != "north" || Direction(9).String() != "Direction(9)" {
		t.Fatalf("String() mismatch")
	}
}

func TestPlayer_GiveRemovesLatestCopy(t *testing.T) {
	p := newPlayer(0, 0, 1e-4)
	a := coin.Coin{Origin: grid.CellID{I: 1}, Serial: 0}
	b := coin.Coin{Origin: grid.CellID{I: 2}, Serial: 0}
	p.take(a)
	p.take(b)
	if !p.give(a) {
		t.Fatalf("give(a) failed")
	}
	inv := p.Inventory()
	if len(inv) != 1 || inv[0] != b {
		t.Fatalf("inventory=%v", inv)
	}
	if p.give(a) {
		t.Fatalf("gave a coin that is no longer held")
	}
	last, ok := p.last()
	if !ok || last != b {
		t.Fatalf("last=%v ok=%v", last, ok)
	}
}
