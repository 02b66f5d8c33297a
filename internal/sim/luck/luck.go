// Package luck maps string keys to reproducible values in [0,1).
//
// Values depend only on the key bytes, so a cache layout can be rebuilt
// anywhere from the cell offsets alone.
package luck

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"geocoin.ai/internal/sim/logic/mathx"
)

// Luck returns a deterministic value in [0,1) for key.
func Luck(key string) float64 {
	return mathx.Unit(mathx.Mix64(xxhash.Sum64String(key)))
}

// Key joins parts with commas, e.g. Key(3, -2, "coins") == "3,-2,coins".
func Key(parts ...any) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprint(&b, p)
	}
	return b.String()
}

// Below reports whether Luck(key) < p. A p >= 1 always passes and p <= 0 never does.
func Below(key string, p float64) bool {
	return Luck(key) < p
}
