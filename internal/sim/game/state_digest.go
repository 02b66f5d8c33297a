package game

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"geocoin.ai/internal/sim/coin"
	"geocoin.ai/internal/sim/ledger"
)

// StateDigest hashes everything a command can change. Two sessions built from
// the same tuning and fed the same commands produce the same digest.
func (g *Game) StateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, g.seq)
	digestWriteI64(h, &tmp, int64(g.origin.I))
	digestWriteI64(h, &tmp, int64(g.origin.J))

	si, sj := g.player.Steps()
	digestWriteI64(h, &tmp, int64(si))
	digestWriteI64(h, &tmp, int64(sj))
	digestCoins(h, &tmp, g.player.inventory)

	digestWriteU64(h, &tmp, uint64(g.ledger.Len()))
	g.ledger.Each(func(s *ledger.CacheState) {
		digestWriteI64(h, &tmp, int64(s.Cell.I))
		digestWriteI64(h, &tmp, int64(s.Cell.J))
		digestCoins(h, &tmp, s.Coins())
	})

	return hex.EncodeToString(h.Sum(nil))
}

func digestCoins(h hash.Hash, tmp *[8]byte, coins []coin.Coin) {
	digestWriteU64(h, tmp, uint64(len(coins)))
	for _, c := range coins {
		digestWriteI64(h, tmp, int64(c.Origin.I))
		digestWriteI64(h, tmp, int64(c.Origin.J))
		digestWriteI64(h, tmp, int64(c.Serial))
	}
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hash.Hash, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}
