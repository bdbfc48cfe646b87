package sampler

import (
	"hash/fnv"
	"math/rand"
)

// strategySeed derives a per-strategy sub-seed from the request seed so
// that randomized adjustments are reproducible from (seed, strategy name)
// yet differ between strategies.
func strategySeed(seed int64, id StrategyID) int64 {
	h := fnv.New64a()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(seed >> (8 * i))
	}
	h.Write(buf[:])
	h.Write([]byte(id))
	return int64(h.Sum64() & 0x7fffffffffffffff)
}

// strategyRand returns a deterministic generator keyed by (seed, strategy)
func strategyRand(seed int64, id StrategyID) *rand.Rand {
	return rand.New(rand.NewSource(strategySeed(seed, id)))
}
