package risk

// deriveSeed mixes the run's base seed with an evaluation index through
// a splitmix64 finalizer. Adjacent indices land on uncorrelated streams,
// which keeps per-day simulations independent without any shared RNG.
func deriveSeed(base int64, index int) uint64 {
	z := uint64(base) ^ (uint64(index)+1)*0x9E3779B97F4A7C15
	z ^= z >> 30
	z *= 0xBF58476D1CE4E5B9
	z ^= z >> 27
	z *= 0x94D049BB133111EB
	z ^= z >> 31
	return z
}
