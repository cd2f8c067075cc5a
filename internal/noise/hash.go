package noise

// Coordinate hashing for per-cell draws. Values must stay stable across
// releases: changing any constant changes every generated world.

const (
	obstacleSalt uint64 = 0xa0761d6478bd642f
	latticeSalt  uint64 = 0xe7037ed1a0b428db
)

// Mix64 avalanches a 64-bit value (splitmix64 finalizer).
func Mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Hash2 returns a stable hash for 2D integer coordinates and a seed.
func Hash2(seed uint64, x, y int64) uint64 {
	h := seed
	h ^= Mix64(uint64(x) * 0x9e3779b97f4a7c15)
	h = Mix64(h)
	h ^= Mix64(uint64(y) * 0xc2b2ae3d27d4eb4f)
	return Mix64(h)
}

// Unit maps a hash to [0, 1) using its top 53 bits.
func Unit(h uint64) float64 {
	return float64(h>>11) / (1 << 53)
}
