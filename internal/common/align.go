package common

// AlignUp rounds x up to a multiple of a.
func AlignUp(x, a uint64) uint64 {
	if a == 0 {
		return x
	}
	r := x % a
	if r == 0 {
		return x
	}
	return x + (a - r)
}

// CeilDiv returns x/a rounded up. a must be non-zero.
func CeilDiv(x, a uint64) uint64 {
	return x/a + min(x%a, 1)
}
