package architext

// index resolves a possibly negative index against n elements.
func index(i, n int) (int, bool) {
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

// insertAt clamps an insert position the way list insertion does:
// negative positions count from the end, anything out of range sticks to the nearest end.
func insertAt(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}
	if i > n {
		return n
	}
	return i
}

// bounds resolves a [lo:hi) slice expression, with negative values counting from the end.
func bounds(lo, hi, n int) (int, int) {
	clamp := func(i int) int {
		if i < 0 {
			i += n
			if i < 0 {
				return 0
			}
		}
		if i > n {
			return n
		}
		return i
	}
	lo, hi = clamp(lo), clamp(hi)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
