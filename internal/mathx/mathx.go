package mathx

import "errors"

// ErrDivideByZero is returned by CeilDiv for a zero divisor.
var ErrDivideByZero = errors.New("divide by zero")

// CeilDiv returns ceil(a/b) for non-negative a and positive b.
func CeilDiv(a, b int) (int, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if a <= 0 {
		return 0, nil
	}
	return (a + b - 1) / b, nil
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Window returns the half-open slice bounds [start, end) of a 1-based page
// over n items, clamped to [0, n].
func Window(page, limit, n int) (start, end int) {
	if page < 1 || limit < 1 {
		return 0, 0
	}
	// page*limit can overflow for absurd page numbers; anything past n is empty.
	if page-1 > n/limit {
		return n, n
	}
	start = Clamp((page-1)*limit, 0, n)
	end = Clamp(start+limit, start, n)
	return start, end
}
