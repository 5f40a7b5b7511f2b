package safe

import (
	"errors"
	"math"
)

// ErrOverflow reports an int64 operation whose true result does not fit.
var ErrOverflow = errors.New("int64 overflow")

// ErrDivByZero reports division by zero.
var ErrDivByZero = errors.New("division by zero")

// Add performs checked int64 addition.
func Add(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Sub performs checked int64 subtraction.
func Sub(a, b int64) (int64, error) {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// Mul performs checked int64 multiplication.
func Mul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > 0 {
		if b > 0 {
			if a > math.MaxInt64/b {
				return 0, ErrOverflow
			}
		} else {
			if b < math.MinInt64/a {
				return 0, ErrOverflow
			}
		}
	} else {
		if b > 0 {
			if a < math.MinInt64/b {
				return 0, ErrOverflow
			}
		} else {
			if a < math.MaxInt64/b {
				return 0, ErrOverflow
			}
		}
	}
	return a * b, nil
}

// Div performs checked int64 division. MinInt64 / -1 overflows too.
func Div(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrDivByZero
	}
	if a == math.MinInt64 && b == -1 {
		return 0, ErrOverflow
	}
	return a / b, nil
}
