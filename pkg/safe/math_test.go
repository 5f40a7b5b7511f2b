package safe

import (
	"math"
	"testing"
)

func TestCheckedMath(t *testing.T) {
	tests := []struct {
		name string
		op   func(a, b int64) (int64, error)
		a, b int64
		want int64
	}{
		{"Normal Add", Add, 10, 20, 30},
		{"Add Boundary", Add, math.MaxInt64 - 1, 1, math.MaxInt64},
		{"Normal Sub", Sub, 30, 10, 20},
		{"Normal Mul", Mul, 5, 6, 30},
		{"Mul Boundary", Mul, math.MaxInt64 / 2, 2, math.MaxInt64 - 1},
		{"Normal Div", Div, 100, 4, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCheckedMathErrors(t *testing.T) {
	if _, err := Add(math.MaxInt64, 1); err != ErrOverflow {
		t.Errorf("Add overflow: got %v", err)
	}
	if _, err := Sub(math.MinInt64, 1); err != ErrOverflow {
		t.Errorf("Sub underflow: got %v", err)
	}
	if _, err := Mul(math.MaxInt64, 2); err != ErrOverflow {
		t.Errorf("Mul overflow: got %v", err)
	}
	if _, err := Mul(math.MinInt64, -1); err != ErrOverflow {
		t.Errorf("Mul negation overflow: got %v", err)
	}
	if _, err := Div(10, 0); err != ErrDivByZero {
		t.Errorf("Div by zero: got %v", err)
	}
	if _, err := Div(math.MinInt64, -1); err != ErrOverflow {
		t.Errorf("Div overflow: got %v", err)
	}
}
