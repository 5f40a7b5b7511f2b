package quant

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"chart_go/pkg/safe"
)

// PriceMicros represents price multiplied by 1,000,000 (10^6).
// E.g., 1.23 USD = 1,230,000 PriceMicros.
type PriceMicros int64

// PriceScale is the fixed-point scale for PriceMicros.
const PriceScale = 1000000

// ToPriceMicros converts a float64 (from external API) to PriceMicros.
// Note: Only used at the boundary. Internal logic uses PriceMicros directly.
func ToPriceMicros(f float64) PriceMicros {
	return PriceMicros(math.Round(f * PriceScale))
}

// Float64 converts back to a float price for the rendering boundary.
func (p PriceMicros) Float64() float64 {
	return float64(p) / PriceScale
}

func (p PriceMicros) String() string {
	return fmt.Sprintf("%.6f", float64(p)/PriceScale)
}

// ParsePriceMicros parses a string decimal (e.g. "123.45") to PriceMicros.
// It avoids float64 entirely for safety.
func ParsePriceMicros(s string) (PriceMicros, error) {
	v, err := parseFixedPoint(s, 6)
	return PriceMicros(v), err
}

// parseFixedPoint parses a string representation of a decimal into an integer
// scaled by 10^decimals.
// Example: "1.23", decimals=6 -> 1230000
func parseFixedPoint(s string, decimals int) (int64, error) {
	if s == "" || s == "null" {
		return 0, nil
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, errors.New("invalid decimal format: multiple dots")
	}

	integerPart := parts[0]
	fractionalPart := ""
	if len(parts) == 2 {
		fractionalPart = parts[1]
	}

	// Sign handling
	sign := int64(1)
	if strings.HasPrefix(integerPart, "-") {
		sign = -1
		integerPart = integerPart[1:]
	}

	intVal, err := strconv.ParseInt(integerPart, 10, 64)
	if err != nil {
		if integerPart == "" {
			intVal = 0 // ".5" case
		} else {
			return 0, err
		}
	}

	// Pad or truncate the fractional part to exactly `decimals` digits.
	if len(fractionalPart) > decimals {
		fractionalPart = fractionalPart[:decimals]
	} else {
		fractionalPart = fractionalPart + strings.Repeat("0", decimals-len(fractionalPart))
	}

	fracVal := int64(0)
	if fractionalPart != "" {
		fracVal, err = strconv.ParseInt(fractionalPart, 10, 64)
		if err != nil {
			return 0, err
		}
	}

	multiplier := int64(1)
	for i := 0; i < decimals; i++ {
		multiplier *= 10
	}

	// Checked math: a huge integer part must surface as a parse error, not
	// a wrapped value.
	scaled, err := safe.Mul(intVal, multiplier)
	if err != nil {
		return 0, fmt.Errorf("value %q out of range: %w", s, err)
	}
	total, err := safe.Add(scaled, fracVal)
	if err != nil {
		return 0, fmt.Errorf("value %q out of range: %w", s, err)
	}

	return total * sign, nil
}
