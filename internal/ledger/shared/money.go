package shared

import (
	"fmt"
	"math"
)

// Round2 rounds an amount to currency precision (two decimal places).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SameAmount reports whether two amounts are equal within currency precision.
func SameAmount(a, b float64) bool {
	return fmt.Sprintf("%.2f", a) == fmt.Sprintf("%.2f", b)
}
