package utils

import "math"

// ToPointer returns a pointer to the given value.
func ToPointer[T any](v T) *T {
	return &v
}

// RoundPrice rounds a price to the instrument's minimum increment,
// two decimal places.
func RoundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}
