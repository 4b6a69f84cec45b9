package calc

import "math"

// Amounts are carried as integer cents inside this package so that line
// items always add up to the returned total.

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromCents(cents int64) float64 {
	return float64(cents) / 100
}

// percentOf returns rate*cents rounded half away from zero
func percentOf(cents int64, rate float64) int64 {
	return int64(math.Round(float64(cents) * rate))
}
