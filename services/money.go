package services

// toAmount converts minor units to a decimal amount for display.
func toAmount(cents int64) float64 {
	return float64(cents) / 100
}
