package odds

// FairOdds converts a probability expressed as a percentage (0-100) to decimal odds
// with no bookmaker margin.
// Example: 40% → 2.5, 25% → 4.0
// Returns 0 for a non-positive probability; callers treat 0 as "no price".
func FairOdds(probabilityPct float64) float64 {
	if probabilityPct <= 0 {
		return 0
	}
	return 100.0 / probabilityPct
}

// ImpliedProbability is the inverse of FairOdds: the percentage a decimal price
// implies. Returns 0 for non-positive odds.
func ImpliedProbability(decimalOdds float64) float64 {
	if decimalOdds <= 0 {
		return 0
	}
	return 100.0 / decimalOdds
}
