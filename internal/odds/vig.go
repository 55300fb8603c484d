package odds

import "value-bet-finder/internal/mathutil"

// SyntheticExchangeFactor derives the exchange price from fair odds.
// No live exchange price is consulted: the exchange is assumed to trade 5% under fair.
const SyntheticExchangeFactor = 0.95

// ExchangeOdds returns the synthetic exchange price for the given fair odds.
func ExchangeOdds(fairOdds float64) float64 {
	return fairOdds * SyntheticExchangeFactor
}

// AdjustedPrice nets exchange commission, itself reduced by a loyalty discount,
// out of the winnings part of the price and rounds to 2 decimal places.
//
//	commission = commissionPct / 100
//	discount   = discountPct / 100
//	adjusted   = round(1 + (exchangeOdds-1) * (1 - commission*(1-discount)), 2)
//
// Example: exchange 1.9, commission 6.52%, discount 20% → round(1.8531, 2) = 1.85
func AdjustedPrice(exchangeOdds, commissionPct, discountPct float64) float64 {
	return mathutil.Round2(1 + (exchangeOdds-1)*(1-EffectiveCommission(commissionPct, discountPct)))
}

// EffectiveCommission returns the commission rate actually paid after the discount, as a fraction.
func EffectiveCommission(commissionPct, discountPct float64) float64 {
	return (commissionPct / 100) * (1 - discountPct/100)
}
