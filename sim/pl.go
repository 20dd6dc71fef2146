package sim

import "math"

// RealizedPL is the closing profit of a leg, net of the exit commission.
func RealizedPL(side Side, shares, entry, exit, commission float64) float64 {
	return float64(side)*(exit-entry)*shares - commission
}

// Commission charged on a fill of shares at price.
func Commission(shares, price, rate float64) float64 {
	return shares * price * rate
}

// DailyBorrow is one trading day's borrow fee on a short of shares at price.
func DailyBorrow(shares, price, annualRate float64, tradingDays int) float64 {
	if tradingDays <= 0 {
		return 0
	}
	return shares * price * annualRate / float64(tradingDays)
}

// PairShares sizes both legs of a pair with one share count:
// floor(capital / (|py| + |beta*px|)). Non-finite or non-positive results
// come back as 0.
func PairShares(capital, py, px, beta float64) float64 {
	den := math.Abs(py) + math.Abs(beta*px)
	if den <= 0 || capital <= 0 {
		return 0
	}
	n := math.Floor(capital / den)
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0
	}
	return n
}
