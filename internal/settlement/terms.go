package settlement

import "github.com/shopspring/decimal"

// DefaultMultipleFraction is the each-way place fraction applied to every leg of a multiple
const DefaultMultipleFraction = 0.2

var one = decimal.NewFromInt(1)

// PlaceTerms configures each-way place terms. Singles always use the field-size table
// of PlacesPaid and PlaceFraction; multiples apply MultipleFraction to every leg.
type PlaceTerms struct {
	MultipleFraction decimal.Decimal
}

// DefaultPlaceTerms returns the standard terms
func DefaultPlaceTerms() PlaceTerms {
	return PlaceTerms{MultipleFraction: decimal.NewFromFloat(DefaultMultipleFraction)}
}

// PlacesPaid returns how many places an each-way bet is paid on for a field of n runners
func PlacesPaid(n int) int {
	switch {
	case n >= 16:
		return 4
	case n >= 8:
		return 3
	case n >= 5:
		return 2
	default:
		return 0
	}
}

// PlaceFraction returns the fraction of the win odds paid on the place part
func PlaceFraction(n int) decimal.Decimal {
	switch {
	case n >= 20:
		return one.Div(decimal.NewFromInt(6))
	case n >= 8:
		return one.Div(decimal.NewFromInt(5))
	default:
		return one.Div(decimal.NewFromInt(4))
	}
}

// PlaceOdds converts decimal win odds to place odds for a field of n runners
func PlaceOdds(n int, odds float64) float64 {
	return placeOdds(decimal.NewFromFloat(odds), PlaceFraction(n)).InexactFloat64()
}

func placeOdds(odds, fraction decimal.Decimal) decimal.Decimal {
	return odds.Sub(one).Mul(fraction).Add(one)
}
