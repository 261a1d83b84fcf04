// Package settlement computes the financial outcome of a bet from its matched runners.
package settlement

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/race-reconciler/internal/models"
)

// ErrNoRunners is returned when settlement is requested without any resolved leg.
// Callers must skip such bets instead.
var ErrNoRunners = errors.New("settlement requires at least one resolved runner")

const (
	finPosSeparator  = " / "
	unresolvedFinPos = "?"
	moneyPlaces      = 2
)

var (
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// Settlement is the computed outcome of one bet
type Settlement struct {
	BetID            string
	Status           models.BetStatus
	Returns          float64
	ProfitLoss       float64
	SPIndustry       *float64
	OvrBtn           *float64
	ClosingLineValue *float64
	CLVStake         *float64
	FinPos           string
	DeclaredLegs     int
	ResolvedLegs     int
}

// Engine settles bets under a fixed set of place terms
type Engine struct {
	terms PlaceTerms
}

// NewEngine creates a settlement engine
func NewEngine(terms PlaceTerms) *Engine {
	return &Engine{terms: terms}
}

var defaultEngine = NewEngine(DefaultPlaceTerms())

// Settle settles bet with the default place terms
func Settle(bet *models.Bet, legs []*models.Runner) (*Settlement, error) {
	return defaultEngine.Settle(bet, legs)
}

// Settle computes the outcome of bet. legs is aligned with the bet's declared
// selections; nil entries are legs the matcher could not resolve.
func (e *Engine) Settle(bet *models.Bet, legs []*models.Runner) (*Settlement, error) {
	declared := bet.DeclaredLegs()
	if declared < len(legs) {
		declared = len(legs)
	}

	resolved := make([]*models.Runner, 0, len(legs))
	for _, r := range legs {
		if r != nil {
			resolved = append(resolved, r)
		}
	}
	if len(resolved) == 0 {
		return nil, ErrNoRunners
	}

	s := &Settlement{
		BetID:        bet.ID,
		FinPos:       finPos(legs, declared),
		DeclaredLegs: declared,
		ResolvedLegs: len(resolved),
	}

	stake := decimal.NewFromFloat(bet.Stake)
	odds := decimal.NewFromFloat(bet.Odds)

	if len(resolved) < declared {
		s.Status = models.BetStatusPartialUpdate
		s.setMoney(decimal.Zero, stake)
		return s, nil
	}

	var returns decimal.Decimal
	if declared == 1 {
		s.Status, returns = settleSingle(bet, resolved[0], stake, odds)
		s.SPIndustry = copyFloat(resolved[0].SP)
		s.OvrBtn = copyFloat(resolved[0].OvrBtn)
	} else {
		s.Status, returns = e.settleMultiple(bet, resolved, stake, odds)
		s.SPIndustry = productSP(resolved)
		s.OvrBtn = meanOvrBtn(resolved)
	}
	s.setMoney(returns, stake)
	s.ClosingLineValue, s.CLVStake = closingLineValue(odds, stake, bsp(resolved))

	return s, nil
}

func settleSingle(bet *models.Bet, r *models.Runner, stake, odds decimal.Decimal) (models.BetStatus, decimal.Decimal) {
	switch {
	case r.IsVoid():
		return models.BetStatusVoid, stake
	case r.Position.IsWinner():
		return models.BetStatusWon, stake.Mul(odds)
	case bet.EachWay && r.Position.Rank > 0 && r.Position.Rank <= PlacesPaid(r.TotalRunners):
		place := placeOdds(odds, PlaceFraction(r.TotalRunners))
		return models.BetStatusPlaced, stake.Div(two).Mul(place)
	default:
		return models.BetStatusLost, decimal.Zero
	}
}

func (e *Engine) settleMultiple(bet *models.Bet, legs []*models.Runner, stake, odds decimal.Decimal) (models.BetStatus, decimal.Decimal) {
	declared := len(legs)
	voids, winners := 0, 0
	for _, r := range legs {
		switch {
		case r.IsVoid():
			voids++
		case r.Position.IsWinner():
			winners++
		}
	}
	nonVoid := declared - voids

	switch {
	case voids == declared:
		return models.BetStatusVoid, stake
	case voids > 0 && winners == nonVoid:
		share := decimal.NewFromInt(int64(nonVoid)).Div(decimal.NewFromInt(int64(declared)))
		adjusted := one.Add(odds.Sub(one).Mul(share))
		return models.BetStatusWonWithVoid, stake.Mul(adjusted)
	case voids > 0 || winners < declared:
		return models.BetStatusLost, decimal.Zero
	}

	fallback := odds.Div(decimal.NewFromInt(int64(declared)))
	winOdds, placeOddsProduct := one, one
	for _, r := range legs {
		legOdds := fallback
		if r.SP != nil {
			legOdds = decimal.NewFromFloat(*r.SP)
		}
		winOdds = winOdds.Mul(legOdds)
		placeOddsProduct = placeOddsProduct.Mul(placeOdds(legOdds, e.terms.MultipleFraction))
	}

	if !bet.EachWay {
		return models.BetStatusWon, stake.Mul(winOdds)
	}

	half := stake.Div(two)
	return models.BetStatusWon, half.Mul(winOdds).Add(half.Mul(placeOddsProduct))
}

func (s *Settlement) setMoney(returns, stake decimal.Decimal) {
	returns = returns.Round(moneyPlaces)
	s.Returns = returns.InexactFloat64()
	s.ProfitLoss = returns.Sub(stake).Round(moneyPlaces).InexactFloat64()
}

// closingLineValue returns the percentage edge of odds over bsp and its stake-weighted value
func closingLineValue(odds, stake decimal.Decimal, bsp *float64) (*float64, *float64) {
	if bsp == nil || *bsp <= 0 || math.IsNaN(*bsp) || math.IsInf(*bsp, 0) {
		return nil, nil
	}

	clv := odds.Div(decimal.NewFromFloat(*bsp)).Sub(one).Mul(hundred).Round(moneyPlaces)
	clvStake := clv.Mul(stake).Div(hundred).Round(moneyPlaces)

	c, cs := clv.InexactFloat64(), clvStake.InexactFloat64()
	return &c, &cs
}

// bsp returns the single leg's bsp or the product of every leg's bsp
func bsp(legs []*models.Runner) *float64 {
	product := one
	for _, r := range legs {
		if r.BSP == nil || *r.BSP <= 0 {
			return nil
		}
		product = product.Mul(decimal.NewFromFloat(*r.BSP))
	}
	v := product.InexactFloat64()
	return &v
}

func productSP(legs []*models.Runner) *float64 {
	product := one
	for _, r := range legs {
		if r.SP == nil {
			return nil
		}
		product = product.Mul(decimal.NewFromFloat(*r.SP))
	}
	v := product.InexactFloat64()
	return &v
}

// meanOvrBtn averages the beaten distance over legs that report one
func meanOvrBtn(legs []*models.Runner) *float64 {
	sum, n := decimal.Zero, 0
	for _, r := range legs {
		if r.OvrBtn == nil {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(*r.OvrBtn))
		n++
	}
	if n == 0 {
		return nil
	}
	v := sum.Div(decimal.NewFromInt(int64(n))).InexactFloat64()
	return &v
}

func finPos(legs []*models.Runner, declared int) string {
	parts := make([]string, declared)
	for i := range parts {
		parts[i] = unresolvedFinPos
		if i < len(legs) && legs[i] != nil && legs[i].Position.Raw != "" {
			parts[i] = legs[i].Position.Raw
		}
	}
	return strings.Join(parts, finPosSeparator)
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
