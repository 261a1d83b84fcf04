package settlement

import (
	"math"

	"github.com/yourusername/race-reconciler/internal/models"
)

// Bet store column names for the settlement output
const (
	FieldStatus           = "status"
	FieldReturns          = "returns"
	FieldProfitLoss       = "profit_loss"
	FieldSPIndustry       = "sp_industry"
	FieldOvrBtn           = "ovr_btn"
	FieldClosingLineValue = "closing_line_value"
	FieldCLVStake         = "clv_stake"
	FieldFinPos           = "fin_pos"
)

// Fields returns the bet store update for this settlement. Null and non-finite values
// are omitted rather than written.
func (s *Settlement) Fields() map[string]any {
	fields := map[string]any{
		FieldStatus: string(s.Status),
	}

	putFinite(fields, FieldReturns, &s.Returns)
	putFinite(fields, FieldProfitLoss, &s.ProfitLoss)
	putFinite(fields, FieldSPIndustry, s.SPIndustry)
	putFinite(fields, FieldOvrBtn, s.OvrBtn)
	putFinite(fields, FieldClosingLineValue, s.ClosingLineValue)
	putFinite(fields, FieldCLVStake, s.CLVStake)

	if s.FinPos != "" {
		fields[FieldFinPos] = s.FinPos
	}

	return fields
}

// Apply copies the settlement onto bet's output fields
func (s *Settlement) Apply(bet *models.Bet) {
	bet.Status = string(s.Status)
	bet.Returns = finite(&s.Returns)
	bet.ProfitLoss = finite(&s.ProfitLoss)
	bet.SPIndustry = finite(s.SPIndustry)
	bet.OvrBtn = finite(s.OvrBtn)
	bet.ClosingLineValue = finite(s.ClosingLineValue)
	bet.CLVStake = finite(s.CLVStake)
	if s.FinPos != "" {
		finPos := s.FinPos
		bet.FinPos = &finPos
	}
}

func putFinite(fields map[string]any, name string, v *float64) {
	if f := finite(v); f != nil {
		fields[name] = *f
	}
}

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	f := *v
	return &f
}
