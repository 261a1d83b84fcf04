package models

import (
	"fmt"
	"strings"
	"time"
)

// BetType represents the market a bet was struck on
type BetType string

const (
	BetTypeWin   BetType = "win"
	BetTypePlace BetType = "place"
	BetTypeUnset BetType = ""
)

// BetStatus represents the settlement status written back to the bet store
type BetStatus string

const (
	BetStatusPending       BetStatus = "Pending"
	BetStatusWon           BetStatus = "Won"
	BetStatusLost          BetStatus = "Lost"
	BetStatusPlaced        BetStatus = "Placed"
	BetStatusVoid          BetStatus = "Void"
	BetStatusWonWithVoid   BetStatus = "Won (With Void)"
	BetStatusPartialUpdate BetStatus = "Partial Update"
)

// SelectionSeparator joins horse and track names of multiple bets
const SelectionSeparator = "/"

// unsettledStatuses are the lower-cased statuses that mark a bet as awaiting settlement
var unsettledStatuses = map[string]bool{
	"pending": true,
	"open":    true,
	"new":     true,
	"":        true,
}

// Bet represents a wager awaiting settlement
type Bet struct {
	ID        string    `db:"id" json:"id" validate:"required"`
	HorseName string    `db:"horse_name" json:"horse_name" validate:"required"`
	TrackName string    `db:"track_name" json:"track_name" validate:"required"`
	RaceDate  time.Time `db:"race_date" json:"race_date"`
	Stake     float64   `db:"stake" json:"stake" validate:"gt=0"`
	Odds      float64   `db:"odds" json:"odds" validate:"gte=1"`
	BetType   BetType   `db:"bet_type" json:"bet_type" validate:"omitempty,oneof=win place"`
	EachWay   bool      `db:"each_way" json:"each_way"`
	Jockey    *string   `db:"jockey" json:"jockey,omitempty"`
	Trainer   *string   `db:"trainer" json:"trainer,omitempty"`
	Status    string    `db:"status" json:"status"`

	// Settlement output fields
	Returns          *float64 `db:"returns" json:"returns,omitempty"`
	ProfitLoss       *float64 `db:"profit_loss" json:"profit_loss,omitempty"`
	SPIndustry       *float64 `db:"sp_industry" json:"sp_industry,omitempty"`
	OvrBtn           *float64 `db:"ovr_btn" json:"ovr_btn,omitempty"`
	ClosingLineValue *float64 `db:"closing_line_value" json:"closing_line_value,omitempty"`
	CLVStake         *float64 `db:"clv_stake" json:"clv_stake,omitempty"`
	FinPos           *string  `db:"fin_pos" json:"fin_pos,omitempty"`
}

// Leg is one declared selection of a bet
type Leg struct {
	Index     int
	HorseName string
	TrackName string
	RaceDate  time.Time
}

// IsUnsettledStatus reports whether a stored status still needs settlement
func IsUnsettledStatus(status string) bool {
	return unsettledStatuses[strings.ToLower(strings.TrimSpace(status))]
}

// IsUnsettled checks if the bet is awaiting settlement
func (b *Bet) IsUnsettled() bool {
	return IsUnsettledStatus(b.Status)
}

// IsMultiple checks if the bet declares more than one selection
func (b *Bet) IsMultiple() bool {
	return b.DeclaredLegs() > 1
}

// DeclaredLegs returns the number of "/"-separated selections
func (b *Bet) DeclaredLegs() int {
	return len(splitSelections(b.HorseName))
}

// Legs splits the bet into its declared selections. Track names must either match the
// horse names one-to-one or be a single value shared by every leg.
func (b *Bet) Legs() ([]Leg, error) {
	horses := splitSelections(b.HorseName)
	if len(horses) == 0 {
		return nil, fmt.Errorf("%w: bet %s has no horse name", ErrMalformedBet, b.ID)
	}

	tracks := splitSelections(b.TrackName)
	switch {
	case len(tracks) == 0:
		return nil, fmt.Errorf("%w: bet %s has no track name", ErrMalformedBet, b.ID)
	case len(tracks) != 1 && len(tracks) != len(horses):
		return nil, fmt.Errorf("%w: bet %s declares %d horses but %d tracks",
			ErrMalformedBet, b.ID, len(horses), len(tracks))
	}

	legs := make([]Leg, len(horses))
	for i, horse := range horses {
		track := tracks[0]
		if len(tracks) > 1 {
			track = tracks[i]
		}
		legs[i] = Leg{
			Index:     i,
			HorseName: horse,
			TrackName: track,
			RaceDate:  b.RaceDate,
		}
	}

	return legs, nil
}

// JockeyName returns the jockey text or empty string if nil
func (b *Bet) JockeyName() string {
	if b.Jockey == nil {
		return ""
	}
	return *b.Jockey
}

// TrainerName returns the trainer text or empty string if nil
func (b *Bet) TrainerName() string {
	if b.Trainer == nil {
		return ""
	}
	return *b.Trainer
}

// splitSelections splits on the selection separator, dropping blank parts
func splitSelections(s string) []string {
	parts := strings.Split(s, SelectionSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
