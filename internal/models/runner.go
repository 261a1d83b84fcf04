package models

import (
	"strconv"
	"strings"
	"time"
)

// voidTokens are provider placeholders meaning the runner took no part in the result
var voidTokens = map[string]bool{
	"nr":   true,
	"ns":   true,
	"rr":   true,
	"void": true,
	"-":    true,
}

// IsVoidToken reports whether s is a non-runner/void placeholder (case-insensitive)
func IsVoidToken(s string) bool {
	return voidTokens[strings.ToLower(strings.TrimSpace(s))]
}

// Position is a runner's finishing position as reported by the provider
type Position struct {
	Rank int    // 1-based finishing rank, 0 when unplaced or unknown
	Void bool   // non-runner, withdrawn or otherwise voided
	Raw  string // provider text, rendered verbatim in fin_pos
}

// ParsePosition interprets a provider position value. Ordinal suffixes ("1st") are
// accepted; non-numeric finishing codes such as "PU" or "F" yield an unplaced position.
func ParsePosition(raw string) Position {
	trimmed := strings.TrimSpace(raw)
	if IsVoidToken(trimmed) {
		return Position{Void: true, Raw: strings.ToUpper(trimmed)}
	}

	digits := strings.TrimRight(strings.ToLower(trimmed), "stndrh")
	if n, err := strconv.Atoi(digits); err == nil && n > 0 {
		return Position{Rank: n, Raw: trimmed}
	}
	if f, err := strconv.ParseFloat(digits, 64); err == nil && f >= 1 && f == float64(int(f)) {
		return Position{Rank: int(f), Raw: strconv.Itoa(int(f))}
	}

	return Position{Raw: trimmed}
}

// IsWinner checks if the runner finished first
func (p Position) IsWinner() bool {
	return !p.Void && p.Rank == 1
}

// String returns the raw provider text
func (p Position) String() string {
	return p.Raw
}

// Runner represents one horse's entry and result within a single race
type Runner struct {
	HorseName      string              `json:"horse_name"`
	TrackName      string              `json:"track_name"`
	RaceTime       string              `json:"race_time"`
	RaceDate       time.Time           `json:"race_date"`
	Position       Position            `json:"position"`
	SP             *float64            `json:"sp"`
	BSP            *float64            `json:"bsp"`
	OvrBtn         *float64            `json:"ovr_btn"`
	TotalRunners   int                 `json:"total_runners"`
	RaceID         string              `json:"race_id"`
	RaceName       string              `json:"race_name"`
	SimplifiedName string              `json:"simplified_name"`
	NameVariants   map[string]struct{} `json:"-"`
	Jockey         string              `json:"jockey"`
	Trainer        string              `json:"trainer"`
}

// IsVoid checks if the runner's outcome is void
func (r *Runner) IsVoid() bool {
	return r.Position.Void
}

// GetSP returns the starting price or 0 if nil
func (r *Runner) GetSP() float64 {
	if r.SP == nil {
		return 0
	}
	return *r.SP
}
