package results

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/yourusername/race-reconciler/internal/models"
)

// ParseNumeric coerces a provider value to a float. Placeholder tokens (nr, ns, rr,
// void, -), empty values and anything unparseable yield nil.
func ParseNumeric(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f = t
	case int:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" || models.IsVoidToken(s) {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ParseFractional converts traditional odds ("5/2", "Evs", "11/4F") to decimal odds
func ParseFractional(v any) *float64 {
	s, ok := v.(string)
	if !ok {
		return nil
	}

	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, "fjc")
	switch s {
	case "":
		return nil
	case "evs", "evens", "ev", "even":
		d := 2.0
		return &d
	}

	num, den, found := strings.Cut(s, "/")
	if !found {
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return nil
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d <= 0 || n < 0 {
		return nil
	}

	dec := n/d + 1
	return &dec
}
