// Package results flattens results-provider payloads into runner records and
// holds the per-run (course, date) runner index.
package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PayloadKind identifies the shape of a decoded provider payload
type PayloadKind int

const (
	// PayloadUnknown is any shape without a recognisable races collection
	PayloadUnknown PayloadKind = iota
	// PayloadResultsEnvelope is an object carrying a races array under "results" or "races"
	PayloadResultsEnvelope
	// PayloadRaceList is a top-level array of races
	PayloadRaceList
	// PayloadSingleRace is one race object with its runners
	PayloadSingleRace
)

// String returns the kind name used in logs
func (k PayloadKind) String() string {
	switch k {
	case PayloadResultsEnvelope:
		return "results_envelope"
	case PayloadRaceList:
		return "race_list"
	case PayloadSingleRace:
		return "single_race"
	default:
		return "unknown"
	}
}

// Field aliases seen across provider endpoints, in lookup priority order
var (
	courseFields   = []string{"course", "course_name", "track", "venue", "meeting"}
	raceIDFields   = []string{"race_id", "id"}
	offFields      = []string{"off", "time", "off_time", "race_time"}
	raceNameFields = []string{"race_name", "title", "name"}
	raceDateFields = []string{"date", "race_date", "meeting_date"}
	runnersFields  = []string{"runners", "results", "horses"}
	envelopeFields = []string{"results", "races"}

	horseFields    = []string{"horse", "horse_name", "name", "runner_name", "selection_name"}
	positionFields = []string{"position", "pos", "finish_position", "place"}
	spDecFields    = []string{"sp_dec", "sp_decimal"}
	spFields       = []string{"sp", "starting_price"}
	bspFields      = []string{"bsp", "betfair_sp"}
	ovrBtnFields   = []string{"ovr_btn", "ovr_beaten"}
	jockeyFields   = []string{"jockey", "jockey_name"}
	trainerFields  = []string{"trainer", "trainer_name"}
)

// RaceRecord is one race located by the statically shaped decode path
type RaceRecord struct {
	Course  string
	RaceID  string
	Off     string
	Name    string
	Date    string
	Runners []map[string]any
}

// Payload is a decoded provider response
type Payload struct {
	Kind  PayloadKind
	Races []RaceRecord
	Raw   any
}

// DecodePayload parses a raw provider response and classifies its shape
func DecodePayload(data []byte) (*Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode results payload: %w", err)
	}

	return Classify(raw), nil
}

// Classify sorts an already decoded document into one of the known payload kinds
func Classify(raw any) *Payload {
	p := &Payload{Kind: PayloadUnknown, Raw: raw}

	switch v := raw.(type) {
	case map[string]any:
		if races, ok := raceArray(v); ok {
			p.Kind = PayloadResultsEnvelope
			p.Races = races
			return p
		}
		if race, ok := toRaceRecord(v); ok {
			p.Kind = PayloadSingleRace
			p.Races = []RaceRecord{race}
		}
	case []any:
		races := make([]RaceRecord, 0, len(v))
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if race, ok := toRaceRecord(obj); ok {
				races = append(races, race)
			}
		}
		if len(races) > 0 {
			p.Kind = PayloadRaceList
			p.Races = races
		}
	}

	return p
}

// raceArray finds an envelope key holding an array of race objects
func raceArray(obj map[string]any) ([]RaceRecord, bool) {
	for _, key := range envelopeFields {
		items, ok := obj[key].([]any)
		if !ok {
			continue
		}
		races := make([]RaceRecord, 0, len(items))
		for _, item := range items {
			raceObj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if race, ok := toRaceRecord(raceObj); ok {
				races = append(races, race)
			}
		}
		if len(races) > 0 {
			return races, true
		}
	}
	return nil, false
}

// toRaceRecord accepts an object carrying a runners array
func toRaceRecord(obj map[string]any) (RaceRecord, bool) {
	for _, key := range runnersFields {
		items, ok := obj[key].([]any)
		if !ok {
			continue
		}
		runners := make([]map[string]any, 0, len(items))
		for _, item := range items {
			if r, ok := item.(map[string]any); ok && isRunnerObject(r) {
				runners = append(runners, r)
			}
		}
		if len(runners) == 0 {
			continue
		}
		return RaceRecord{
			Course:  firstString(obj, courseFields),
			RaceID:  firstString(obj, raceIDFields),
			Off:     firstString(obj, offFields),
			Name:    firstString(obj, raceNameFields),
			Date:    firstString(obj, raceDateFields),
			Runners: runners,
		}, true
	}
	return RaceRecord{}, false
}

// isRunnerObject reports whether obj has both a name-like and a position-like field
func isRunnerObject(obj map[string]any) bool {
	return firstString(obj, horseFields) != "" && hasAny(obj, positionFields)
}

func hasAny(obj map[string]any, keys []string) bool {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return true
		}
	}
	return false
}

// firstString returns the first alias whose value renders as non-empty text
func firstString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		if s := stringify(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstValue(obj map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
				continue
			}
			return v
		}
	}
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return fmt.Sprintf("%g", t)
	case int:
		return fmt.Sprintf("%d", t)
	default:
		return ""
	}
}
