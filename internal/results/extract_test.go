package results

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-reconciler/internal/models"
)

var raceDay = time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

const envelopePayload = `{
  "results": [
    {
      "race_id": "r1",
      "course": "Kempton (AW)",
      "date": "2024-03-12",
      "off": "14:10",
      "race_name": "Novice Stakes",
      "runners": [
        {"horse": "Sea The Stars (IRE)", "position": "1", "sp": "5/2", "bsp": "3.6", "ovr_btn": "0", "jockey": "M Kinane", "trainer": "J Oxx"},
        {"horse": "Enable (GB)", "position": "2", "sp_dec": 4.5, "sp": "7/2", "ovr_beaten": 1.25},
        {"horse": "Shergar", "position": "NR", "sp": "-"}
      ]
    },
    {
      "race_id": "r2",
      "course": "Ascot",
      "date": "2024-03-12",
      "runners": [
        {"horse": "Frankel", "position": "1"}
      ]
    }
  ]
}`

func decode(t *testing.T, s string) *Payload {
	t.Helper()
	p, err := DecodePayload([]byte(s))
	require.NoError(t, err)
	return p
}

func TestDecodePayloadKinds(t *testing.T) {
	tests := []struct {
		name string
		body string
		want PayloadKind
	}{
		{"envelope", envelopePayload, PayloadResultsEnvelope},
		{"race list", `[{"course": "Ascot", "runners": [{"horse": "Frankel", "pos": 1}]}]`, PayloadRaceList},
		{"single race", `{"course": "Ascot", "results": [{"horse": "Frankel", "pos": 1}]}`, PayloadSingleRace},
		{"unknown", `{"meetings": {"ascot": {"card": [{"horse": "Frankel", "pos": 1}]}}}`, PayloadUnknown},
		{"scalar", `42`, PayloadUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decode(t, tt.body).Kind)
		})
	}
}

func TestDecodePayloadInvalid(t *testing.T) {
	_, err := DecodePayload([]byte(`{"results": [`))
	assert.Error(t, err)
}

func TestExtractEnvelope(t *testing.T) {
	runners := Extract("Kempton Park", raceDay, decode(t, envelopePayload))
	require.Len(t, runners, 3)

	winner := runners[0]
	assert.Equal(t, "Sea The Stars (IRE)", winner.HorseName)
	assert.Equal(t, "Kempton (AW)", winner.TrackName)
	assert.Equal(t, "r1", winner.RaceID)
	assert.Equal(t, "14:10", winner.RaceTime)
	assert.Equal(t, "Novice Stakes", winner.RaceName)
	assert.True(t, winner.Position.IsWinner())
	require.NotNil(t, winner.SP)
	assert.InDelta(t, 3.5, *winner.SP, 1e-9)
	require.NotNil(t, winner.BSP)
	assert.InDelta(t, 3.6, *winner.BSP, 1e-9)
	assert.Equal(t, "M Kinane", winner.Jockey)
	assert.Equal(t, "seathestarsire", winner.SimplifiedName)
	assert.Contains(t, winner.NameVariants, "sea the stars")

	second := runners[1]
	require.NotNil(t, second.SP)
	assert.InDelta(t, 4.5, *second.SP, 1e-9, "sp_dec takes priority over sp")
	require.NotNil(t, second.OvrBtn)
	assert.InDelta(t, 1.25, *second.OvrBtn, 1e-9)

	nonRunner := runners[2]
	assert.True(t, nonRunner.IsVoid())
	assert.Equal(t, "NR", nonRunner.Position.String())
	assert.Nil(t, nonRunner.SP)

	for _, r := range runners {
		assert.Equal(t, 2, r.TotalRunners, "non-runners are excluded from the field size")
	}
}

func TestExtractFiltersOtherDates(t *testing.T) {
	runners := Extract("Kempton Park", raceDay.AddDate(0, 0, 1), decode(t, envelopePayload))
	assert.Empty(t, runners)
}

func TestExtractSimilarCourseName(t *testing.T) {
	body := `[{"course": "Wolverhampton", "runners": [{"horse": "Frankel", "pos": 1}]}]`
	runners := Extract("Wolverhamptn", raceDay, decode(t, body))
	require.Len(t, runners, 1)
	assert.Equal(t, 1, runners[0].TotalRunners)
}

func TestExtractFallbackWalk(t *testing.T) {
	body := `{
	  "data": {
	    "meeting": {
	      "course": "Cheltenham",
	      "cards": [
	        {"race_id": "c1", "off_time": "13:30", "entries": [
	          {"runner_name": "Denman", "finish_position": "1st", "betfair_sp": "4.2"},
	          {"runner_name": "Kauto Star", "finish_position": "2nd"}
	        ]},
	        {"race_id": "c2", "entries": [
	          {"runner_name": "Best Mate", "finish_position": "PU"}
	        ]}
	      ]
	    },
	    "other": {
	      "course": "Ayr",
	      "entries": [{"runner_name": "Red Rum", "finish_position": 1}]
	    }
	  }
	}`

	p := decode(t, body)
	assert.Equal(t, PayloadUnknown, p.Kind)

	runners := Extract("Cheltenham", raceDay, p)
	require.Len(t, runners, 3)

	byName := make(map[string]models.Runner)
	for _, r := range runners {
		byName[r.HorseName] = r
	}

	denman := byName["Denman"]
	assert.Equal(t, "c1", denman.RaceID)
	assert.Equal(t, "13:30", denman.RaceTime)
	assert.Equal(t, "Cheltenham", denman.TrackName)
	assert.True(t, denman.Position.IsWinner())
	require.NotNil(t, denman.BSP)
	assert.InDelta(t, 4.2, *denman.BSP, 1e-9)
	assert.Equal(t, 2, denman.TotalRunners)

	bestMate := byName["Best Mate"]
	assert.Equal(t, "c2", bestMate.RaceID)
	assert.Empty(t, bestMate.RaceTime, "context does not leak between sibling races")
	assert.Equal(t, 0, bestMate.Position.Rank)
	assert.Equal(t, 1, bestMate.TotalRunners)

	_, found := byName["Red Rum"]
	assert.False(t, found)
}

func TestExtractFallbackOnlyWhenPrimaryEmpty(t *testing.T) {
	// the primary path finds Ascot so the stray runner under "extra" is never walked
	body := `{"results": [{"course": "Ascot", "runners": [{"horse": "Frankel", "pos": 1}]}],
	          "extra": {"horse": "Stray", "pos": 1}}`
	runners := Extract("Ascot", raceDay, decode(t, body))
	require.Len(t, runners, 1)
	assert.Equal(t, "Frankel", runners[0].HorseName)
}

func TestExtractIsDeterministic(t *testing.T) {
	body := `{"b": {"course": "Ascot", "list": [{"horse": "B", "pos": 2}]},
	          "a": {"course": "Ascot", "list": [{"horse": "A", "pos": 1}]}}`
	p := decode(t, body)

	first := Extract("Ascot", raceDay, p)
	second := Extract("Ascot", raceDay, p)
	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Equal(t, "A", first[0].HorseName)
}

func TestExtractNilPayload(t *testing.T) {
	assert.Nil(t, Extract("Ascot", raceDay, nil))
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{"nil", nil, nil},
		{"empty", "", nil},
		{"blank", "  ", nil},
		{"non runner", "NR", nil},
		{"non starter", "ns", nil},
		{"refused", "Rr", nil},
		{"void", "VOID", nil},
		{"dash", "-", nil},
		{"garbage", "abc", nil},
		{"bool", true, nil},
		{"string", "3.5", ptr(3.5)},
		{"padded", " 12 ", ptr(12)},
		{"float", 2.25, ptr(2.25)},
		{"int", 7, ptr(7)},
		{"json number", json.Number("4.75"), ptr(4.75)},
		{"nan", "NaN", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNumeric(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestParseFractional(t *testing.T) {
	tests := []struct {
		in   any
		want *float64
	}{
		{"5/2", ptr(3.5)},
		{"11/4F", ptr(3.75)},
		{"2/1JF", ptr(3)},
		{"Evs", ptr(2)},
		{"evens", ptr(2)},
		{"1/0", nil},
		{"x/2", nil},
		{"4.5", nil},
		{"", nil},
		{3.0, nil},
	}

	for _, tt := range tests {
		got := ParseFractional(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, "ParseFractional(%v)", tt.in)
			continue
		}
		require.NotNil(t, got, "ParseFractional(%v)", tt.in)
		assert.InDelta(t, *tt.want, *got, 1e-9)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("ascot", "ascot"))
	assert.InDelta(t, 0.8, Similarity("ascot", "ascon"), 1e-9)
	assert.Less(t, Similarity("ascot", "york"), MinCourseSimilarity)
}

func ptr(f float64) *float64 {
	return &f
}

func TestExtractAnyMatchesAnyCourseName(t *testing.T) {
	body := `{"results": [{"course": "Wolverhampton (AW)", "date": "2024-03-12",
		"runners": [{"horse": "Frankel", "position": "1"}, {"horse": "Kingman", "position": "2"}]}]}`
	p := decode(t, body)

	assert.Empty(t, Extract("Wolves", raceDay, p))

	runners := ExtractAny([]string{"wolverhampton", "Wolves"}, raceDay, p)
	require.Len(t, runners, 2)
	assert.Equal(t, "Wolverhampton (AW)", runners[0].TrackName)

	assert.Nil(t, ExtractAny(nil, raceDay, p))
}

func TestExtractAnyWalkUsesFirstNameForUnnamedRaces(t *testing.T) {
	p := decode(t, `{"meetings": {"card": [{"horse": "Frankel", "pos": 1}]}}`)

	runners := ExtractAny([]string{"wolverhampton", "Wolves"}, raceDay, p)
	require.Len(t, runners, 1)
	assert.Equal(t, "wolverhampton", runners[0].TrackName)
}
