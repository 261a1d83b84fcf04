package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRaceDate = time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

func newTestBet() *Bet {
	return &Bet{
		ID:        "42",
		HorseName: "Galopin Des Champs",
		TrackName: "Cheltenham",
		RaceDate:  testRaceDate,
		Stake:     10,
		Odds:      3.5,
		BetType:   BetTypeWin,
	}
}

func TestIsUnsettledStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"pending", true},
		{"PENDING", true},
		{" Open ", true},
		{"new", true},
		{"", true},
		{"Won", false},
		{"Partial Update", false},
		{"settled", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnsettledStatus(tt.status))
		})
	}
}

func TestBetLegsSingle(t *testing.T) {
	bet := newTestBet()

	legs, err := bet.Legs()
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, "Galopin Des Champs", legs[0].HorseName)
	assert.Equal(t, "Cheltenham", legs[0].TrackName)
	assert.False(t, bet.IsMultiple())
}

func TestBetLegsSharedTrack(t *testing.T) {
	bet := newTestBet()
	bet.HorseName = "Constitution Hill / State Man/ Lossiemouth"

	legs, err := bet.Legs()
	require.NoError(t, err)
	require.Len(t, legs, 3)
	for i, leg := range legs {
		assert.Equal(t, i, leg.Index)
		assert.Equal(t, "Cheltenham", leg.TrackName)
	}
	assert.Equal(t, "State Man", legs[1].HorseName)
	assert.Equal(t, 3, bet.DeclaredLegs())
}

func TestBetLegsPairedTracks(t *testing.T) {
	bet := newTestBet()
	bet.HorseName = "Frankel/Enable"
	bet.TrackName = "Newmarket/Ascot"

	legs, err := bet.Legs()
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, "Ascot", legs[1].TrackName)
}

func TestBetLegsCardinalityMismatch(t *testing.T) {
	bet := newTestBet()
	bet.HorseName = "A/B/C"
	bet.TrackName = "Ascot/York"

	_, err := bet.Legs()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedBet))
}

func TestBetValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Bet)
		valid  bool
	}{
		{"valid bet", func(b *Bet) {}, true},
		{"unset bet type", func(b *Bet) { b.BetType = BetTypeUnset }, true},
		{"missing horse", func(b *Bet) { b.HorseName = "" }, false},
		{"missing track", func(b *Bet) { b.TrackName = "" }, false},
		{"zero stake", func(b *Bet) { b.Stake = 0 }, false},
		{"odds below one", func(b *Bet) { b.Odds = 0.5 }, false},
		{"unknown bet type", func(b *Bet) { b.BetType = "forecast" }, false},
		{"missing race date", func(b *Bet) { b.RaceDate = time.Time{} }, false},
		{"separator only horse", func(b *Bet) { b.HorseName = " / " }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bet := newTestBet()
			tt.mutate(bet)

			err := bet.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedBet)
		})
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		raw    string
		rank   int
		void   bool
		winner bool
	}{
		{"1", 1, false, true},
		{"1st", 1, false, true},
		{"3rd", 3, false, false},
		{"12", 12, false, false},
		{"NR", 0, true, false},
		{"void", 0, true, false},
		{"-", 0, true, false},
		{"PU", 0, false, false},
		{"", 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			pos := ParsePosition(tt.raw)
			assert.Equal(t, tt.rank, pos.Rank)
			assert.Equal(t, tt.void, pos.Void)
			assert.Equal(t, tt.winner, pos.IsWinner())
		})
	}
}
