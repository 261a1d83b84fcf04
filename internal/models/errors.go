package models

import "errors"

// Reconciliation error taxonomy
var (
	// ErrDataUnavailable indicates no runners are indexed for a track/date
	ErrDataUnavailable = errors.New("no result data for track and date")

	// ErrUnresolvedLeg indicates the matcher found no runner for a bet leg
	ErrUnresolvedLeg = errors.New("bet leg could not be matched to a runner")

	// ErrMalformedBet indicates a bet is missing or has invalid required fields
	ErrMalformedBet = errors.New("malformed bet")

	// ErrPersistence indicates the bet store rejected a settlement update
	ErrPersistence = errors.New("failed to persist settlement")

	ErrNotFound = errors.New("record not found")
)
