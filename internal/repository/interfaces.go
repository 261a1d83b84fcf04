package repository

import (
	"context"
	"time"

	"github.com/yourusername/race-reconciler/internal/models"
	"github.com/yourusername/race-reconciler/internal/track"
)

// BetFilter narrows the unsettled bets returned by the store
type BetFilter struct {
	// RaceDate limits the result to bets on one race date
	RaceDate *time.Time
	// Since limits the result to bets on or after a race date
	Since *time.Time
}

// BetStore defines the bet data access the reconciler needs
type BetStore interface {
	GetUnsettled(ctx context.Context, filter BetFilter) ([]*models.Bet, error)
	UpdateSettlement(ctx context.Context, betID string, fields map[string]any) error
}

// CourseRepository defines the interface for the course reference table
type CourseRepository interface {
	ListCourses(ctx context.Context) ([]track.Course, error)
}
