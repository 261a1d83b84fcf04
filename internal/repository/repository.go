package repository

import (
	"fmt"

	"github.com/yourusername/race-reconciler/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Bets    BetStore
	Courses CourseRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB, betsTable string) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Bets:    NewPostgresBetRepository(db, betsTable),
		Courses: NewPostgresCourseRepository(db),
	}, nil
}
