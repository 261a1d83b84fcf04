package service

import (
	"context"
	"fmt"

	"github.com/yourusername/race-reconciler/internal/config"
	"github.com/yourusername/race-reconciler/internal/repository"
	"github.com/yourusername/race-reconciler/internal/track"
)

// LoadReferenceTable loads the course reference table from the configured source
func LoadReferenceTable(ctx context.Context, cfg config.ReferenceConfig, courses repository.CourseRepository) (*track.ReferenceTable, error) {
	switch cfg.Source {
	case "file":
		return track.LoadReferenceFile(cfg.Path)
	case "database":
		if courses == nil {
			return nil, fmt.Errorf("course repository is required for a database reference table")
		}
		list, err := courses.ListCourses(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load courses: %w", err)
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("courses table is empty")
		}
		return track.NewReferenceTable(list), nil
	default:
		return nil, fmt.Errorf("unknown reference source: %s", cfg.Source)
	}
}
