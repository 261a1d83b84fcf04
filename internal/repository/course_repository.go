package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/race-reconciler/internal/database"
	"github.com/yourusername/race-reconciler/internal/track"
)

// PostgresCourseRepository implements CourseRepository for PostgreSQL
type PostgresCourseRepository struct {
	db *database.DB
}

// NewPostgresCourseRepository creates a new course repository
func NewPostgresCourseRepository(db *database.DB) CourseRepository {
	return &PostgresCourseRepository{db: db}
}

// ListCourses returns every course ordered by name
func (r *PostgresCourseRepository) ListCourses(ctx context.Context) ([]track.Course, error) {
	query := `SELECT name, course_id::text FROM courses ORDER BY name`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []track.Course
	for rows.Next() {
		var c track.Course
		if err := rows.Scan(&c.Name, &c.ID); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}

	return courses, rows.Err()
}
