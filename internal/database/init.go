package database

import (
	"context"
	"fmt"

	"github.com/yourusername/race-reconciler/internal/config"
)

// Initialize creates a database connection pool and verifies the bets table exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	var exists bool
	err = db.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", cfg.Database.BetsTable).Scan(&exists)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check bets table: %w", err)
	}
	if !exists {
		db.Close()
		return nil, fmt.Errorf("bets table %q not found; apply the migrations in migrations/", cfg.Database.BetsTable)
	}

	return db, nil
}
