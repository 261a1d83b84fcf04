package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/race-reconciler/internal/database"
	"github.com/yourusername/race-reconciler/internal/models"
	"github.com/yourusername/race-reconciler/internal/settlement"
)

// settlementColumns are the only columns a settlement update may write
var settlementColumns = map[string]bool{
	settlement.FieldStatus:           true,
	settlement.FieldReturns:          true,
	settlement.FieldProfitLoss:       true,
	settlement.FieldSPIndustry:       true,
	settlement.FieldOvrBtn:           true,
	settlement.FieldClosingLineValue: true,
	settlement.FieldCLVStake:         true,
	settlement.FieldFinPos:           true,
}

const betColumns = `id::text, COALESCE(horse_name, ''), COALESCE(track_name, ''), race_date::timestamp,
		       COALESCE(stake, 0)::float8, COALESCE(odds, 0)::float8, COALESCE(bet_type, ''),
		       COALESCE(each_way, false), jockey, trainer, COALESCE(status, '')`

// PostgresBetRepository implements BetStore for PostgreSQL
type PostgresBetRepository struct {
	db    *database.DB
	table string
}

// NewPostgresBetRepository creates a new bet repository over table
func NewPostgresBetRepository(db *database.DB, table string) BetStore {
	return &PostgresBetRepository{db: db, table: table}
}

// GetUnsettled retrieves bets whose status is pending, open, new, empty or NULL
func (b *PostgresBetRepository) GetUnsettled(ctx context.Context, filter BetFilter) ([]*models.Bet, error) {
	query, args := buildUnsettledQuery(b.table, filter)

	rows, err := b.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsettled bets: %w", err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		bet := &models.Bet{}
		var betType string
		var raceDate *time.Time
		err := rows.Scan(
			&bet.ID, &bet.HorseName, &bet.TrackName, &raceDate, &bet.Stake, &bet.Odds,
			&betType, &bet.EachWay, &bet.Jockey, &bet.Trainer, &bet.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bet.BetType = models.BetType(strings.ToLower(strings.TrimSpace(betType)))
		if raceDate != nil {
			bet.RaceDate = *raceDate
		}
		bets = append(bets, bet)
	}

	return bets, rows.Err()
}

// UpdateSettlement writes the settlement fields of one bet
func (b *PostgresBetRepository) UpdateSettlement(ctx context.Context, betID string, fields map[string]any) error {
	query, args, err := buildSettlementUpdate(b.table, betID, fields)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	tag, err := b.db.GetPool().Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: bet %s: %v", models.ErrPersistence, betID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: bet %s", models.ErrNotFound, betID)
	}

	return nil
}

// buildUnsettledQuery renders the unsettled-bets query for table
func buildUnsettledQuery(table string, filter BetFilter) (string, []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s\n\t\tFROM %s\n\t\tWHERE (status IS NULL OR LOWER(TRIM(status)) IN ('pending', 'open', 'new', ''))", betColumns, table)

	var args []any
	if filter.RaceDate != nil {
		args = append(args, filter.RaceDate.Format("2006-01-02"))
		fmt.Fprintf(&b, "\n\t\t  AND race_date::date = $%d::date", len(args))
	}
	if filter.Since != nil {
		args = append(args, filter.Since.Format("2006-01-02"))
		fmt.Fprintf(&b, "\n\t\t  AND race_date::date >= $%d::date", len(args))
	}
	b.WriteString("\n\t\tORDER BY race_date, id")

	return b.String(), args
}

// buildSettlementUpdate renders an UPDATE for the given fields in sorted column order
func buildSettlementUpdate(table, betID string, fields map[string]any) (string, []any, error) {
	if betID == "" {
		return "", nil, fmt.Errorf("bet id is required")
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("no settlement fields for bet %s", betID)
	}

	columns := make([]string, 0, len(fields))
	for col := range fields {
		if !settlementColumns[col] {
			return "", nil, fmt.Errorf("column %q is not a settlement field", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	sets := make([]string, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, col := range columns {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, fields[col])
	}
	args = append(args, betID)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id::text = $%d", table, strings.Join(sets, ", "), len(args))
	return query, args, nil
}
