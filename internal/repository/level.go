package repository

import (
	"context"
	"fmt"

	"github.com/rpgsocial/platform/internal/domain"
)

type levelRepo struct{}

// NewLevelRepository returns a pgx-backed LevelRepository.
func NewLevelRepository() LevelRepository {
	return &levelRepo{}
}

// Seed upserts by level so re-seeding never duplicates rows.
func (r *levelRepo) Seed(ctx context.Context, db DBTX, defs []domain.LevelDefinition) error {
	for _, d := range defs {
		_, err := db.Exec(ctx, `
			INSERT INTO level_definitions (level, xp_required, tier, title, quote)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (level) DO UPDATE
			SET xp_required = EXCLUDED.xp_required,
			    tier = EXCLUDED.tier,
			    title = EXCLUDED.title,
			    quote = EXCLUDED.quote`,
			d.Level, d.XPRequired, d.Tier, d.Title, d.Quote)
		if err != nil {
			return fmt.Errorf("seed level %d: %w", d.Level, err)
		}
	}
	return nil
}

func (r *levelRepo) List(ctx context.Context, db DBTX) ([]domain.LevelDefinition, error) {
	rows, err := db.Query(ctx, `
		SELECT level, xp_required, tier, title, quote
		FROM level_definitions
		ORDER BY level ASC`)
	if err != nil {
		return nil, fmt.Errorf("query levels: %w", err)
	}
	defer rows.Close()

	var defs []domain.LevelDefinition
	for rows.Next() {
		var d domain.LevelDefinition
		if err := rows.Scan(&d.Level, &d.XPRequired, &d.Tier, &d.Title, &d.Quote); err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}
