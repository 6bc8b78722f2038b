package store

import (
	"context"
	"fmt"
	"time"

	"lifeshare/internal/utils"
	"lifeshare/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const siteConfigTableName = "lifeshare.site_config"

// The table holds a single row.
const siteConfigRowID = 1

var siteConfigColumns = utils.StructTagValues(types.SiteConfig{})

type SiteConfigRepository struct {
	pool *pgxpool.Pool
}

func NewSiteConfigRepository(pool *pgxpool.Pool) *SiteConfigRepository {
	return &SiteConfigRepository{pool: pool}
}

// SiteConfig returns the site configuration, creating the row with defaults
// on first read.
func (r *SiteConfigRepository) SiteConfig(ctx context.Context) (*types.SiteConfig, error) {
	defaults := types.DefaultSiteConfig()
	defaults.UpdatedAt = time.Now()

	row := utils.StructToMap(defaults)
	row["id"] = siteConfigRowID

	insert, args, err := psql().
		Insert(siteConfigTableName).
		SetMap(row).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate site config insert query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, insert, args...); err != nil {
		return nil, unavailable(err, "failed to initialize site config")
	}

	query, args, err := psql().
		Select(siteConfigColumns...).
		From(siteConfigTableName).
		Where(sq.Eq{"id": siteConfigRowID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate site config query: %w", err)
	}

	var config types.SiteConfig
	if err := pgxscan.Get(ctx, r.pool, &config, query, args...); err != nil {
		return nil, unavailable(err, "failed to fetch site config")
	}

	return &config, nil
}

func (r *SiteConfigRepository) UpdateSiteConfig(ctx context.Context, update types.SiteConfigUpdate) error {
	changed := update.Columns()
	changed["updated_at"] = time.Now()

	row := utils.StructToMap(types.DefaultSiteConfig())
	for k, v := range changed {
		row[k] = v
	}
	row["id"] = siteConfigRowID

	query, args, err := psql().
		Insert(siteConfigTableName).
		SetMap(row).
		Suffix("ON CONFLICT (id) DO UPDATE SET " + buildUpdateClause(changed)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate site config upsert query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return unavailable(err, "failed to update site config")
	}

	return nil
}
