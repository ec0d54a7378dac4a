package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floralane/backoffice/internal/domain/settings"
)

const selectSettingsSQL = `SELECT key, value FROM settings`

var _ settings.Repository = (*SettingsRepository)(nil)

// SettingsRepository implements settings.Repository backed by PostgreSQL.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Values returns the full settings table as a key/value mapping.
func (r *SettingsRepository) Values(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, selectSettingsSQL)
	if err != nil {
		return nil, wrapErr(err, "load settings")
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, wrapErr(err, "scan setting")
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err, "load settings")
	}
	return values, nil
}
