package sqlite

import (
	"context"

	"github.com/pkg/errors"
)

func (d *DB) GetFeatureConfig(ctx context.Context, featureCode string) (map[string]string, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT key, value FROM feature_config WHERE feature_code = ?", featureCode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get feature config")
	}
	defer rows.Close()

	config := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errors.Wrap(err, "failed to scan feature config")
		}
		config[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return config, nil
}
