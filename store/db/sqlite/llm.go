package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/sunzhuo/teatalk/store"
)

// GetModelDetail loads a model with its provider and the provider configs.
// Returns nil when either the provider or the model code is unknown.
func (d *DB) GetModelDetail(ctx context.Context, providerID int64, modelCode string) (*store.ModelDetail, error) {
	provider := &store.Provider{}
	err := d.db.QueryRowContext(ctx, "SELECT id, name, api_type FROM provider WHERE id = ?", providerID).Scan(
		&provider.ID,
		&provider.Name,
		&provider.APIType,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get provider")
	}

	model := &store.Model{}
	err = d.db.QueryRowContext(ctx, "SELECT id, provider_id, code, name FROM model WHERE provider_id = ? AND code = ?", providerID, modelCode).Scan(
		&model.ID,
		&model.ProviderID,
		&model.Code,
		&model.Name,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get model")
	}

	rows, err := d.db.QueryContext(ctx, "SELECT id, provider_id, name, value FROM provider_config WHERE provider_id = ? ORDER BY id ASC", providerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list provider configs")
	}
	defer rows.Close()

	configs := []*store.ProviderConfig{}
	for rows.Next() {
		config := &store.ProviderConfig{}
		if err := rows.Scan(&config.ID, &config.ProviderID, &config.Name, &config.Value); err != nil {
			return nil, errors.Wrap(err, "failed to scan provider config")
		}
		configs = append(configs, config)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}

	return &store.ModelDetail{
		Model:    model,
		Provider: provider,
		Configs:  configs,
	}, nil
}
