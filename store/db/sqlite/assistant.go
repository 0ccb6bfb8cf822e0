package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/sunzhuo/teatalk/store"
)

func (d *DB) GetAssistant(ctx context.Context, id int64) (*store.Assistant, error) {
	stmt := `SELECT id, name, description FROM assistant WHERE id = ?`
	assistant := &store.Assistant{}
	err := d.db.QueryRowContext(ctx, stmt, id).Scan(
		&assistant.ID,
		&assistant.Name,
		&assistant.Description,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get assistant")
	}
	return assistant, nil
}

func (d *DB) ListAssistantPrompts(ctx context.Context, assistantID int64) ([]*store.AssistantPrompt, error) {
	stmt := `SELECT id, assistant_id, prompt FROM assistant_prompt WHERE assistant_id = ? ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, stmt, assistantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list assistant prompts")
	}
	defer rows.Close()

	list := []*store.AssistantPrompt{}
	for rows.Next() {
		prompt := &store.AssistantPrompt{}
		if err := rows.Scan(&prompt.ID, &prompt.AssistantID, &prompt.Prompt); err != nil {
			return nil, errors.Wrap(err, "failed to scan assistant prompt")
		}
		list = append(list, prompt)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return list, nil
}

func (d *DB) ListAssistantModels(ctx context.Context, assistantID int64) ([]*store.AssistantModel, error) {
	stmt := `SELECT id, assistant_id, provider_id, model_code FROM assistant_model WHERE assistant_id = ? ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, stmt, assistantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list assistant models")
	}
	defer rows.Close()

	list := []*store.AssistantModel{}
	for rows.Next() {
		model := &store.AssistantModel{}
		if err := rows.Scan(&model.ID, &model.AssistantID, &model.ProviderID, &model.ModelCode); err != nil {
			return nil, errors.Wrap(err, "failed to scan assistant model")
		}
		list = append(list, model)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return list, nil
}

func (d *DB) ListAssistantModelConfigs(ctx context.Context, assistantID int64) ([]*store.AssistantModelConfig, error) {
	stmt := `
		SELECT id, assistant_id, assistant_model_id, name, value, value_type
		FROM assistant_model_config
		WHERE assistant_id = ?
		ORDER BY id ASC
	`
	rows, err := d.db.QueryContext(ctx, stmt, assistantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list assistant model configs")
	}
	defer rows.Close()

	list := []*store.AssistantModelConfig{}
	for rows.Next() {
		config := &store.AssistantModelConfig{}
		if err := rows.Scan(
			&config.ID,
			&config.AssistantID,
			&config.AssistantModelID,
			&config.Name,
			&config.Value,
			&config.ValueType,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan assistant model config")
		}
		list = append(list, config)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return list, nil
}
