package sqlite

import (
	"context"

	"github.com/pkg/errors"
)

// latestSchema is applied idempotently on startup. The schema is small
// enough that versioned migrations are not worth their complexity yet.
const latestSchema = `
CREATE TABLE IF NOT EXISTS conversation (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL DEFAULT '',
	assistant_id INTEGER,
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE TABLE IF NOT EXISTS message (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_id INTEGER,
	conversation_id INTEGER NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	model_id INTEGER,
	model_name TEXT,
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	start_ts BIGINT,
	finish_ts BIGINT,
	token_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_message_conversation_id ON message (conversation_id);

CREATE TABLE IF NOT EXISTS attachment (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id INTEGER NOT NULL DEFAULT -1,
	type INTEGER NOT NULL,
	url TEXT,
	content TEXT,
	use_vision INTEGER NOT NULL DEFAULT 0,
	sort_order INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_attachment_message_id ON attachment (message_id);

CREATE TABLE IF NOT EXISTS assistant (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS assistant_prompt (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	assistant_id INTEGER NOT NULL,
	prompt TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS assistant_model (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	assistant_id INTEGER NOT NULL,
	provider_id INTEGER NOT NULL,
	model_code TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assistant_model_config (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	assistant_id INTEGER NOT NULL,
	assistant_model_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	value TEXT NOT NULL DEFAULT '',
	value_type TEXT NOT NULL DEFAULT 'string'
);

CREATE TABLE IF NOT EXISTS provider (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	api_type TEXT NOT NULL DEFAULT 'openai'
);

CREATE TABLE IF NOT EXISTS provider_config (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	value TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS model (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider_id INTEGER NOT NULL,
	code TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS feature_config (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	feature_code TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_feature_config_code ON feature_config (feature_code);
`

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, latestSchema); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}
	return nil
}
