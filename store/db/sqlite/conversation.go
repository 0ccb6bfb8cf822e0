package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sunzhuo/teatalk/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	stmt := `
		INSERT INTO conversation (uid, name, assistant_id, created_ts)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`
	var assistantID sql.NullInt64
	if create.AssistantID != nil {
		assistantID = sql.NullInt64{Int64: *create.AssistantID, Valid: true}
	}
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.Name,
		assistantID,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create conversation")
	}
	return create, nil
}

func (d *DB) GetConversation(ctx context.Context, id int64) (*store.Conversation, error) {
	stmt := `
		SELECT id, uid, name, assistant_id, created_ts
		FROM conversation
		WHERE id = ?
	`
	conversation := &store.Conversation{}
	var assistantID sql.NullInt64
	err := d.db.QueryRowContext(ctx, stmt, id).Scan(
		&conversation.ID,
		&conversation.UID,
		&conversation.Name,
		&assistantID,
		&conversation.CreatedTs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get conversation")
	}
	if assistantID.Valid {
		conversation.AssistantID = &assistantID.Int64
	}
	return conversation, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.AssistantID != nil {
		where, args = append(where, "assistant_id = ?"), append(args, *find.AssistantID)
	}

	query := `SELECT id, uid, name, assistant_id, created_ts
		FROM conversation
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}
	if find.Offset != nil {
		query += " OFFSET ?"
		args = append(args, *find.Offset)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversations")
	}
	defer rows.Close()

	list := []*store.Conversation{}
	for rows.Next() {
		conversation := &store.Conversation{}
		var assistantID sql.NullInt64
		if err := rows.Scan(
			&conversation.ID,
			&conversation.UID,
			&conversation.Name,
			&assistantID,
			&conversation.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation")
		}
		if assistantID.Valid {
			conversation.AssistantID = &assistantID.Int64
		}
		list = append(list, conversation)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return list, nil
}

func (d *DB) UpdateConversationName(ctx context.Context, id int64, name string) error {
	if _, err := d.db.ExecContext(ctx, "UPDATE conversation SET name = ? WHERE id = ?", name, id); err != nil {
		return errors.Wrap(err, "failed to update conversation name")
	}
	return nil
}

func (d *DB) DeleteConversation(ctx context.Context, id int64) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM conversation WHERE id = ?", id); err != nil {
		return errors.Wrap(err, "failed to delete conversation")
	}
	if _, err := d.db.ExecContext(ctx, "DELETE FROM message WHERE conversation_id = ?", id); err != nil {
		return errors.Wrap(err, "failed to delete conversation messages")
	}
	return nil
}
