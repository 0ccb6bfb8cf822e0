package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/sunzhuo/teatalk/store"
)

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	stmt := `
		INSERT INTO message (parent_id, conversation_id, role, content, model_id, model_name, created_ts, start_ts, finish_ts, token_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		nullInt64(create.ParentID),
		create.ConversationID,
		string(create.Role),
		create.Content,
		nullInt64(create.ModelID),
		nullString(create.ModelName),
		create.CreatedTs,
		nullInt64(create.StartTs),
		nullInt64(create.FinishTs),
		create.TokenCount,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create message")
	}
	return create, nil
}

func (d *DB) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	stmt := `
		SELECT id, parent_id, conversation_id, role, content, model_id, model_name, created_ts, start_ts, finish_ts, token_count
		FROM message
		WHERE id = ?
	`
	message, err := scanMessage(d.db.QueryRowContext(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get message")
	}
	return message, nil
}

// ListMessagesByConversationID returns all (message, optional attachment)
// pairs of a conversation ordered by message id. A message with multiple
// attachments yields multiple pairs, matching the left join.
func (d *DB) ListMessagesByConversationID(ctx context.Context, conversationID int64) ([]*store.MessageWithAttachment, error) {
	stmt := `
		SELECT
			m.id, m.parent_id, m.conversation_id, m.role, m.content, m.model_id, m.model_name,
			m.created_ts, m.start_ts, m.finish_ts, m.token_count,
			a.id, a.message_id, a.type, a.url, a.content, a.use_vision, a.sort_order
		FROM message m
		LEFT JOIN attachment a ON a.message_id = m.id
		WHERE m.conversation_id = ?
		ORDER BY m.id ASC, a.sort_order ASC
	`
	rows, err := d.db.QueryContext(ctx, stmt, conversationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list messages")
	}
	defer rows.Close()

	list := []*store.MessageWithAttachment{}
	for rows.Next() {
		message := &store.Message{}
		var parentID, modelID, startTs, finishTs sql.NullInt64
		var modelName sql.NullString
		var attachmentID, attachmentMessageID, attachmentType, sortOrder sql.NullInt64
		var attachmentURL, attachmentContent sql.NullString
		var useVision sql.NullBool
		if err := rows.Scan(
			&message.ID,
			&parentID,
			&message.ConversationID,
			&message.Role,
			&message.Content,
			&modelID,
			&modelName,
			&message.CreatedTs,
			&startTs,
			&finishTs,
			&message.TokenCount,
			&attachmentID,
			&attachmentMessageID,
			&attachmentType,
			&attachmentURL,
			&attachmentContent,
			&useVision,
			&sortOrder,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan message")
		}
		if parentID.Valid {
			message.ParentID = &parentID.Int64
		}
		if modelID.Valid {
			message.ModelID = &modelID.Int64
		}
		if modelName.Valid {
			message.ModelName = &modelName.String
		}
		if startTs.Valid {
			message.StartTs = &startTs.Int64
		}
		if finishTs.Valid {
			message.FinishTs = &finishTs.Int64
		}

		pair := &store.MessageWithAttachment{Message: message}
		if attachmentID.Valid {
			attachment := &store.Attachment{
				ID:        attachmentID.Int64,
				MessageID: attachmentMessageID.Int64,
				Type:      store.AttachmentType(attachmentType.Int64),
				UseVision: useVision.Bool,
				SortOrder: int32(sortOrder.Int64),
			}
			if attachmentURL.Valid {
				attachment.URL = &attachmentURL.String
			}
			if attachmentContent.Valid {
				attachment.Content = &attachmentContent.String
			}
			pair.Attachment = attachment
		}
		list = append(list, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return list, nil
}

func (d *DB) UpdateMessage(ctx context.Context, update *store.UpdateMessage) error {
	set, args := []string{}, []any{}
	if update.Content != nil {
		set, args = append(set, "content = ?"), append(args, *update.Content)
	}
	if update.TokenCount != nil {
		set, args = append(set, "token_count = ?"), append(args, *update.TokenCount)
	}
	if len(set) == 0 {
		return nil
	}
	stmt := "UPDATE message SET " + set[0]
	for _, s := range set[1:] {
		stmt += ", " + s
	}
	stmt += " WHERE id = ?"
	args = append(args, update.ID)
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update message")
	}
	return nil
}

func (d *DB) UpdateMessageStartTime(ctx context.Context, id int64) error {
	if _, err := d.db.ExecContext(ctx, "UPDATE message SET start_ts = ? WHERE id = ?", time.Now().Unix(), id); err != nil {
		return errors.Wrap(err, "failed to update message start time")
	}
	return nil
}

func (d *DB) UpdateMessageFinishTime(ctx context.Context, id int64) error {
	if _, err := d.db.ExecContext(ctx, "UPDATE message SET finish_ts = ? WHERE id = ?", time.Now().Unix(), id); err != nil {
		return errors.Wrap(err, "failed to update message finish time")
	}
	return nil
}

func scanMessage(row *sql.Row) (*store.Message, error) {
	message := &store.Message{}
	var parentID, modelID, startTs, finishTs sql.NullInt64
	var modelName sql.NullString
	if err := row.Scan(
		&message.ID,
		&parentID,
		&message.ConversationID,
		&message.Role,
		&message.Content,
		&modelID,
		&modelName,
		&message.CreatedTs,
		&startTs,
		&finishTs,
		&message.TokenCount,
	); err != nil {
		return nil, err
	}
	if parentID.Valid {
		message.ParentID = &parentID.Int64
	}
	if modelID.Valid {
		message.ModelID = &modelID.Int64
	}
	if modelName.Valid {
		message.ModelName = &modelName.String
	}
	if startTs.Valid {
		message.StartTs = &startTs.Int64
	}
	if finishTs.Valid {
		message.FinishTs = &finishTs.Int64
	}
	return message, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
