package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/sunzhuo/teatalk/store"
)

func (d *DB) CreateAttachment(ctx context.Context, create *store.Attachment) (*store.Attachment, error) {
	if create.MessageID == 0 {
		create.MessageID = store.UnattachedMessageID
	}
	stmt := `
		INSERT INTO attachment (message_id, type, url, content, use_vision, sort_order)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.MessageID,
		int32(create.Type),
		nullString(create.URL),
		nullString(create.Content),
		create.UseVision,
		create.SortOrder,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create attachment")
	}
	return create, nil
}

func (d *DB) ListAttachmentsByIDs(ctx context.Context, ids []int64) ([]*store.Attachment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	stmt := `
		SELECT id, message_id, type, url, content, use_vision, sort_order
		FROM attachment
		WHERE id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY sort_order ASC, id ASC
	`
	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list attachments")
	}
	defer rows.Close()

	list := []*store.Attachment{}
	for rows.Next() {
		attachment := &store.Attachment{}
		var url, content sql.NullString
		if err := rows.Scan(
			&attachment.ID,
			&attachment.MessageID,
			&attachment.Type,
			&url,
			&content,
			&attachment.UseVision,
			&attachment.SortOrder,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan attachment")
		}
		if url.Valid {
			attachment.URL = &url.String
		}
		if content.Valid {
			attachment.Content = &content.String
		}
		list = append(list, attachment)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return list, nil
}

func (d *DB) BindAttachmentToMessage(ctx context.Context, attachmentID, messageID int64) error {
	if _, err := d.db.ExecContext(ctx, "UPDATE attachment SET message_id = ? WHERE id = ?", messageID, attachmentID); err != nil {
		return errors.Wrap(err, "failed to bind attachment to message")
	}
	return nil
}
