package store

import "context"

// AttachmentType tags the kind of content an attachment carries.
type AttachmentType int32

const (
	AttachmentTypeImage AttachmentType = iota + 1
	AttachmentTypeText
	AttachmentTypePDF
	AttachmentTypeWord
	AttachmentTypePowerPoint
	AttachmentTypeExcel
)

// UnattachedMessageID is the sentinel MessageID of an attachment that has
// been uploaded but not yet bound to a message.
const UnattachedMessageID int64 = -1

// Attachment is a file uploaded alongside a user turn. It is created
// unattached at upload time and bound to a message once the message exists.
// Content holds either a data URL (images) or inline extracted text; URL
// holds the original file reference. The two are not mutually exclusive.
type Attachment struct {
	ID        int64
	MessageID int64
	Type      AttachmentType
	URL       *string
	Content   *string
	UseVision bool
	SortOrder int32
}

func (s *Store) CreateAttachment(ctx context.Context, create *Attachment) (*Attachment, error) {
	return s.driver.CreateAttachment(ctx, create)
}

func (s *Store) ListAttachmentsByIDs(ctx context.Context, ids []int64) ([]*Attachment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.driver.ListAttachmentsByIDs(ctx, ids)
}

func (s *Store) BindAttachmentToMessage(ctx context.Context, attachmentID, messageID int64) error {
	return s.driver.BindAttachmentToMessage(ctx, attachmentID, messageID)
}
