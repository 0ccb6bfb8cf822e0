package store

import "context"

// Role of a message turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation. A message with a non-nil ParentID is
// a regeneration of that parent; among siblings sharing a parent, the one
// with the greatest id is authoritative.
type Message struct {
	ID             int64
	ParentID       *int64
	ConversationID int64
	Role           Role
	Content        string
	ModelID        *int64
	ModelName      *string
	CreatedTs      int64
	StartTs        *int64
	FinishTs       *int64
	TokenCount     int32
}

// MessageWithAttachment pairs a message with its optional attachment, as
// returned by ListMessagesByConversationID.
type MessageWithAttachment struct {
	Message    *Message
	Attachment *Attachment
}

type UpdateMessage struct {
	ID         int64
	Content    *string
	TokenCount *int32
}

func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

func (s *Store) GetMessage(ctx context.Context, id int64) (*Message, error) {
	return s.driver.GetMessage(ctx, id)
}

func (s *Store) ListMessagesByConversationID(ctx context.Context, conversationID int64) ([]*MessageWithAttachment, error) {
	return s.driver.ListMessagesByConversationID(ctx, conversationID)
}

func (s *Store) UpdateMessage(ctx context.Context, update *UpdateMessage) error {
	return s.driver.UpdateMessage(ctx, update)
}

func (s *Store) UpdateMessageStartTime(ctx context.Context, id int64) error {
	return s.driver.UpdateMessageStartTime(ctx, id)
}

func (s *Store) UpdateMessageFinishTime(ctx context.Context, id int64) error {
	return s.driver.UpdateMessageFinishTime(ctx, id)
}
