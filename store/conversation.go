package store

import "context"

// Conversation is a named thread of messages owned by an assistant.
// Name starts as a placeholder and is renamed at most once automatically by
// the title generator, or explicitly through the regenerate-title operation.
type Conversation struct {
	ID          int64
	UID         string
	Name        string
	AssistantID *int64
	CreatedTs   int64
}

type FindConversation struct {
	ID          *int64
	UID         *string
	AssistantID *int64
	Limit       *int
	Offset      *int
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	return s.driver.GetConversation(ctx, id)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

func (s *Store) UpdateConversationName(ctx context.Context, id int64, name string) error {
	return s.driver.UpdateConversationName(ctx, id, name)
}

func (s *Store) DeleteConversation(ctx context.Context, id int64) error {
	return s.driver.DeleteConversation(ctx, id)
}
