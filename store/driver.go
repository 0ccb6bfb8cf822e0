package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store drivers.
// It contains all the methods that store database drivers should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error
	Migrate(ctx context.Context) error

	// Conversation model related methods.
	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	GetConversation(ctx context.Context, id int64) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	UpdateConversationName(ctx context.Context, id int64, name string) error
	DeleteConversation(ctx context.Context, id int64) error

	// Message model related methods.
	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	GetMessage(ctx context.Context, id int64) (*Message, error)
	ListMessagesByConversationID(ctx context.Context, conversationID int64) ([]*MessageWithAttachment, error)
	UpdateMessage(ctx context.Context, update *UpdateMessage) error
	UpdateMessageStartTime(ctx context.Context, id int64) error
	UpdateMessageFinishTime(ctx context.Context, id int64) error

	// Attachment model related methods.
	CreateAttachment(ctx context.Context, create *Attachment) (*Attachment, error)
	ListAttachmentsByIDs(ctx context.Context, ids []int64) ([]*Attachment, error)
	BindAttachmentToMessage(ctx context.Context, attachmentID, messageID int64) error

	// Assistant model related methods.
	GetAssistant(ctx context.Context, id int64) (*Assistant, error)
	ListAssistantPrompts(ctx context.Context, assistantID int64) ([]*AssistantPrompt, error)
	ListAssistantModels(ctx context.Context, assistantID int64) ([]*AssistantModel, error)
	ListAssistantModelConfigs(ctx context.Context, assistantID int64) ([]*AssistantModelConfig, error)

	// LLM provider/model related methods.
	GetModelDetail(ctx context.Context, providerID int64, modelCode string) (*ModelDetail, error)

	// Feature config related methods.
	GetFeatureConfig(ctx context.Context, featureCode string) (map[string]string, error)
}
