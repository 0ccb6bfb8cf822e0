package chat

import "github.com/pkg/errors"

// Errors detected during the synchronous phase of a dispatch. They are
// returned directly to the caller; failures inside the spawned tasks are
// delivered through the notification channel instead.
var (
	// ErrNoModelFound indicates the assistant has no configured model.
	ErrNoModelFound = errors.New("no model found for assistant")

	// ErrAssistantNotFound indicates an unknown assistant id.
	ErrAssistantNotFound = errors.New("assistant not found")

	// ErrMessageNotFound indicates an unknown message id.
	ErrMessageNotFound = errors.New("message not found")

	// ErrConversationNotFound indicates an unknown conversation id.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrInsufficientMessages indicates a conversation without at least one
	// user and one assistant message, so no title can be derived.
	ErrInsufficientMessages = errors.New("insufficient messages to generate a title")
)
