package chat

import "fmt"

// Event names delivered to the application shell. Message events are keyed
// per message id; the finish sentinel is sent as a payload on the same key
// so the shell can keep a single listener per message.
const (
	MessageFinishPayload   = "Tea::Event::MessageFinish"
	TitleChangeEvent       = "title_change"
	ErrorNotificationEvent = "conversation-window-error-notification"
)

// MessageEventName returns the per-message event key.
func MessageEventName(messageID int64) string {
	return fmt.Sprintf("message_%d", messageID)
}

// Notifier delivers UI notifications to the application shell. All methods
// are best-effort fire-and-forget: a slow or absent shell must never block
// the aggregator loop.
type Notifier interface {
	// EmitMessage carries the cumulative content snapshot of a message.
	EmitMessage(messageID int64, content string)

	// EmitMessageFinish signals that a message will receive no further content.
	EmitMessageFinish(messageID int64)

	// EmitTitleChange carries a conversation's new title.
	EmitTitleChange(conversationID int64, title string)

	// EmitError carries a human-readable error notification.
	EmitError(message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

var _ Notifier = (*NopNotifier)(nil)

func (NopNotifier) EmitMessage(int64, string)     {}
func (NopNotifier) EmitMessageFinish(int64)       {}
func (NopNotifier) EmitTitleChange(int64, string) {}
func (NopNotifier) EmitError(string)              {}
