// Package provider exposes pluggable LLM clients behind a small interface:
// one blocking completion call and one streaming call yielding a typed,
// finite, non-restartable event sequence.
package provider

import "context"

// Role of a chat turn sent to the provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// PartType tags one part of a multi-part user turn.
type PartType int

const (
	PartTypeText PartType = iota + 1
	PartTypeImageBase64
	PartTypeImageURL
)

// ContentPart is one piece of a user turn: plain text, an embedded base64
// image, or an external image reference.
type ContentPart struct {
	Type       PartType
	Text       string
	MIMEType   string
	Base64Data string
	ImageURL   string
}

// ChatMessage is one role-tagged turn. System and assistant turns carry
// plain text only; user turns may carry multiple parts (text + N images).
// When Parts is empty, Text is the whole content.
type ChatMessage struct {
	Role  string
	Text  string
	Parts []ContentPart
}

// ChatOptions carries the per-invocation sampling options. Nil fields keep
// the provider defaults.
type ChatOptions struct {
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
}

// StreamEventKind discriminates stream events.
type StreamEventKind int

const (
	EventStart StreamEventKind = iota + 1
	EventChunk
	EventReasoningChunk
	EventToolCallChunk
	EventEnd
)

// StreamEvent is one element of the finite event sequence produced by a
// streaming completion. An EventEnd may carry CapturedText, the provider's
// authoritative final text; when present it replaces anything accumulated
// from incremental chunks.
type StreamEvent struct {
	Kind         StreamEventKind
	Content      string
	CapturedText *string
}

// Stream is a finite, non-restartable event producer. Recv returns io.EOF
// after the sequence is exhausted; it may return io.EOF without a preceding
// EventEnd when the provider drops the stream early.
type Stream interface {
	Recv() (*StreamEvent, error)
	Close() error
}

// Client is the provider client consumed by the orchestration engine.
type Client interface {
	// Chat performs one blocking completion call and returns the final text.
	Chat(ctx context.Context, model string, messages []ChatMessage, opts *ChatOptions) (string, error)

	// ChatStream opens a streaming completion call.
	ChatStream(ctx context.Context, model string, messages []ChatMessage, opts *ChatOptions) (Stream, error)
}
