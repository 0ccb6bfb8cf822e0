package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/sunzhuo/teatalk/store"
)

// defaultIdleTimeout is how long the aggregator waits for the next tuple
// before abandoning the loop.
const defaultIdleTimeout = 600 * time.Second

// chatContext carries what the aggregator needs to finalize one dispatch.
type chatContext struct {
	conversationID    int64
	messageID         int64
	needGenerateTitle bool
	userPrompt        string
	cancel            context.CancelFunc
}

// aggregate is the single consumer of one dispatch's chunk channel. Every
// tuple re-arms the idle timer and is forwarded to the shell; the terminal
// tuple additionally persists the final content, may derive a conversation
// title, and ends the loop. When the producer drops the channel or the idle
// timer fires, the loop ends without persisting: whatever content was not
// flushed by a terminal tuple is lost.
//
// Every exit cancels the engine context. A producer still running after the
// consumer is gone would otherwise fill the channel and block forever; the
// cancel signal gives its send race an exit.
func (s *Service) aggregate(chatCtx *chatContext, ch <-chan chunk) {
	ctx := context.Background()
	if chatCtx.cancel != nil {
		defer chatCtx.cancel()
	}
	timer := time.NewTimer(s.idleTimeout)
	defer timer.Stop()

	for {
		select {
		case c, ok := <-ch:
			if !ok {
				slog.Debug("chunk channel closed", "message_id", chatCtx.messageID)
				s.registry.Remove(chatCtx.messageID)
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.idleTimeout)

			metricChunks.Inc()
			s.notifier.EmitMessage(c.messageID, c.content)

			if c.done {
				s.finalize(ctx, chatCtx, c.content)
				s.registry.Remove(chatCtx.messageID)
				return
			}
		case <-timer.C:
			slog.Warn("timeout waiting for chunk", "message_id", chatCtx.messageID)
			metricIdleTimeouts.Inc()
			s.registry.Remove(chatCtx.messageID)
			return
		}
	}
}

// finalize persists the final content snapshot, emits the finish sentinel
// and, for a brand-new conversation, derives its title.
func (s *Service) finalize(ctx context.Context, chatCtx *chatContext, content string) {
	message, err := s.store.GetMessage(ctx, chatCtx.messageID)
	if err != nil {
		slog.Error("failed to reload message", "message_id", chatCtx.messageID, "error", err)
		return
	}
	if message == nil {
		slog.Warn("message disappeared before finalize", "message_id", chatCtx.messageID)
		return
	}

	update := &store.UpdateMessage{ID: message.ID, Content: &content}
	if tokenCount, err := countTokens(content); err == nil {
		update.TokenCount = &tokenCount
	}
	if err := s.store.UpdateMessage(ctx, update); err != nil {
		slog.Error("failed to persist message content", "message_id", chatCtx.messageID, "error", err)
		return
	}

	slog.Debug("message finished", "message_id", chatCtx.messageID, "content_length", len(content))
	s.notifier.EmitMessageFinish(chatCtx.messageID)

	if chatCtx.needGenerateTitle {
		s.generateTitle(ctx, chatCtx.conversationID, chatCtx.userPrompt, content)
	}
}
