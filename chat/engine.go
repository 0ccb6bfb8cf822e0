package chat

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/sunzhuo/teatalk/provider"
)

// chunkBufferSize bounds the engine -> aggregator channel.
const chunkBufferSize = 100

// chunk is one (message id, cumulative content, done) tuple pushed by the
// execution engine and drained by the response aggregator.
type chunk struct {
	messageID int64
	content   string
	done      bool
}

// run executes one dispatched generation and closes the channel when the
// task returns, whatever the outcome. Cancellation is observed through ctx:
// when it wins a race the task returns without pushing a terminal tuple, so
// the aggregator sees the closed channel instead of a done marker.
func (s *Service) run(ctx context.Context, client provider.Client, invocation *Invocation, messages []provider.ChatMessage, messageID int64, ch chan<- chunk) {
	defer close(ch)

	if invocation.Stream {
		metricDispatches.WithLabelValues("stream").Inc()
		s.runStream(ctx, client, invocation, messages, messageID, ch)
		return
	}
	metricDispatches.WithLabelValues("blocking").Inc()
	s.runBlocking(ctx, client, invocation, messages, messageID, ch)
}

func (s *Service) runStream(ctx context.Context, client provider.Client, invocation *Invocation, messages []provider.ChatMessage, messageID int64, ch chan<- chunk) {
	stream, err := client.ChatStream(ctx, invocation.Model, messages, &invocation.Options)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("failed to open chat stream", "message_id", messageID, "error", err)
		metricFailures.WithLabelValues("stream_open").Inc()
		s.registry.Remove(messageID)
		s.send(ctx, ch, chunk{messageID, "Chat stream error: " + err.Error(), true})
		return
	}
	defer func() { _ = stream.Close() }()

	var full string
	for {
		event, err := stream.Recv()
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				slog.Debug("chat stream cancelled", "message_id", messageID)
				return
			}
			if errors.Is(err, io.EOF) {
				// Stream dropped without a terminal event; finalize with
				// whatever was accumulated so far.
				if err := s.store.UpdateMessageFinishTime(ctx, messageID); err != nil {
					slog.Error("failed to record finish time", "message_id", messageID, "error", err)
				}
				s.send(ctx, ch, chunk{messageID, full, true})
				return
			}
			slog.Error("chat stream receive error", "message_id", messageID, "error", err)
			metricFailures.WithLabelValues("stream_recv").Inc()
			s.registry.Remove(messageID)
			s.send(ctx, ch, chunk{messageID, "Chat stream error: " + err.Error(), true})
			return
		}

		switch event.Kind {
		case provider.EventStart:
			if err := s.store.UpdateMessageStartTime(ctx, messageID); err != nil {
				slog.Error("failed to record start time", "message_id", messageID, "error", err)
			}
		case provider.EventChunk, provider.EventReasoningChunk:
			full += event.Content
			if !s.send(ctx, ch, chunk{messageID, full, false}) {
				return
			}
		case provider.EventToolCallChunk:
			// Tool calls are not supported; received chunks are discarded.
		case provider.EventEnd:
			if event.CapturedText != nil {
				// The captured final text is authoritative over the
				// incrementally accumulated buffer.
				full = *event.CapturedText
			}
			if err := s.store.UpdateMessageFinishTime(ctx, messageID); err != nil {
				slog.Error("failed to record finish time", "message_id", messageID, "error", err)
			}
			s.send(ctx, ch, chunk{messageID, full, true})
			return
		}
	}
}

func (s *Service) runBlocking(ctx context.Context, client provider.Client, invocation *Invocation, messages []provider.ChatMessage, messageID int64, ch chan<- chunk) {
	if err := s.store.UpdateMessageStartTime(ctx, messageID); err != nil {
		slog.Error("failed to record start time", "message_id", messageID, "error", err)
	}

	type result struct {
		content string
		err     error
	}
	resultCh := make(chan result, 1)

	// An already-dispatched provider call cannot be aborted mid-flight;
	// cancellation only stops waiting for it.
	callCtx := context.WithoutCancel(ctx)
	go func() {
		content, err := client.Chat(callCtx, invocation.Model, messages, &invocation.Options)
		resultCh <- result{content, err}
	}()

	select {
	case <-ctx.Done():
		slog.Debug("blocking chat cancelled", "message_id", messageID)
		return
	case res := <-resultCh:
		if res.err != nil {
			slog.Error("chat completion error", "message_id", messageID, "error", res.err)
			metricFailures.WithLabelValues("blocking").Inc()
			s.registry.Remove(messageID)
			s.send(ctx, ch, chunk{messageID, "Chat error: " + res.err.Error(), true})
			return
		}
		if err := s.store.UpdateMessageFinishTime(ctx, messageID); err != nil {
			slog.Error("failed to record finish time", "message_id", messageID, "error", err)
		}
		s.send(ctx, ch, chunk{messageID, res.content, true})
	}
}

// send pushes a tuple unless cancellation wins the race first.
func (s *Service) send(ctx context.Context, ch chan<- chunk, c chunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
