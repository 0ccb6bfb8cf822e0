package chat

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sunzhuo/teatalk/provider"
	"github.com/sunzhuo/teatalk/store"
)

const titleInstruction = "Summarize the conversation above into a short title, without punctuation"

// titleConfig is the resolved conversation_summary feature configuration.
type titleConfig struct {
	providerID    int64
	modelCode     string
	prompt        string
	summaryLength int
}

// loadTitleConfig resolves the conversation_summary feature. A nil result
// with nil error means the feature is not configured and title generation
// is a silent no-op.
func (s *Service) loadTitleConfig(ctx context.Context) (*titleConfig, error) {
	raw, err := s.store.GetFeatureConfig(ctx, store.FeatureCodeConversationSummary)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	providerID, err := strconv.ParseInt(raw["provider_id"], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid provider_id in conversation_summary config")
	}
	modelCode, ok := raw["model_code"]
	if !ok || modelCode == "" {
		return nil, errors.New("missing model_code in conversation_summary config")
	}
	summaryLength, err := strconv.Atoi(raw["summary_length"])
	if err != nil {
		return nil, errors.Wrap(err, "invalid summary_length in conversation_summary config")
	}

	return &titleConfig{
		providerID:    providerID,
		modelCode:     modelCode,
		prompt:        raw["prompt"],
		summaryLength: summaryLength,
	}, nil
}

// buildTitleContext renders the user turn of the title completion call
// under the summary-length budget, in runes. Precedence:
//  1. A negative budget (-1 canonically) means unlimited: both texts in
//     full.
//  2. A user prompt exceeding the budget is cut to it; assistant content
//     is omitted entirely.
//  3. When both together exceed the budget, the assistant content is cut
//     to the remainder.
//  4. Otherwise both in full.
func buildTitleContext(userPrompt, assistantContent string, budget int) string {
	both := func(user, assistant string) string {
		return "# user\n " + user + " \n\n# assistant\n " + assistant + " \n\n" + titleInstruction
	}

	// Any negative budget means unlimited; -1 is the documented value but
	// the config row is operator-edited.
	if budget < 0 {
		return both(userPrompt, assistantContent)
	}

	userRunes := []rune(userPrompt)
	if len(userRunes) > budget {
		return "# user\n " + string(userRunes[:budget]) + " \n\n" + titleInstruction
	}

	remainder := budget - len(userRunes)
	assistantRunes := []rune(assistantContent)
	if len(assistantRunes) > remainder {
		return both(userPrompt, string(assistantRunes[:remainder]))
	}
	return both(userPrompt, assistantContent)
}

// generateTitle names a conversation with one blocking completion call.
// Failures never propagate to the caller of the originating chat request:
// they are logged and surfaced as a best-effort error notification.
func (s *Service) generateTitle(ctx context.Context, conversationID int64, userPrompt, assistantContent string) {
	if err := s.titleSemaphore.Acquire(ctx, 1); err != nil {
		return
	}
	defer s.titleSemaphore.Release(1)

	config, err := s.loadTitleConfig(ctx)
	if err != nil {
		slog.Warn("conversation summary config unusable", "error", err)
		metricTitleGenerations.WithLabelValues("config_error").Inc()
		return
	}
	if config == nil {
		return
	}

	detail, err := s.store.GetModelDetail(ctx, config.providerID, config.modelCode)
	if err != nil || detail == nil {
		slog.Warn("conversation summary model not found",
			"provider_id", config.providerID,
			"model_code", config.modelCode,
			"error", err,
		)
		metricTitleGenerations.WithLabelValues("config_error").Inc()
		return
	}

	client, err := s.clients(detail)
	if err != nil {
		slog.Error("failed to create title client", "error", err)
		metricTitleGenerations.WithLabelValues("client_error").Inc()
		return
	}

	titleContext := buildTitleContext(userPrompt, assistantContent, config.summaryLength)
	messages := []provider.ChatMessage{
		{Role: provider.RoleSystem, Text: config.prompt},
		{Role: provider.RoleUser, Text: titleContext},
	}

	title, err := client.Chat(ctx, detail.Model.Code, messages, nil)
	if err != nil {
		slog.Error("title generation failed", "conversation_id", conversationID, "error", err)
		metricTitleGenerations.WithLabelValues("provider_error").Inc()
		s.notifier.EmitError("Failed to generate the conversation title, check the summary configuration")
		return
	}

	if err := s.store.UpdateConversationName(ctx, conversationID, title); err != nil {
		slog.Error("failed to persist conversation title", "conversation_id", conversationID, "error", err)
		metricTitleGenerations.WithLabelValues("persist_error").Inc()
		return
	}

	metricTitleGenerations.WithLabelValues("ok").Inc()
	s.notifier.EmitTitleChange(conversationID, title)
}
