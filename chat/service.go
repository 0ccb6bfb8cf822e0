// Package chat implements the conversation orchestration engine: message
// tree resolution, context assembly, configuration merging, dispatch to a
// pluggable LLM provider under cancellation, response aggregation and
// persistence, and conversation title derivation.
package chat

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/sunzhuo/teatalk/provider"
	"github.com/sunzhuo/teatalk/store"
	"github.com/sunzhuo/teatalk/template"
)

// defaultConversationName is the placeholder before the title generator runs.
const defaultConversationName = "New chat"

// ClientFactory builds a provider client from a resolved model detail.
type ClientFactory func(detail *store.ModelDetail) (provider.Client, error)

// Service is the conversation orchestration engine exposed to the
// application shell.
type Service struct {
	store     *store.Store
	notifier  Notifier
	registry  *Registry
	templates *template.Engine

	// Title completions share one blocking client pool.
	titleSemaphore *semaphore.Weighted

	// clients and idleTimeout are fixed in production and overridden in tests.
	clients     ClientFactory
	idleTimeout time.Duration
}

// NewService creates the orchestration service. The registry is injected so
// its lifetime is owned by the application, not by any single dispatch.
func NewService(st *store.Store, notifier Notifier, registry *Registry) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		store:          st,
		notifier:       notifier,
		registry:       registry,
		templates:      template.NewEngine(),
		titleSemaphore: semaphore.NewWeighted(3),
		clients:        provider.NewClient,
		idleTimeout:    defaultIdleTimeout,
	}
}

// AskRequest is one chat request from the shell. An empty ConversationID
// starts a new conversation.
type AskRequest struct {
	ConversationID  string            `json:"conversation_id"`
	AssistantID     int64             `json:"assistant_id"`
	Prompt          string            `json:"prompt"`
	AttachmentIDs   []int64           `json:"attachment_list,omitempty"`
	TemplateContext map[string]string `json:"template_context,omitempty"`
}

// AskResponse identifies the dispatched generation and echoes the rendered
// user prompt with its attachment context.
type AskResponse struct {
	ConversationID    int64  `json:"conversation_id"`
	MessageID         int64  `json:"add_message_id"`
	PromptWithContext string `json:"request_prompt_result_with_context"`
}

// Ask validates and prepares a chat request synchronously, then spawns the
// execution engine and the response aggregator. Configuration and
// validation errors are returned to the caller; anything that fails later
// is delivered through the notifier instead.
func (s *Service) Ask(ctx context.Context, request *AskRequest, overrideModelConfig map[string]any, overridePrompt *string) (*AskResponse, error) {
	detail, err := s.store.GetAssistantDetail(ctx, request.AssistantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load assistant")
	}
	if detail.Assistant == nil {
		return nil, ErrAssistantNotFound
	}
	if len(detail.Models) == 0 {
		return nil, ErrNoModelFound
	}

	assistantPrompt := ""
	if len(detail.Prompts) > 0 {
		assistantPrompt = s.templates.Render(detail.Prompts[0].Prompt, request.TemplateContext)
	}
	if overridePrompt != nil {
		assistantPrompt = *overridePrompt
	}
	renderedPrompt := s.templates.Render(request.Prompt, request.TemplateContext)

	needGenerateTitle := request.ConversationID == ""

	conversationID, messageID, promptWithContext, turns, err := s.initializeConversation(ctx, request, detail, assistantPrompt, renderedPrompt)
	if err != nil {
		return nil, err
	}

	model := detail.Models[0]
	modelDetail, err := s.store.GetModelDetail(ctx, model.ProviderID, model.ModelCode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load model detail")
	}
	if modelDetail == nil {
		return nil, ErrNoModelFound
	}

	client, err := s.clients(modelDetail)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create provider client")
	}

	merged := MergeModelConfigs(detail.ModelConfigs, modelDetail, overrideModelConfig)
	invocation := BuildInvocation(FlattenConfigs(merged), modelDetail)
	messages := BuildChatMessages(turns)

	slog.Info("dispatching chat",
		"conversation_id", conversationID,
		"message_id", messageID,
		"model", invocation.Model,
		"stream", invocation.Stream,
	)

	s.dispatch(&chatContext{
		conversationID:    conversationID,
		messageID:         messageID,
		needGenerateTitle: needGenerateTitle,
		userPrompt:        promptWithContext,
	}, client, invocation, messages)

	return &AskResponse{
		ConversationID:    conversationID,
		MessageID:         messageID,
		PromptWithContext: promptWithContext,
	}, nil
}

// Cancel signals the cancellation handle of an in-flight message. It is a
// no-op when nothing matching is in flight.
func (s *Service) Cancel(messageID int64) {
	if s.registry.Cancel(messageID) {
		metricCancellations.Inc()
		slog.Info("generation cancelled", "message_id", messageID)
	}
}

// Regenerate re-runs generation for a prior message: history is resolved up
// to (excluding) the target, and the reply is created as a new sibling
// child of it.
func (s *Service) Regenerate(ctx context.Context, messageID int64) (*AskResponse, error) {
	message, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load message")
	}
	if message == nil {
		return nil, ErrMessageNotFound
	}
	conversation, err := s.store.GetConversation(ctx, message.ConversationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load conversation")
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	if conversation.AssistantID == nil {
		return nil, ErrAssistantNotFound
	}

	detail, err := s.store.GetAssistantDetail(ctx, *conversation.AssistantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load assistant")
	}
	if detail.Assistant == nil {
		return nil, ErrAssistantNotFound
	}
	if len(detail.Models) == 0 {
		return nil, ErrNoModelFound
	}

	pairs, err := s.store.ListMessagesByConversationID(ctx, conversation.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list messages")
	}
	turns := ToTurns(ResolveHistory(pairs, messageID))

	model := detail.Models[0]
	newMessage, err := s.store.CreateMessage(ctx, &store.Message{
		ParentID:       &messageID,
		ConversationID: conversation.ID,
		Role:           store.RoleAssistant,
		Content:        "",
		ModelID:        &model.ID,
		ModelName:      &model.ModelCode,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create regeneration message")
	}

	modelDetail, err := s.store.GetModelDetail(ctx, model.ProviderID, model.ModelCode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load model detail")
	}
	if modelDetail == nil {
		return nil, ErrNoModelFound
	}
	client, err := s.clients(modelDetail)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create provider client")
	}

	merged := MergeModelConfigs(detail.ModelConfigs, modelDetail, nil)
	invocation := BuildInvocation(FlattenConfigs(merged), modelDetail)
	messages := BuildChatMessages(turns)

	slog.Info("dispatching regeneration",
		"conversation_id", conversation.ID,
		"parent_message_id", messageID,
		"message_id", newMessage.ID,
		"model", invocation.Model,
	)

	s.dispatch(&chatContext{
		conversationID: conversation.ID,
		messageID:      newMessage.ID,
	}, client, invocation, messages)

	return &AskResponse{
		ConversationID: conversation.ID,
		MessageID:      newMessage.ID,
	}, nil
}

// RegenerateTitle re-derives a conversation's title from its first user and
// assistant messages.
func (s *Service) RegenerateTitle(ctx context.Context, conversationID int64) error {
	conversation, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return errors.Wrap(err, "failed to load conversation")
	}
	if conversation == nil {
		return ErrConversationNotFound
	}

	pairs, err := s.store.ListMessagesByConversationID(ctx, conversationID)
	if err != nil {
		return errors.Wrap(err, "failed to list messages")
	}

	var userMessage, assistantMessage *store.Message
	for _, pair := range pairs {
		if userMessage == nil && pair.Message.Role == store.RoleUser {
			userMessage = pair.Message
		}
		if assistantMessage == nil && pair.Message.Role == store.RoleAssistant {
			assistantMessage = pair.Message
		}
	}
	if userMessage == nil || assistantMessage == nil {
		return ErrInsufficientMessages
	}

	s.generateTitle(ctx, conversationID, userMessage.Content, assistantMessage.Content)
	return nil
}

// dispatch spawns the two independently scheduled tasks of one generation,
// connected by one bounded channel, and registers the cancellation handle.
// The engine context is detached from the caller's: the generation outlives
// the originating request.
func (s *Service) dispatch(chatCtx *chatContext, client provider.Client, invocation *Invocation, messages []provider.ChatMessage) {
	engineCtx, cancel := context.WithCancel(context.Background())
	chatCtx.cancel = cancel
	s.registry.Store(chatCtx.messageID, cancel)

	ch := make(chan chunk, chunkBufferSize)
	go s.run(engineCtx, client, invocation, messages, chatCtx.messageID, ch)
	go s.aggregate(chatCtx, ch)
}

// initializeConversation performs the synchronous store phase of an ask: it
// creates the conversation on first contact, persists the user turn with
// its attachment context, creates the empty assistant placeholder, and
// returns the resolved history that will seed the provider call.
//
// The phase intentionally runs without a transaction: conversation and
// message creation use short-lived independent statements, so a
// mid-sequence failure can leave a committed-but-incomplete conversation.
func (s *Service) initializeConversation(ctx context.Context, request *AskRequest, detail *store.AssistantDetail, assistantPrompt, renderedPrompt string) (int64, int64, string, []Turn, error) {
	attachments, err := s.store.ListAttachmentsByIDs(ctx, request.AttachmentIDs)
	if err != nil {
		return 0, 0, "", nil, errors.Wrap(err, "failed to load attachments")
	}

	promptWithContext := renderedPrompt
	if blocks := RenderTextAttachments(attachments); blocks != "" {
		promptWithContext = renderedPrompt + "\n" + blocks
	}

	model := detail.Models[0]

	if request.ConversationID == "" {
		return s.initializeNewConversation(ctx, request, detail, assistantPrompt, promptWithContext, attachments)
	}

	conversationID, err := strconv.ParseInt(request.ConversationID, 10, 64)
	if err != nil {
		return 0, 0, "", nil, errors.Wrap(err, "malformed conversation id")
	}
	pairs, err := s.store.ListMessagesByConversationID(ctx, conversationID)
	if err != nil {
		return 0, 0, "", nil, errors.Wrap(err, "failed to list messages")
	}
	turns := ToTurns(ResolveHistory(pairs, 0))

	userMessage, err := s.store.CreateMessage(ctx, &store.Message{
		ConversationID: conversationID,
		Role:           store.RoleUser,
		Content:        promptWithContext,
		ModelID:        &model.ID,
		ModelName:      &model.ModelCode,
	})
	if err != nil {
		return 0, 0, "", nil, errors.Wrap(err, "failed to create user message")
	}
	for _, attachment := range attachments {
		if err := s.store.BindAttachmentToMessage(ctx, attachment.ID, userMessage.ID); err != nil {
			return 0, 0, "", nil, errors.Wrap(err, "failed to bind attachment")
		}
	}
	turns = append(turns, Turn{
		Role:        store.RoleUser,
		Content:     promptWithContext,
		Attachments: attachments,
	})

	placeholder, err := s.store.CreateMessage(ctx, &store.Message{
		ConversationID: conversationID,
		Role:           store.RoleAssistant,
		Content:        "",
		ModelID:        &model.ID,
		ModelName:      &model.ModelCode,
	})
	if err != nil {
		return 0, 0, "", nil, errors.Wrap(err, "failed to create assistant placeholder")
	}

	return conversationID, placeholder.ID, promptWithContext, turns, nil
}

func (s *Service) initializeNewConversation(ctx context.Context, request *AskRequest, detail *store.AssistantDetail, assistantPrompt, promptWithContext string, attachments []*store.Attachment) (int64, int64, string, []Turn, error) {
	model := detail.Models[0]

	conversation, err := s.store.CreateConversation(ctx, &store.Conversation{
		UID:         shortuuid.New(),
		Name:        defaultConversationName,
		AssistantID: &request.AssistantID,
	})
	if err != nil {
		return 0, 0, "", nil, errors.Wrap(err, "failed to create conversation")
	}

	turns := []Turn{
		{Role: store.RoleSystem, Content: assistantPrompt},
		{Role: store.RoleUser, Content: promptWithContext, Attachments: attachments},
	}

	for _, turn := range turns {
		message, err := s.store.CreateMessage(ctx, &store.Message{
			ConversationID: conversation.ID,
			Role:           turn.Role,
			Content:        turn.Content,
			ModelID:        &model.ID,
			ModelName:      &model.ModelCode,
		})
		if err != nil {
			return 0, 0, "", nil, errors.Wrapf(err, "failed to create %s message", turn.Role)
		}
		for _, attachment := range turn.Attachments {
			if err := s.store.BindAttachmentToMessage(ctx, attachment.ID, message.ID); err != nil {
				return 0, 0, "", nil, errors.Wrap(err, "failed to bind attachment")
			}
		}
	}

	placeholder, err := s.store.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		Role:           store.RoleAssistant,
		Content:        "",
		ModelID:        &model.ID,
		ModelName:      &model.ModelCode,
	})
	if err != nil {
		return 0, 0, "", nil, errors.Wrap(err, "failed to create assistant placeholder")
	}

	return conversation.ID, placeholder.ID, promptWithContext, turns, nil
}
