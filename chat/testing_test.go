package chat

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/sunzhuo/teatalk/internal/profile"
	"github.com/sunzhuo/teatalk/provider"
	"github.com/sunzhuo/teatalk/store"
)

// fakeDriver is an in-memory store.Driver for exercising the orchestration
// paths without a database.
type fakeDriver struct {
	mu sync.Mutex

	nextID        int64
	conversations map[int64]*store.Conversation
	messages      map[int64]*store.Message
	attachments   map[int64]*store.Attachment
	assistants    map[int64]*store.Assistant
	prompts       map[int64][]*store.AssistantPrompt
	models        map[int64][]*store.AssistantModel
	modelConfigs  map[int64][]*store.AssistantModelConfig
	modelDetails  map[string]*store.ModelDetail
	featureConfig map[string]map[string]string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		conversations: map[int64]*store.Conversation{},
		messages:      map[int64]*store.Message{},
		attachments:   map[int64]*store.Attachment{},
		assistants:    map[int64]*store.Assistant{},
		prompts:       map[int64][]*store.AssistantPrompt{},
		models:        map[int64][]*store.AssistantModel{},
		modelConfigs:  map[int64][]*store.AssistantModelConfig{},
		modelDetails:  map[string]*store.ModelDetail{},
		featureConfig: map[string]map[string]string{},
	}
}

func (d *fakeDriver) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *fakeDriver) GetDB() *sql.DB                { return nil }
func (d *fakeDriver) Close() error                  { return nil }
func (d *fakeDriver) Migrate(context.Context) error { return nil }

func (d *fakeDriver) CreateConversation(_ context.Context, create *store.Conversation) (*store.Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	clone := *create
	clone.ID = d.id()
	clone.CreatedTs = time.Now().Unix()
	d.conversations[clone.ID] = &clone
	return &clone, nil
}

func (d *fakeDriver) GetConversation(_ context.Context, id int64) (*store.Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conversation, ok := d.conversations[id]
	if !ok {
		return nil, nil
	}
	clone := *conversation
	return &clone, nil
}

func (d *fakeDriver) ListConversations(context.Context, *store.FindConversation) ([]*store.Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := make([]*store.Conversation, 0, len(d.conversations))
	for _, conversation := range d.conversations {
		clone := *conversation
		list = append(list, &clone)
	}
	return list, nil
}

func (d *fakeDriver) UpdateConversationName(_ context.Context, id int64, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	conversation, ok := d.conversations[id]
	if !ok {
		return errors.New("conversation not found")
	}
	conversation.Name = name
	return nil
}

func (d *fakeDriver) DeleteConversation(_ context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.conversations, id)
	return nil
}

func (d *fakeDriver) CreateMessage(_ context.Context, create *store.Message) (*store.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	clone := *create
	clone.ID = d.id()
	clone.CreatedTs = time.Now().Unix()
	d.messages[clone.ID] = &clone
	copied := clone
	return &copied, nil
}

func (d *fakeDriver) GetMessage(_ context.Context, id int64) (*store.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	message, ok := d.messages[id]
	if !ok {
		return nil, nil
	}
	clone := *message
	return &clone, nil
}

func (d *fakeDriver) ListMessagesByConversationID(_ context.Context, conversationID int64) ([]*store.MessageWithAttachment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var pairs []*store.MessageWithAttachment
	for id := int64(1); id <= d.nextID; id++ {
		message, ok := d.messages[id]
		if !ok || message.ConversationID != conversationID {
			continue
		}
		clone := *message
		pair := &store.MessageWithAttachment{Message: &clone}
		for _, attachment := range d.attachments {
			if attachment.MessageID == id {
				attachmentClone := *attachment
				pair.Attachment = &attachmentClone
				break
			}
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func (d *fakeDriver) UpdateMessage(_ context.Context, update *store.UpdateMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	message, ok := d.messages[update.ID]
	if !ok {
		return errors.New("message not found")
	}
	if update.Content != nil {
		message.Content = *update.Content
	}
	if update.TokenCount != nil {
		message.TokenCount = *update.TokenCount
	}
	return nil
}

func (d *fakeDriver) UpdateMessageStartTime(_ context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	message, ok := d.messages[id]
	if !ok {
		return errors.New("message not found")
	}
	now := time.Now().UnixMilli()
	message.StartTs = &now
	return nil
}

func (d *fakeDriver) UpdateMessageFinishTime(_ context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	message, ok := d.messages[id]
	if !ok {
		return errors.New("message not found")
	}
	now := time.Now().UnixMilli()
	message.FinishTs = &now
	return nil
}

func (d *fakeDriver) CreateAttachment(_ context.Context, create *store.Attachment) (*store.Attachment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	clone := *create
	clone.ID = d.id()
	d.attachments[clone.ID] = &clone
	copied := clone
	return &copied, nil
}

func (d *fakeDriver) ListAttachmentsByIDs(_ context.Context, ids []int64) ([]*store.Attachment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var list []*store.Attachment
	for _, id := range ids {
		if attachment, ok := d.attachments[id]; ok {
			clone := *attachment
			list = append(list, &clone)
		}
	}
	return list, nil
}

func (d *fakeDriver) BindAttachmentToMessage(_ context.Context, attachmentID, messageID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	attachment, ok := d.attachments[attachmentID]
	if !ok {
		return errors.New("attachment not found")
	}
	attachment.MessageID = messageID
	return nil
}

func (d *fakeDriver) GetAssistant(_ context.Context, id int64) (*store.Assistant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	assistant, ok := d.assistants[id]
	if !ok {
		return nil, nil
	}
	clone := *assistant
	return &clone, nil
}

func (d *fakeDriver) ListAssistantPrompts(_ context.Context, assistantID int64) ([]*store.AssistantPrompt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prompts[assistantID], nil
}

func (d *fakeDriver) ListAssistantModels(_ context.Context, assistantID int64) ([]*store.AssistantModel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.models[assistantID], nil
}

func (d *fakeDriver) ListAssistantModelConfigs(_ context.Context, assistantID int64) ([]*store.AssistantModelConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modelConfigs[assistantID], nil
}

func (d *fakeDriver) GetModelDetail(_ context.Context, providerID int64, modelCode string) (*store.ModelDetail, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	detail, ok := d.modelDetails[modelDetailKey(providerID, modelCode)]
	if !ok {
		return nil, nil
	}
	return detail, nil
}

func (d *fakeDriver) GetFeatureConfig(_ context.Context, featureCode string) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	config, ok := d.featureConfig[featureCode]
	if !ok {
		return map[string]string{}, nil
	}
	return config, nil
}

func modelDetailKey(providerID int64, modelCode string) string {
	return fmt.Sprintf("%d/%s", providerID, modelCode)
}

var errTestProvider = errors.New("provider unavailable")

func newConversationFixture() *store.Conversation {
	return &store.Conversation{UID: "test-uid", Name: defaultConversationName}
}

// seedTitleFeature installs a usable conversation_summary feature config
// together with the model it points at.
func (d *fakeDriver) seedTitleFeature() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.featureConfig[store.FeatureCodeConversationSummary] = map[string]string{
		"provider_id":    "1",
		"model_code":     "gpt-4o-mini",
		"prompt":         "You name conversations.",
		"summary_length": "100",
	}
	d.modelDetails[modelDetailKey(1, "gpt-4o-mini")] = &store.ModelDetail{
		Model:    &store.Model{ID: 2, ProviderID: 1, Code: "gpt-4o-mini", Name: "gpt-4o-mini"},
		Provider: &store.Provider{ID: 1, Name: "test", APIType: "openai"},
		Configs:  []*store.ProviderConfig{{ProviderID: 1, Name: "api_key", Value: "test-key"}},
	}
}

// seedAssistant installs one assistant with a prompt and a model binding and
// returns its id.
func (d *fakeDriver) seedAssistant(prompt, modelCode string) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.id()
	d.assistants[id] = &store.Assistant{ID: id, Name: "test assistant"}
	d.prompts[id] = []*store.AssistantPrompt{{ID: d.id(), AssistantID: id, Prompt: prompt}}
	d.models[id] = []*store.AssistantModel{{ID: d.id(), AssistantID: id, ProviderID: 1, ModelCode: modelCode}}
	d.modelDetails[modelDetailKey(1, modelCode)] = &store.ModelDetail{
		Model:    &store.Model{ID: 1, ProviderID: 1, Code: modelCode, Name: modelCode},
		Provider: &store.Provider{ID: 1, Name: "test", APIType: "openai"},
		Configs:  []*store.ProviderConfig{{ProviderID: 1, Name: "api_key", Value: "test-key"}},
	}
	return id
}

// recordingNotifier captures emitted events for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []emittedMessage
	finishes []int64
	titles   []emittedTitle
	errors   []string
}

type emittedMessage struct {
	messageID int64
	content   string
}

type emittedTitle struct {
	conversationID int64
	title          string
}

func (n *recordingNotifier) EmitMessage(messageID int64, content string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, emittedMessage{messageID, content})
}

func (n *recordingNotifier) EmitMessageFinish(messageID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finishes = append(n.finishes, messageID)
}

func (n *recordingNotifier) EmitTitleChange(conversationID int64, title string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, emittedTitle{conversationID, title})
}

func (n *recordingNotifier) EmitError(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) snapshotMessages() []emittedMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]emittedMessage(nil), n.messages...)
}

func (n *recordingNotifier) finishCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.finishes)
}

// fakeStream replays scripted events.
type fakeStream struct {
	mu     sync.Mutex
	events []*provider.StreamEvent
	err    error
	closed bool
}

func (s *fakeStream) Recv() (*provider.StreamEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	event := s.events[0]
	s.events = s.events[1:]
	return event, nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// fakeClient scripts the provider surface.
type fakeClient struct {
	chatResult string
	chatErr    error
	chatDelay  time.Duration
	stream     *fakeStream
	streamErr  error
}

func (c *fakeClient) Chat(ctx context.Context, model string, messages []provider.ChatMessage, opts *provider.ChatOptions) (string, error) {
	if c.chatDelay > 0 {
		select {
		case <-time.After(c.chatDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.chatResult, c.chatErr
}

func (c *fakeClient) ChatStream(ctx context.Context, model string, messages []provider.ChatMessage, opts *provider.ChatOptions) (provider.Stream, error) {
	if c.streamErr != nil {
		return nil, c.streamErr
	}
	return c.stream, nil
}

// newTestService wires a Service over the fake driver with a short idle
// timeout and the given client.
func newTestService(driver *fakeDriver, notifier Notifier, client provider.Client) *Service {
	service := NewService(store.New(driver, &profile.Profile{Mode: "dev"}), notifier, NewRegistry())
	service.idleTimeout = 2 * time.Second
	service.clients = func(*store.ModelDetail) (provider.Client, error) {
		return client, nil
	}
	return service
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
