package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/sunzhuo/teatalk/store"
)

// openAIClient drives any OpenAI-compatible endpoint.
type openAIClient struct {
	client *openai.Client
}

var _ Client = (*openAIClient)(nil)

// NewClient builds a provider client from a resolved model detail. The
// provider configs supply the authentication credential (api_key) and an
// optional endpoint override.
func NewClient(detail *store.ModelDetail) (Client, error) {
	if detail == nil || detail.Provider == nil || detail.Model == nil {
		return nil, fmt.Errorf("incomplete model detail")
	}

	var apiKey, endpoint string
	for _, config := range detail.Configs {
		switch config.Name {
		case "api_key":
			apiKey = config.Value
		case "endpoint":
			endpoint = config.Value
		}
	}

	kind := InferAdapterKind(detail.Model.Code, detail.Provider.APIType)
	baseURL := normalizeEndpoint(endpoint, kind)

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = baseURL
	clientConfig.HTTPClient = newHTTPClient()

	slog.Debug("provider client created",
		"provider", detail.Provider.Name,
		"adapter", kind,
		"base_url", baseURL,
		"model", detail.Model.Code,
	)

	return &openAIClient{client: openai.NewClientWithConfig(clientConfig)}, nil
}

// newHTTPClient creates an HTTP client with connection pooling tuned for
// long-lived streaming responses.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 60 * time.Second,
		},
	}
}

func (c *openAIClient) Chat(ctx context.Context, model string, messages []ChatMessage, opts *ChatOptions) (string, error) {
	req := buildRequest(model, messages, opts)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from provider")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *openAIClient) ChatStream(ctx context.Context, model string, messages []ChatMessage, opts *ChatOptions) (Stream, error) {
	req := buildRequest(model, messages, opts)
	req.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create stream failed: %w", err)
	}
	return &openAIStream{inner: stream}, nil
}

// openAIStream adapts the SSE chunk stream to the typed event sequence. A
// synthetic EventStart is emitted before the first provider chunk and an
// EventEnd before io.EOF, so consumers always observe the full lifecycle.
type openAIStream struct {
	inner   *openai.ChatCompletionStream
	started bool
	ended   bool
}

func (s *openAIStream) Recv() (*StreamEvent, error) {
	if !s.started {
		s.started = true
		return &StreamEvent{Kind: EventStart}, nil
	}
	if s.ended {
		return nil, io.EOF
	}

	resp, err := s.inner.Recv()
	if err != nil {
		if err == io.EOF {
			s.ended = true
			return &StreamEvent{Kind: EventEnd}, nil
		}
		return nil, err
	}

	if len(resp.Choices) == 0 {
		// Usage-only frame; skip to the next event.
		return s.Recv()
	}

	delta := resp.Choices[0].Delta
	switch {
	case delta.Content != "":
		return &StreamEvent{Kind: EventChunk, Content: delta.Content}, nil
	case delta.ReasoningContent != "":
		return &StreamEvent{Kind: EventReasoningChunk, Content: delta.ReasoningContent}, nil
	case len(delta.ToolCalls) > 0:
		return &StreamEvent{Kind: EventToolCallChunk}, nil
	default:
		// Role-only or empty frame.
		return s.Recv()
	}
}

func (s *openAIStream) Close() error {
	return s.inner.Close()
}

func buildRequest(model string, messages []ChatMessage, opts *ChatOptions) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(messages),
	}
	if opts != nil {
		if opts.Temperature != nil {
			req.Temperature = *opts.Temperature
		}
		if opts.TopP != nil {
			req.TopP = *opts.TopP
		}
		if opts.MaxTokens != nil {
			req.MaxTokens = *opts.MaxTokens
		}
	}
	return req
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		if len(message.Parts) == 0 {
			result = append(result, openai.ChatCompletionMessage{
				Role:    message.Role,
				Content: message.Text,
			})
			continue
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:         message.Role,
			MultiContent: toOpenAIParts(message.Parts),
		})
	}
	return result
}

func toOpenAIParts(parts []ContentPart) []openai.ChatMessagePart {
	result := make([]openai.ChatMessagePart, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case PartTypeText:
			result = append(result, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: part.Text,
			})
		case PartTypeImageBase64:
			result = append(result, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", part.MIMEType, part.Base64Data),
				},
			})
		case PartTypeImageURL:
			result = append(result, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: part.ImageURL,
				},
			})
		}
	}
	return result
}
