package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sunzhuo/teatalk/chat"
	"github.com/sunzhuo/teatalk/store"
)

type askRequestBody struct {
	chat.AskRequest
	OverrideModelConfig map[string]any `json:"override_model_config,omitempty"`
	OverridePrompt      *string        `json:"override_prompt,omitempty"`
}

type cancelRequestBody struct {
	MessageID int64 `json:"message_id"`
}

type regenerateRequestBody struct {
	MessageID int64 `json:"message_id"`
}

// Ask dispatches a chat request and returns the created message id. The
// generated content is delivered through the event stream.
func (s *APIV1Service) Ask(c echo.Context) error {
	body := &askRequestBody{}
	if err := c.Bind(body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if body.Prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt is required")
	}
	if body.AssistantID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "assistant_id is required")
	}

	response, err := s.ChatService.Ask(c.Request().Context(), &body.AskRequest, body.OverrideModelConfig, body.OverridePrompt)
	if err != nil {
		return chatError(err)
	}
	return c.JSON(http.StatusOK, response)
}

// Cancel aborts an in-flight generation. Cancelling an unknown message is
// not an error.
func (s *APIV1Service) Cancel(c echo.Context) error {
	body := &cancelRequestBody{}
	if err := c.Bind(body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	s.ChatService.Cancel(body.MessageID)
	return c.NoContent(http.StatusNoContent)
}

// Regenerate produces an alternative reply for a previously answered
// message.
func (s *APIV1Service) Regenerate(c echo.Context) error {
	body := &regenerateRequestBody{}
	if err := c.Bind(body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if body.MessageID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "message_id is required")
	}

	response, err := s.ChatService.Regenerate(c.Request().Context(), body.MessageID)
	if err != nil {
		return chatError(err)
	}
	return c.JSON(http.StatusOK, response)
}

// RegenerateTitle re-derives the title of a conversation.
func (s *APIV1Service) RegenerateTitle(c echo.Context) error {
	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed conversation id")
	}
	if err := s.ChatService.RegenerateTitle(c.Request().Context(), conversationID); err != nil {
		return chatError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListConversations returns all conversations.
func (s *APIV1Service) ListConversations(c echo.Context) error {
	conversations, err := s.Store.ListConversations(c.Request().Context(), &store.FindConversation{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list conversations").SetInternal(err)
	}
	return c.JSON(http.StatusOK, conversations)
}

// ListMessages returns the messages of a conversation with their
// attachments, in creation order.
func (s *APIV1Service) ListMessages(c echo.Context) error {
	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed conversation id")
	}
	pairs, err := s.Store.ListMessagesByConversationID(c.Request().Context(), conversationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list messages").SetInternal(err)
	}
	return c.JSON(http.StatusOK, pairs)
}

// chatError maps orchestration errors to HTTP status codes.
func chatError(err error) error {
	switch {
	case errors.Is(err, chat.ErrAssistantNotFound),
		errors.Is(err, chat.ErrMessageNotFound),
		errors.Is(err, chat.ErrConversationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, chat.ErrNoModelFound),
		errors.Is(err, chat.ErrInsufficientMessages):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}
