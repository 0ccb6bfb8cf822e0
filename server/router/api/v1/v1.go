// Package v1 exposes the HTTP API of the conversation service.
package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/sunzhuo/teatalk/chat"
	"github.com/sunzhuo/teatalk/internal/profile"
	"github.com/sunzhuo/teatalk/server/events"
	"github.com/sunzhuo/teatalk/store"
)

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	ChatService *chat.Service
	Hub         *events.Hub
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, chatService *chat.Service, hub *events.Hub) *APIV1Service {
	return &APIV1Service{
		Profile:     profile,
		Store:       store,
		ChatService: chatService,
		Hub:         hub,
	}
}

// RegisterRoutes mounts all v1 routes on the echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	group := e.Group("/api/v1")

	group.POST("/chat/ask", s.Ask)
	group.POST("/chat/cancel", s.Cancel)
	group.POST("/chat/regenerate", s.Regenerate)
	group.POST("/conversations/:id/regenerate-title", s.RegenerateTitle)
	group.GET("/conversations", s.ListConversations)
	group.GET("/conversations/:id/messages", s.ListMessages)
	group.POST("/attachments", s.UploadAttachment)
	group.GET("/events", s.Events)
}
