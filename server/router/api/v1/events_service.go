package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// keepAliveInterval is how often an SSE comment line is written to detect
// dead connections through intermediaries that swallow FIN packets.
const keepAliveInterval = 30 * time.Second

// Events streams orchestration notifications to the frontend as
// server-sent events. Each event carries its name on the `event:` field
// and the JSON payload on `data:`.
func (s *APIV1Service) Events(c echo.Context) error {
	response := c.Response()
	response.Header().Set(echo.HeaderContentType, "text/event-stream")
	response.Header().Set(echo.HeaderCacheControl, "no-cache")
	response.Header().Set(echo.HeaderConnection, "keep-alive")
	response.WriteHeader(http.StatusOK)
	response.Flush()

	id, events := s.Hub.Subscribe()
	defer s.Hub.Unsubscribe(id)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-keepAlive.C:
			if _, err := fmt.Fprint(response, ": keep-alive\n\n"); err != nil {
				return nil
			}
			response.Flush()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			payload, err := event.Encode()
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(response, "event: %s\ndata: %s\n\n", event.Name, payload); err != nil {
				return nil
			}
			response.Flush()
		}
	}
}
