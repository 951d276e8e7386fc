package handlers

import (
	"io"
	"net/http"
	"time"

	"promptdir/internal/events"
	"promptdir/internal/logger"

	"github.com/gin-gonic/gin"
)

const sseHeartbeat = 15 * time.Second

type EventsHandler struct {
	bus      events.Bus
	stopping <-chan struct{}
	log      *logger.Logger
}

// NewEventsHandler streams bus events. Streams end when stopping is closed, so server
// shutdown does not wait on them; nil never stops.
func NewEventsHandler(bus events.Bus, stopping <-chan struct{}, log *logger.Logger) *EventsHandler {
	return &EventsHandler{bus: bus, stopping: stopping, log: log.With("handler", "EventsHandler")}
}

// Stream sends change events as server-sent events until the client goes away.
// Events only name what changed; clients re-fetch through the normal endpoints.
func (h *EventsHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	ch, err := h.bus.Subscribe(ctx)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	// Send headers now so clients see the stream open before the first event.
	c.Writer.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-h.stopping:
			return false
		case <-heartbeat.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			return true
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		}
	})
	h.log.Debug("SSE client disconnected")
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
