package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"creator-hub/domain/model"
)

// PublishStatusEvent is the SSE payload pushed whenever a video changes
// publish state.
type PublishStatusEvent struct {
	Type      string  `json:"type"`
	VideoID   string  `json:"video_id"`
	Platform  string  `json:"platform"`
	Status    string  `json:"status"`
	ResultURL *string `json:"result_url,omitempty"`
	Error     *string `json:"error,omitempty"`
}

// Hub maintains per-creator subscribers listening for publish status events.
type Hub struct {
	mu       sync.RWMutex
	creators map[string]map[chan PublishStatusEvent]struct{}
}

func NewPublishHub() *Hub {
	return &Hub{creators: make(map[string]map[chan PublishStatusEvent]struct{})}
}

// Serve registers an SSE stream for the authenticated creator (user_id set by
// the auth middleware).
func (h *Hub) Serve(c *gin.Context) {
	creatorID := c.GetString("user_id")
	if creatorID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan PublishStatusEvent, 8)
	h.addSubscriber(creatorID, ch)
	defer h.removeSubscriber(creatorID, ch)

	// Initial comment to keep connection open
	c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	notify := c.Writer.CloseNotify()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: publish_status\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Hub) addSubscriber(creatorID string, ch chan PublishStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.creators[creatorID] == nil {
		h.creators[creatorID] = make(map[chan PublishStatusEvent]struct{})
	}
	h.creators[creatorID][ch] = struct{}{}
}

func (h *Hub) removeSubscriber(creatorID string, ch chan PublishStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.creators[creatorID]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.creators, creatorID)
		}
	}
}

// BroadcastVideoStatus fans the video's current state out to every stream the
// owning creator has open.
func (h *Hub) BroadcastVideoStatus(v *model.Video) {
	if v == nil {
		return
	}
	evt := PublishStatusEvent{
		Type:      "publish_status",
		VideoID:   v.ID,
		Platform:  v.PlatformTarget,
		Status:    v.Status,
		ResultURL: v.ResultURL(),
		Error:     v.ErrorMessage,
	}
	h.mu.RLock()
	subs := h.creators[v.CreatorID]
	for ch := range subs {
		select { // non-blocking
		case ch <- evt:
		default:
		}
	}
	h.mu.RUnlock()
}
