package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aloisiojr22/op-track-cycle/internal/realtime"
)

const sseHeartbeatInterval = 30 * time.Second

// ClientRegistry SSE 连接登记（由 realtime.Hub 实现）
type ClientRegistry interface {
	Register(client *realtime.Client)
	Unregister(clientID string)
}

// RealtimeHandler 数据变更推送
type RealtimeHandler struct {
	hub       ClientRegistry
	heartbeat time.Duration
}

// NewRealtimeHandler 创建 RealtimeHandler
func NewRealtimeHandler(hub ClientRegistry) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, heartbeat: sseHeartbeatInterval}
}

// Stream SSE 订阅
// GET /api/v1/realtime/stream?token=xxx
func (h *RealtimeHandler) Stream(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	clientID := uuid.NewString()
	client := &realtime.Client{
		ID:     clientID,
		UserID: userID,
		Events: make(chan realtime.Event, 64),
	}
	h.hub.Register(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + clientID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			h.hub.Unregister(clientID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
