// Package realtime 推送数据变更通知。
//
// 客户端通过 SSE 订阅，收到 {table, action, record_id} 后自行重新拉取数据；
// 事件本身不携带完整记录。
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// 变更来源表
const (
	TableDailyRecords = "daily_records"
	TablePendingItems = "pending_items"
	TableChatMessages = "chat_messages"
	TableActivities   = "activities"
	TableProfiles     = "profiles"
	TableReminders    = "pending_reminder"
)

// Change 一次数据变更
// Users 为空表示广播给所有在线客户端
type Change struct {
	Table    string   `json:"table"`
	Action   string   `json:"action"`
	RecordID string   `json:"record_id,omitempty"`
	Count    int64    `json:"count,omitempty"`
	Users    []string `json:"users,omitempty"`
}

// Event SSE 事件
type Event struct {
	EventType string
	Data      string
}

// Client 一个 SSE 连接
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub 管理所有 SSE 连接
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub 创建 Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("SSE 客户端已连接",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)),
	)
}

// Unregister 注销客户端并关闭其事件通道
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("SSE 客户端已断开", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// CloseAll 关闭全部连接，服务停止时让 SSE 处理函数退出
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.Events)
		delete(h.clients, id)
	}
}

// ClientCount 当前在线连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast 发送给所有客户端；缓冲区满的客户端丢弃本次事件
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		h.send(client, event)
	}
}

// SendToUsers 只发送给指定用户的连接
func (h *Hub) SendToUsers(userIDs []string, event Event) {
	targets := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		targets[id] = struct{}{}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if _, ok := targets[client.UserID]; ok {
			h.send(client, event)
		}
	}
}

// Deliver 把变更转换为 SSE 事件并按目标用户分发
func (h *Hub) Deliver(change Change) {
	data, err := json.Marshal(struct {
		Table    string `json:"table"`
		Action   string `json:"action"`
		RecordID string `json:"record_id,omitempty"`
		Count    int64  `json:"count,omitempty"`
	}{change.Table, change.Action, change.RecordID, change.Count})
	if err != nil {
		h.logger.Error("序列化实时事件失败", zap.Error(err))
		return
	}

	event := Event{EventType: change.Table, Data: string(data)}
	if len(change.Users) == 0 {
		h.Broadcast(event)
		return
	}
	h.SendToUsers(change.Users, event)
}

func (h *Hub) send(client *Client, event Event) {
	select {
	case client.Events <- event:
	default:
		h.logger.Warn("SSE 客户端缓冲区已满，丢弃事件", zap.String("client_id", client.ID))
	}
}
