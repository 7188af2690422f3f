package dto

// ── 聊天模块 DTO ──

// SendMessageRequest 发送消息；receiver_id 为空且 broadcast=true 时为群发
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" binding:"omitempty,uuid"`
	Broadcast  bool   `json:"broadcast"`
	Message    string `json:"message"     binding:"required,max=2000"`
}

// ConversationRequest 会话查询参数
type ConversationRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// ChatMessageResponse 聊天消息
type ChatMessageResponse struct {
	ID          string `json:"id"`
	SenderID    string `json:"sender_id"`
	SenderName  string `json:"sender_name,omitempty"`
	ReceiverID  string `json:"receiver_id,omitempty"`
	Message     string `json:"message"`
	IsBroadcast bool   `json:"is_broadcast"`
	ReadAt      string `json:"read_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// ChatContactResponse 可聊天用户及其未读数
type ChatContactResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Unread      int64  `json:"unread"`
}

// UnreadResponse 未读消息汇总
type UnreadResponse struct {
	Total    int64            `json:"total"`
	BySender map[string]int64 `json:"by_sender"`
}
