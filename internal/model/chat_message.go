package model

import "time"

// ChatMessage 聊天消息表 — 对应 chat_messages
// 广播消息 receiver_id 为空
type ChatMessage struct {
	ID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SenderID    string     `gorm:"type:uuid;not null"                             json:"sender_id"`
	ReceiverID  *string    `gorm:"type:uuid"                                      json:"receiver_id,omitempty"`
	Message     string     `gorm:"type:text;not null"                             json:"message"`
	IsBroadcast bool       `gorm:"not null;default:false"                         json:"is_broadcast"`
	ReadAt      *time.Time `gorm:"type:timestamptz"                               json:"read_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Sender *Profile `gorm:"foreignKey:SenderID;references:ID" json:"sender,omitempty"`
}

// TableName 指定表名
func (ChatMessage) TableName() string { return "chat_messages" }
