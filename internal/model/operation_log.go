package model

import "time"

// OperationLog 操作日志表 — 对应 operation_logs
// 记录工作流写操作的请求载荷与失败原因，供管理员排查
type OperationLog struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    *string   `gorm:"type:uuid"                                      json:"user_id,omitempty"`
	Operation string    `gorm:"type:varchar(40);not null"                      json:"operation"`
	Table     string    `gorm:"column:table_name;type:varchar(60);not null"    json:"table_name"`
	RecordID  *string   `gorm:"type:uuid"                                      json:"record_id,omitempty"`
	Payload   *string   `gorm:"type:jsonb"                                     json:"payload,omitempty"`
	Error     *string   `gorm:"type:text"                                      json:"error,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (OperationLog) TableName() string { return "operation_logs" }
