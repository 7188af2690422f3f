package dto

// ── 智能助手 DTO ──

// AssistantQuery 助手提问
type AssistantQuery struct {
	Question string `json:"question" binding:"required,max=500"`
}

// AssistantAnswer 助手回答
type AssistantAnswer struct {
	Answer     string   `json:"answer"`
	Confidence int      `json:"confidence"`
	Sources    []string `json:"sources"`
}

// ── 操作日志 DTO ──

// OperationLogListRequest 操作日志查询参数
type OperationLogListRequest struct {
	PaginationRequest
	Table     string `form:"table"     binding:"omitempty,max=60"`
	Operation string `form:"operation" binding:"omitempty,max=40"`
	UserID    string `form:"user_id"   binding:"omitempty,uuid"`
}

// OperationLogResponse 操作日志
type OperationLogResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id,omitempty"`
	Operation string `json:"operation"`
	Table     string `json:"table_name"`
	RecordID  string `json:"record_id,omitempty"`
	Payload   string `json:"payload,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

// AssistantBatchQuery 批量提问
type AssistantBatchQuery struct {
	Questions []string `json:"questions" binding:"required,min=1,max=20,dive,required,max=500"`
}
