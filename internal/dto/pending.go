package dto

// ── 待办模块 DTO ──

// PendingListRequest 待办列表查询参数
type PendingListRequest struct {
	PaginationRequest
	Resolved       *bool  `form:"resolved"`
	AssignedUserID string `form:"assigned_user_id" binding:"omitempty,uuid"`
	OriginalUserID string `form:"original_user_id" binding:"omitempty,uuid"`
	OnlySpecial    bool   `form:"only_special"`
	Mine           bool   `form:"mine"`
}

// AssignPendingRequest 指派待办
type AssignPendingRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// ResolvePendingRequest 处理待办；留空的字段保留原值
type ResolvePendingRequest struct {
	Justification string `json:"justification" binding:"max=2000"`
	ActionTaken   string `json:"action_taken"  binding:"max=2000"`
}

// CreateSpecialRequestRequest 创建特殊请求
type CreateSpecialRequestRequest struct {
	RequestType string `json:"request_type" binding:"required,request_type"`
	Description string `json:"description"  binding:"max=2000"`
	ActionTaken string `json:"action_taken" binding:"max=2000"`
}

// PendingItemResponse 待办事项
type PendingItemResponse struct {
	ID               string `json:"id"`
	OriginalUserID   string `json:"original_user_id"`
	AssignedUserID   string `json:"assigned_user_id,omitempty"`
	ActivityID       string `json:"activity_id,omitempty"`
	ActivityName     string `json:"activity_name,omitempty"`
	Description      string `json:"description,omitempty"`
	Justification    string `json:"justification,omitempty"`
	ActionTaken      string `json:"action_taken,omitempty"`
	RequestType      string `json:"request_type,omitempty"`
	RequestTypeLabel string `json:"request_type_label,omitempty"`
	IsSpecialRequest bool   `json:"is_special_request"`
	Resolved         bool   `json:"resolved"`
	ResolvedAt       string `json:"resolved_at,omitempty"`
	OriginalDate     string `json:"original_date,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// PendingAlertResponse 当前用户未处理待办提醒
type PendingAlertResponse struct {
	Count int64 `json:"count"`
}
