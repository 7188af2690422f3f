package dto

// ── 活动目录模块 DTO ──

// CreateActivityRequest 创建活动
type CreateActivityRequest struct {
	Name                string `json:"name"                  binding:"required,max=200"`
	Description         string `json:"description"           binding:"max=2000"`
	IsDutyActivity      bool   `json:"is_duty_activity"`
	IsMonthlyConference bool   `json:"is_monthly_conference"`
}

// UpdateActivityRequest 更新活动
type UpdateActivityRequest struct {
	Name                *string `json:"name"                  binding:"omitempty,max=200"`
	Description         *string `json:"description"           binding:"omitempty,max=2000"`
	IsDutyActivity      *bool   `json:"is_duty_activity"`
	IsMonthlyConference *bool   `json:"is_monthly_conference"`
}

// ReplaceAssignmentsRequest 整体替换活动分配
type ReplaceAssignmentsRequest struct {
	UserIDs []string `json:"user_ids" binding:"omitempty,dive,uuid"`
}

// ActivityResponse 活动信息
type ActivityResponse struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	IsDutyActivity      bool     `json:"is_duty_activity"`
	IsMonthlyConference bool     `json:"is_monthly_conference"`
	AvailableStatuses   []string `json:"available_statuses"`
	CreatedAt           string   `json:"created_at"`
	UpdatedAt           string   `json:"updated_at"`
}

// AssignmentResponse 用户 × 活动分配
type AssignmentResponse struct {
	UserID     string `json:"user_id"`
	ActivityID string `json:"activity_id"`
}
