package dto

// ── 工作日模块 DTO ──

// DayRequest 开始 / 结束工作日请求，date 省略时取业务时区的今天
type DayRequest struct {
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// UpdateStatusRequest 修改活动状态
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,activity_status"`
}

// SaveJustificationRequest 保存理由与已采取措施
type SaveJustificationRequest struct {
	Justification string `json:"justification" binding:"max=2000"`
	ActionTaken   string `json:"action_taken"  binding:"max=2000"`
}

// DailyRecordResponse 每日记录
type DailyRecordResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	ActivityID    string `json:"activity_id"`
	ActivityName  string `json:"activity_name,omitempty"`
	Date          string `json:"date"`
	Status        string `json:"status"`
	StatusLabel   string `json:"status_label"`
	Justification string `json:"justification,omitempty"`
	ActionTaken   string `json:"action_taken,omitempty"`
	StartedAt     string `json:"started_at,omitempty"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

// TodayActivity 今日活动（分配 + 当日记录）
type TodayActivity struct {
	ActivityID          string               `json:"activity_id"`
	Name                string               `json:"name"`
	IsDutyActivity      bool                 `json:"is_duty_activity"`
	IsMonthlyConference bool                 `json:"is_monthly_conference"`
	AvailableStatuses   []string             `json:"available_statuses"`
	Record              *DailyRecordResponse `json:"record,omitempty"`
}

// TodayResponse 今日工作台
type TodayResponse struct {
	Date       string          `json:"date"`
	DayStarted bool            `json:"day_started"`
	Activities []TodayActivity `json:"activities"`
}

// StartDayResponse 开始工作日结果
type StartDayResponse struct {
	Date     string `json:"date"`
	Created  int64  `json:"created"`
	Existing int64  `json:"existing"`
}

// EndDayResponse 结束工作日结果
type EndDayResponse struct {
	Date            string                `json:"date"`
	InProgressMoved int                   `json:"in_progress_moved"`
	NotStartedMoved int                   `json:"not_started_moved"`
	Untouched       int                   `json:"untouched"`
	PendingItems    []PendingItemResponse `json:"pending_items"`
}
