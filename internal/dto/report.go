package dto

// ── 报表 / 历史 / 仪表盘 DTO ──

// PeriodRequest 统计周期
type PeriodRequest struct {
	Period string `form:"period" binding:"omitempty,oneof=day week month"`
}

// ReportExportRequest 报表导出参数
type ReportExportRequest struct {
	Period string `form:"period" binding:"omitempty,oneof=day week month"`
	Format string `form:"format" binding:"omitempty,oneof=xlsx csv"`
}

// HistoryExportRequest 历史导出（iCalendar）参数
type HistoryExportRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}

// OperatorStats 单个操作员在周期内的统计
type OperatorStats struct {
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Total          int    `json:"total"`
	Completed      int    `json:"completed"`
	Pending        int    `json:"pending"`
	Late           int    `json:"late"`
	CompletionRate int    `json:"completion_rate"`
	LateRate       int    `json:"late_rate"`
}

// DailyBreakdown 按日期汇总
type DailyBreakdown struct {
	Date       string `json:"date"`
	Completed  int    `json:"concluida"`
	Pending    int    `json:"pendente"`
	InProgress int    `json:"em_andamento"`
	NotStarted int    `json:"nao_iniciada"`
}

// StatusCount 状态分布
type StatusCount struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// ReportResponse 管理报表
type ReportResponse struct {
	Period       string           `json:"period"`
	From         string           `json:"from"`
	To           string           `json:"to"`
	Operators    []OperatorStats  `json:"operators"`
	Daily        []DailyBreakdown `json:"daily"`
	Distribution []StatusCount    `json:"distribution"`
}

// OperatorDetailResponse 单个操作员明细
type OperatorDetailResponse struct {
	Stats   OperatorStats         `json:"stats"`
	Records []DailyRecordResponse `json:"records"`
}

// PeriodSummary 个人周期统计
type PeriodSummary struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	InProgress int    `json:"in_progress"`
	NotStarted int    `json:"not_started"`
	Pending    int    `json:"pending"`
	Late       int    `json:"late"`
	Rate       int    `json:"rate"`
}

// OverdueRecord 逾期未完结的记录
type OverdueRecord struct {
	RecordID     string `json:"record_id"`
	ActivityName string `json:"activity_name"`
	Date         string `json:"date"`
	Status       string `json:"status"`
	DaysOverdue  int    `json:"days_overdue"`
}

// HistoryResponse 个人历史
type HistoryResponse struct {
	Period   string           `json:"period"`
	Current  PeriodSummary    `json:"current"`
	Previous PeriodSummary    `json:"previous"`
	RateDiff int              `json:"rate_diff"`
	Daily    []DailyBreakdown `json:"daily"`
	Overdue  []OverdueRecord  `json:"overdue"`
}

// DashboardResponse 管理仪表盘
type DashboardResponse struct {
	ApprovedUsers      int64 `json:"approved_users"`
	PendingApprovals   int64 `json:"pending_approvals"`
	Activities         int64 `json:"activities"`
	UnresolvedPending  int64 `json:"unresolved_pending"`
	RecordsToday       int64 `json:"records_today"`
	RecordsThisWeek    int64 `json:"records_this_week"`
	RecordsThisMonth   int64 `json:"records_this_month"`
	ConnectedListeners int   `json:"connected_listeners"`
}
