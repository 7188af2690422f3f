package handler

import "github.com/aloisiojr22/op-track-cycle/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Health    *HealthHandler
	Day       *DayHandler
	Pending   *PendingHandler
	Activity  *ActivityHandler
	User      *UserHandler
	Chat      *ChatHandler
	Report    *ReportHandler
	Assistant *AssistantHandler
	OpLog     *OperationLogHandler
	Realtime  *RealtimeHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, hub ClientRegistry, db Pinger) *Handler {
	return &Handler{
		Health:    NewHealthHandler(db),
		Day:       NewDayHandler(svc.Day),
		Pending:   NewPendingHandler(svc.Pending),
		Activity:  NewActivityHandler(svc.Activity),
		User:      NewUserHandler(svc.User),
		Chat:      NewChatHandler(svc.Chat),
		Report:    NewReportHandler(svc.Report, svc.Export),
		Assistant: NewAssistantHandler(svc.Assistant),
		OpLog:     NewOperationLogHandler(svc.OpLog),
		Realtime:  NewRealtimeHandler(hub),
	}
}
