package service

import (
	"go.uber.org/zap"

	"github.com/aloisiojr22/op-track-cycle/internal/realtime"
	"github.com/aloisiojr22/op-track-cycle/internal/repository"
)

// Deps Service 层共享的基础设施；Locker / Cache / Listeners 可为 nil
type Deps struct {
	Repo      *repository.Repository
	Publisher realtime.Publisher
	Locker    DayLocker
	Cache     ProfileCache
	Listeners ListenerCounter
	Clock     Clock
	Logger    *zap.Logger
}

// Service 所有 Service 的聚合入口
type Service struct {
	Day       DayService
	Pending   PendingService
	Activity  ActivityService
	User      UserService
	Chat      ChatService
	Report    ReportService
	Export    ExportService
	Assistant AssistantService
	OpLog     OperationLogService
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	oplog := NewOperationLogService(d.Repo, d.Logger)
	report := NewReportService(d.Repo, d.Listeners, d.Clock, d.Logger)

	return &Service{
		Day:       NewDayService(d.Repo, d.Locker, d.Publisher, oplog, d.Clock, d.Logger),
		Pending:   NewPendingService(d.Repo, d.Publisher, oplog, d.Clock, d.Logger),
		Activity:  NewActivityService(d.Repo, d.Publisher, oplog, d.Logger),
		User:      NewUserService(d.Repo, d.Cache, d.Publisher, oplog, d.Logger),
		Chat:      NewChatService(d.Repo, d.Publisher, d.Clock, d.Logger),
		Report:    report,
		Export:    NewExportService(report, d.Clock, d.Logger),
		Assistant: NewAssistantService(),
		OpLog:     oplog,
	}
}
