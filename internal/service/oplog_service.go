package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/repository"
)

// 操作类型
const (
	OpStartDay          = "start_day"
	OpEndDay            = "end_day"
	OpUpdateStatus      = "update_status"
	OpSaveJustification = "save_justification"
	OpAssign            = "assign"
	OpResolve           = "resolve"
	OpSpecialRequest    = "special_request"
	OpCreate            = "create"
	OpUpdate            = "update"
	OpDelete            = "delete"
	OpReplace           = "replace"
)

// LogEntry 一条待写入的操作日志
type LogEntry struct {
	UserID    string
	Operation string
	Table     string
	RecordID  string
	Payload   interface{}
	Err       error
}

// OperationLogService 操作日志业务接口
type OperationLogService interface {
	// Record 尽力写入，失败只记日志
	Record(ctx context.Context, entry LogEntry)
	List(ctx context.Context, req *dto.OperationLogListRequest) ([]dto.OperationLogResponse, int64, error)
}

type operationLogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewOperationLogService 创建 OperationLogService 实例
func NewOperationLogService(repo *repository.Repository, logger *zap.Logger) OperationLogService {
	return &operationLogService{repo: repo, logger: logger}
}

func (s *operationLogService) Record(ctx context.Context, entry LogEntry) {
	row := &model.OperationLog{
		Operation: entry.Operation,
		Table:     entry.Table,
		UserID:    optionalText(entry.UserID),
		RecordID:  optionalText(entry.RecordID),
	}
	if entry.Payload != nil {
		if b, err := json.Marshal(entry.Payload); err == nil {
			row.Payload = strPtr(string(b))
		}
	}
	if entry.Err != nil {
		row.Error = strPtr(entry.Err.Error())
	}

	// 请求取消不应丢失审计记录
	if err := s.repo.OperationLog.Create(context.WithoutCancel(ctx), row); err != nil {
		s.logger.Warn("写入操作日志失败",
			zap.String("operation", entry.Operation),
			zap.String("table", entry.Table),
			zap.Error(err),
		)
	}
}

func (s *operationLogService) List(ctx context.Context, req *dto.OperationLogListRequest) ([]dto.OperationLogResponse, int64, error) {
	logs, total, err := s.repo.OperationLog.List(ctx, repository.OperationLogFilter{
		Table:     req.Table,
		Operation: req.Operation,
		UserID:    req.UserID,
		Offset:    req.GetOffset(),
		Limit:     req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("查询操作日志失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.OperationLogResponse, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		list = append(list, dto.OperationLogResponse{
			ID:        l.ID,
			UserID:    deref(l.UserID),
			Operation: l.Operation,
			Table:     l.Table,
			RecordID:  deref(l.RecordID),
			Payload:   deref(l.Payload),
			Error:     deref(l.Error),
			CreatedAt: l.CreatedAt.UTC().Format(dto.TimeLayout),
		})
	}
	return list, total, nil
}
