package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aloisiojr22/op-track-cycle/internal/model"
)

// OperationLogFilter 操作日志查询条件
type OperationLogFilter struct {
	Table     string
	Operation string
	UserID    string
	Offset    int
	Limit     int
}

// OperationLogRepository 操作日志数据访问接口
type OperationLogRepository interface {
	Create(ctx context.Context, log *model.OperationLog) error
	List(ctx context.Context, filter OperationLogFilter) ([]model.OperationLog, int64, error)
}

type operationLogRepo struct {
	db *gorm.DB
}

// NewOperationLogRepo 创建 OperationLogRepository 实例
func NewOperationLogRepo(db *gorm.DB) OperationLogRepository {
	return &operationLogRepo{db: db}
}

func (r *operationLogRepo) Create(ctx context.Context, log *model.OperationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *operationLogRepo) List(ctx context.Context, filter OperationLogFilter) ([]model.OperationLog, int64, error) {
	var logs []model.OperationLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.OperationLog{})
	if filter.Table != "" {
		db = db.Where("table_name = ?", filter.Table)
	}
	if filter.Operation != "" {
		db = db.Where("operation = ?", filter.Operation)
	}
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").Offset(filter.Offset).Limit(filter.Limit).Find(&logs).Error
	return logs, total, err
}
