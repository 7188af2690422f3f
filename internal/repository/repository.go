package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Profile      ProfileRepository
	Activity     ActivityRepository
	Assignment   AssignmentRepository
	DailyRecord  DailyRecordRepository
	PendingItem  PendingItemRepository
	Chat         ChatRepository
	OperationLog OperationLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Profile:      NewProfileRepo(db),
		Activity:     NewActivityRepo(db),
		Assignment:   NewAssignmentRepo(db),
		DailyRecord:  NewDailyRecordRepo(db),
		PendingItem:  NewPendingItemRepo(db),
		Chat:         NewChatRepo(db),
		OperationLog: NewOperationLogRepo(db),
	}
}
