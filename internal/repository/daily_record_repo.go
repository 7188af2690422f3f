package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

// dailyRecordKey (user_id, activity_id, date) 唯一约束，upsert 冲突目标
var dailyRecordKey = []clause.Column{{Name: "user_id"}, {Name: "activity_id"}, {Name: "date"}}

// DailyRecordFilter 每日记录范围查询条件
type DailyRecordFilter struct {
	From   model.Date
	To     model.Date
	UserID string // 为空表示全部用户
}

// DailyRecordRepository 每日记录数据访问接口
type DailyRecordRepository interface {
	ListByUserAndDate(ctx context.Context, userID string, date model.Date) ([]model.DailyRecord, error)
	GetByKey(ctx context.Context, userID, activityID string, date model.Date) (*model.DailyRecord, error)
	// InsertMissing 仅插入尚不存在的记录，已存在的行保持原样；返回新插入行数
	InsertMissing(ctx context.Context, records []model.DailyRecord) (int64, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	ListByRange(ctx context.Context, filter DailyRecordFilter) ([]model.DailyRecord, error)
	CountByRange(ctx context.Context, from, to model.Date) (int64, error)
	// ListOpenBefore 列出 before 之前仍未完结（pendente / nao_iniciada / em_andamento）的记录，最早的在前
	ListOpenBefore(ctx context.Context, userID string, before model.Date, limit int) ([]model.DailyRecord, error)
}

type dailyRecordRepo struct {
	db *gorm.DB
}

// NewDailyRecordRepo 创建 DailyRecordRepository 实例
func NewDailyRecordRepo(db *gorm.DB) DailyRecordRepository {
	return &dailyRecordRepo{db: db}
}

func (r *dailyRecordRepo) ListByUserAndDate(ctx context.Context, userID string, date model.Date) ([]model.DailyRecord, error) {
	var records []model.DailyRecord
	err := r.db.WithContext(ctx).
		Preload("Activity", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ? AND date = ?", userID, date).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *dailyRecordRepo) GetByKey(ctx context.Context, userID, activityID string, date model.Date) (*model.DailyRecord, error) {
	var rec model.DailyRecord
	err := r.db.WithContext(ctx).
		Preload("Activity", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ? AND activity_id = ? AND date = ?", userID, activityID, date).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *dailyRecordRepo) InsertMissing(ctx context.Context, records []model.DailyRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: dailyRecordKey, DoNothing: true}).
		Create(&records)
	return result.RowsAffected, result.Error
}

func (r *dailyRecordRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = gorm.Expr("NOW()")
	result := r.db.WithContext(ctx).
		Model(&model.DailyRecord{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *dailyRecordRepo) ListByRange(ctx context.Context, filter DailyRecordFilter) ([]model.DailyRecord, error) {
	var records []model.DailyRecord
	db := r.db.WithContext(ctx).
		Preload("Activity", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("date BETWEEN ? AND ?", filter.From, filter.To)
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	err := db.Order("date DESC, created_at ASC").Find(&records).Error
	return records, err
}

func (r *dailyRecordRepo) CountByRange(ctx context.Context, from, to model.Date) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.DailyRecord{}).
		Where("date BETWEEN ? AND ?", from, to).
		Count(&count).Error
	return count, err
}

func (r *dailyRecordRepo) ListOpenBefore(ctx context.Context, userID string, before model.Date, limit int) ([]model.DailyRecord, error) {
	var records []model.DailyRecord
	err := r.db.WithContext(ctx).
		Preload("Activity", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ? AND date < ? AND status IN ?", userID, before,
			[]status.Status{status.Pending, status.NotStarted, status.InProgress}).
		Order("date ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
