package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aloisiojr22/op-track-cycle/internal/model"
)

// AssignmentRepository 用户 × 活动分配数据访问接口
type AssignmentRepository interface {
	// ListByUser 列出用户的分配（含活动，已删除活动不返回）
	ListByUser(ctx context.Context, userID string) ([]model.UserActivity, error)
	ListAll(ctx context.Context) ([]model.UserActivity, error)
	// ReplaceForActivity 整体替换某活动的分配：先删后插，同一事务
	ReplaceForActivity(ctx context.Context, activityID string, userIDs []string, callerID string) error
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) ListByUser(ctx context.Context, userID string) ([]model.UserActivity, error) {
	var list []model.UserActivity
	err := r.db.WithContext(ctx).
		InnerJoins("Activity").
		Where("user_activities.user_id = ?", userID).
		Order(`"Activity".name ASC`).
		Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ListAll(ctx context.Context) ([]model.UserActivity, error) {
	var list []model.UserActivity
	err := r.db.WithContext(ctx).
		Order("activity_id, user_id").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ReplaceForActivity(ctx context.Context, activityID string, userIDs []string, callerID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("activity_id = ?", activityID).Delete(&model.UserActivity{}).Error; err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}

		rows := make([]model.UserActivity, 0, len(userIDs))
		for _, uid := range userIDs {
			rows = append(rows, model.UserActivity{
				UserID:     uid,
				ActivityID: activityID,
				CreatedBy:  &callerID,
			})
		}
		return tx.Create(&rows).Error
	})
}
