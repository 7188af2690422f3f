package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aloisiojr22/op-track-cycle/internal/model"
)

// ActivityRepository 活动目录数据访问接口
type ActivityRepository interface {
	Create(ctx context.Context, a *model.Activity) error
	GetByID(ctx context.Context, id string) (*model.Activity, error)
	List(ctx context.Context) ([]model.Activity, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, a *model.Activity) error
	// Delete 软删除活动并移除其全部分配；每日记录与待办保留引用
	Delete(ctx context.Context, id string, deletedBy string) error
}

type activityRepo struct {
	db *gorm.DB
}

// NewActivityRepo 创建 ActivityRepository 实例
func NewActivityRepo(db *gorm.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Create(ctx context.Context, a *model.Activity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *activityRepo) GetByID(ctx context.Context, id string) (*model.Activity, error) {
	var a model.Activity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *activityRepo) List(ctx context.Context) ([]model.Activity, error) {
	var activities []model.Activity
	err := r.db.WithContext(ctx).Order("name ASC").Find(&activities).Error
	return activities, err
}

func (r *activityRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Activity{}).Count(&count).Error
	return count, err
}

func (r *activityRepo) Update(ctx context.Context, a *model.Activity) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *activityRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("activity_id = ?", id).Delete(&model.UserActivity{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Activity{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"deleted_by": deletedBy,
				"deleted_at": gorm.Expr("NOW()"),
			}).Error
	})
}
