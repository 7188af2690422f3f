package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

// PendingItemFilter 待办列表查询条件
type PendingItemFilter struct {
	Resolved       *bool  // nil 表示不限
	AssignedUserID string // 指派给某用户
	OriginalUserID string // 由某用户产生
	OnlySpecial    bool
	Offset         int
	Limit          int
}

// AssigneeCount 按指派人统计的未处理待办数
type AssigneeCount struct {
	UserID string
	Count  int64
}

// PendingItemRepository 待办事项数据访问接口
type PendingItemRepository interface {
	Create(ctx context.Context, item *model.PendingItem) error
	GetByID(ctx context.Context, id string) (*model.PendingItem, error)
	List(ctx context.Context, filter PendingItemFilter) ([]model.PendingItem, int64, error)

	// Escalate 结束工作日的单步写入：新建待办并把来源记录置为 pendente，同一事务
	Escalate(ctx context.Context, item *model.PendingItem, recordID string) error
	// Assign 设置指派人；requeue 非空时在同一事务内把活动重新排入指派人当天的记录
	// （冲突时把已有记录状态重置为 nao_iniciada）
	Assign(ctx context.Context, itemID, assigneeID string, requeue *model.DailyRecord) error
	// Resolve 标记已处理；cascade 为 true 时同一事务内把匹配的每日记录置为 concluida_com_atraso
	Resolve(ctx context.Context, item *model.PendingItem, cascade bool) error

	CountUnresolved(ctx context.Context) (int64, error)
	CountUnresolvedForUser(ctx context.Context, userID string) (int64, error)
	CountUnresolvedByAssignee(ctx context.Context) ([]AssigneeCount, error)
}

type pendingItemRepo struct {
	db *gorm.DB
}

// NewPendingItemRepo 创建 PendingItemRepository 实例
func NewPendingItemRepo(db *gorm.DB) PendingItemRepository {
	return &pendingItemRepo{db: db}
}

func (r *pendingItemRepo) Create(ctx context.Context, item *model.PendingItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *pendingItemRepo) GetByID(ctx context.Context, id string) (*model.PendingItem, error) {
	var item model.PendingItem
	err := r.db.WithContext(ctx).
		Preload("Activity", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *pendingItemRepo) List(ctx context.Context, filter PendingItemFilter) ([]model.PendingItem, int64, error) {
	var items []model.PendingItem
	var total int64

	db := r.db.WithContext(ctx).Model(&model.PendingItem{})
	if filter.Resolved != nil {
		db = db.Where("resolved = ?", *filter.Resolved)
	}
	if filter.AssignedUserID != "" {
		db = db.Where("assigned_user_id = ?", filter.AssignedUserID)
	}
	if filter.OriginalUserID != "" {
		db = db.Where("original_user_id = ?", filter.OriginalUserID)
	}
	if filter.OnlySpecial {
		db = db.Where("is_special_request = ?", true)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.
		Preload("Activity", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&items).Error
	return items, total, err
}

func (r *pendingItemRepo) Escalate(ctx context.Context, item *model.PendingItem, recordID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		result := tx.Model(&model.DailyRecord{}).
			Where("id = ?", recordID).
			Updates(map[string]interface{}{
				"status":     status.Pending,
				"updated_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *pendingItemRepo) Assign(ctx context.Context, itemID, assigneeID string, requeue *model.DailyRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.PendingItem{}).
			Where("id = ?", itemID).
			Updates(map[string]interface{}{
				"assigned_user_id": assigneeID,
				"updated_at":       gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if requeue == nil {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns: dailyRecordKey,
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":     status.NotStarted,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Create(requeue).Error
	})
}

func (r *pendingItemRepo) Resolve(ctx context.Context, item *model.PendingItem, cascade bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.PendingItem{}).
			Where("id = ? AND resolved = ?", item.ID, false).
			Updates(map[string]interface{}{
				"resolved":      true,
				"resolved_at":   item.ResolvedAt,
				"justification": item.Justification,
				"action_taken":  item.ActionTaken,
				"updated_at":    gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if !cascade {
			return nil
		}
		// 按 (activity_id, original_user_id, original_date) 匹配；唯一约束保证至多一行
		return tx.Model(&model.DailyRecord{}).
			Where("activity_id = ? AND user_id = ? AND date = ?", item.ActivityID, item.OriginalUserID, item.OriginalDate).
			Updates(map[string]interface{}{
				"status":     status.CompletedLate,
				"updated_at": gorm.Expr("NOW()"),
			}).Error
	})
}

func (r *pendingItemRepo) CountUnresolved(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PendingItem{}).
		Where("resolved = ?", false).
		Count(&count).Error
	return count, err
}

func (r *pendingItemRepo) CountUnresolvedForUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PendingItem{}).
		Where("resolved = ? AND (original_user_id = ? OR assigned_user_id = ?)", false, userID, userID).
		Count(&count).Error
	return count, err
}

func (r *pendingItemRepo) CountUnresolvedByAssignee(ctx context.Context) ([]AssigneeCount, error) {
	var rows []struct {
		AssignedUserID string
		Total          int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.PendingItem{}).
		Select("assigned_user_id, COUNT(*) AS total").
		Where("resolved = ? AND assigned_user_id IS NOT NULL", false).
		Group("assigned_user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make([]AssigneeCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, AssigneeCount{UserID: row.AssignedUserID, Count: row.Total})
	}
	return counts, nil
}
