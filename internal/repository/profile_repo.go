package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

// bootstrapLockKey 首个档案判定使用的事务级 advisory lock
const bootstrapLockKey = 7262001

// ProfileRepository 用户档案数据访问接口
type ProfileRepository interface {
	// CreateWithBootstrap 串行化创建档案；表中尚无任何档案（含已删除）时把 p 提升为已审批的 supervisor。
	// 返回 p 是否被提升
	CreateWithBootstrap(ctx context.Context, p *model.Profile) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Profile, error)
	List(ctx context.Context, approvalStatus string) ([]model.Profile, error)
	CountByApproval(ctx context.Context, approvalStatus string) (int64, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type profileRepo struct {
	db *gorm.DB
}

// NewProfileRepo 创建 ProfileRepository 实例
func NewProfileRepo(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) CreateWithBootstrap(ctx context.Context, p *model.Profile) (bool, error) {
	promoted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 并发的首批请求在此排队，计数与插入之间不会被插队
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", bootstrapLockKey).Error; err != nil {
			return err
		}
		// 含已删除档案：首个用户判定不应因删除而重新触发
		var count int64
		if err := tx.Unscoped().Model(&model.Profile{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			p.Role = status.RoleSupervisor
			p.ApprovalStatus = status.ApprovalApproved
			promoted = true
		}
		return tx.Create(p).Error
	})
	if err != nil {
		return false, err
	}
	return promoted, nil
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) GetByIDs(ctx context.Context, ids []string) ([]model.Profile, error) {
	var profiles []model.Profile
	if len(ids) == 0 {
		return profiles, nil
	}
	// 报表需要显示已删除用户的历史记录，这里不过滤软删除
	err := r.db.WithContext(ctx).Unscoped().Where("id IN ?", ids).Find(&profiles).Error
	return profiles, err
}

func (r *profileRepo) List(ctx context.Context, approvalStatus string) ([]model.Profile, error) {
	var profiles []model.Profile
	db := r.db.WithContext(ctx)
	if approvalStatus != "" {
		db = db.Where("approval_status = ?", approvalStatus)
	}
	err := db.Order("created_at DESC").Find(&profiles).Error
	return profiles, err
}

func (r *profileRepo) CountByApproval(ctx context.Context, approvalStatus string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("approval_status = ?", approvalStatus).
		Count(&count).Error
	return count, err
}

func (r *profileRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Profile{}).
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

func (r *profileRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
