package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/realtime"
	"github.com/aloisiojr22/op-track-cycle/internal/repository"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
	pkgerrors "github.com/aloisiojr22/op-track-cycle/pkg/errors"
)

// ── 用户档案模块业务错误 ──

var (
	ErrProfileNotFound  = errors.New("用户不存在")
	ErrCannotDeleteSelf = errors.New("不能删除自己的账号")
	ErrInvalidRole      = errors.New("无效的角色")
)

// UserService 用户档案业务接口
type UserService interface {
	// EnsureProfile 首次认证时创建档案：第一个档案为已审批的 supervisor，其余为待审批的 operador
	EnsureProfile(ctx context.Context, userID, email string) (*model.Profile, error)
	GetMe(ctx context.Context, userID string) (*dto.ProfileResponse, error)
	List(ctx context.Context, req *dto.ProfileListRequest) ([]dto.ProfileResponse, error)
	Approve(ctx context.Context, id, callerID string) (*dto.ProfileResponse, error)
	Reject(ctx context.Context, id, callerID string) (*dto.ProfileResponse, error)
	UpdateRole(ctx context.Context, id string, req *dto.UpdateRoleRequest, callerID string) (*dto.ProfileResponse, error)
	Delete(ctx context.Context, id, callerID string) error
}

type userService struct {
	repo   *repository.Repository
	cache  ProfileCache
	pub    realtime.Publisher
	oplog  OperationLogService
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例；cache 可为 nil
func NewUserService(
	repo *repository.Repository,
	cache ProfileCache,
	pub realtime.Publisher,
	oplog OperationLogService,
	logger *zap.Logger,
) UserService {
	return &userService{repo: repo, cache: cache, pub: pub, oplog: oplog, logger: logger}
}

// ────────────────────── EnsureProfile ──────────────────────

func (s *userService) EnsureProfile(ctx context.Context, userID, email string) (*model.Profile, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, userID); ok {
			return p, nil
		}
	}

	p, err := s.repo.Profile.GetByID(ctx, userID)
	if err == nil {
		s.cacheSet(ctx, p)
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	// 默认待审批；首个档案由存储层在同一事务内提升为 supervisor
	p = &model.Profile{
		ID:             userID,
		Email:          email,
		Role:           status.RoleOperator,
		ApprovalStatus: status.ApprovalPending,
	}

	if _, err := s.repo.Profile.CreateWithBootstrap(ctx, p); err != nil {
		// 并发的首个请求已创建，或档案已被删除
		if errors.Is(pkgerrors.MapDBError(err), pkgerrors.ErrConflict) {
			existing, getErr := s.repo.Profile.GetByID(ctx, userID)
			if getErr != nil {
				return nil, ErrProfileNotFound
			}
			return existing, nil
		}
		s.logger.Error("创建用户档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("创建用户档案",
		zap.String("user_id", userID),
		zap.String("role", p.Role),
		zap.String("approval_status", p.ApprovalStatus),
	)
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TableProfiles, Action: "insert", RecordID: userID})
	s.cacheSet(ctx, p)
	return p, nil
}

// ────────────────────── GetMe / List ──────────────────────

func (s *userService) GetMe(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	p, err := s.getProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfileResponse(p), nil
}

func (s *userService) List(ctx context.Context, req *dto.ProfileListRequest) ([]dto.ProfileResponse, error) {
	profiles, err := s.repo.Profile.List(ctx, req.ApprovalStatus)
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, err
	}
	list := make([]dto.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		list = append(list, *toProfileResponse(&profiles[i]))
	}
	return list, nil
}

// ────────────────────── 审批 / 角色 ──────────────────────

func (s *userService) Approve(ctx context.Context, id, callerID string) (*dto.ProfileResponse, error) {
	return s.updateProfile(ctx, id, callerID, map[string]interface{}{"approval_status": status.ApprovalApproved})
}

func (s *userService) Reject(ctx context.Context, id, callerID string) (*dto.ProfileResponse, error) {
	return s.updateProfile(ctx, id, callerID, map[string]interface{}{"approval_status": status.ApprovalRejected})
}

func (s *userService) UpdateRole(ctx context.Context, id string, req *dto.UpdateRoleRequest, callerID string) (*dto.ProfileResponse, error) {
	if !status.ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}
	return s.updateProfile(ctx, id, callerID, map[string]interface{}{"role": req.Role})
}

func (s *userService) updateProfile(ctx context.Context, id, callerID string, fields map[string]interface{}) (*dto.ProfileResponse, error) {
	if err := s.repo.Profile.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("更新用户档案失败", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	s.cacheInvalidate(ctx, id)

	s.oplog.Record(ctx, LogEntry{UserID: callerID, Operation: OpUpdate, Table: realtime.TableProfiles, RecordID: id, Payload: fields})
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TableProfiles, Action: "update", RecordID: id})

	return s.GetMe(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id, callerID string) error {
	if id == callerID {
		return ErrCannotDeleteSelf
	}
	if _, err := s.getProfile(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Profile.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除用户失败", zap.String("user_id", id), zap.Error(err))
		return err
	}
	s.cacheInvalidate(ctx, id)

	s.oplog.Record(ctx, LogEntry{UserID: callerID, Operation: OpDelete, Table: realtime.TableProfiles, RecordID: id})
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TableProfiles, Action: "delete", RecordID: id})
	return nil
}

// ── 辅助方法 ──

func (s *userService) getProfile(ctx context.Context, id string) (*model.Profile, error) {
	p, err := s.repo.Profile.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("查询用户档案失败", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (s *userService) cacheSet(ctx context.Context, p *model.Profile) {
	if s.cache != nil {
		s.cache.Set(ctx, p)
	}
}

func (s *userService) cacheInvalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func toProfileResponse(p *model.Profile) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		ID:             p.ID,
		Email:          p.Email,
		FullName:       deref(p.FullName),
		DisplayName:    p.DisplayName(),
		Role:           p.Role,
		ApprovalStatus: p.ApprovalStatus,
		CreatedAt:      p.CreatedAt.UTC().Format(dto.TimeLayout),
	}
}
