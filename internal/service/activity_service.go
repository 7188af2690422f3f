package service

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/realtime"
	"github.com/aloisiojr22/op-track-cycle/internal/repository"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

// ── 活动目录模块业务错误 ──

var (
	ErrActivityNameRequired   = errors.New("活动名称不能为空")
	ErrAssignmentUserNotFound = errors.New("分配的用户不存在")
)

// ActivityService 活动目录与分配业务接口
type ActivityService interface {
	List(ctx context.Context) ([]dto.ActivityResponse, error)
	Create(ctx context.Context, req *dto.CreateActivityRequest, callerID string) (*dto.ActivityResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateActivityRequest, callerID string) (*dto.ActivityResponse, error)
	// Delete 软删除并移除全部分配
	Delete(ctx context.Context, id string, callerID string) error
	ListAssignments(ctx context.Context) ([]dto.AssignmentResponse, error)
	// ReplaceAssignments 用 req.UserIDs 整体替换活动的分配
	ReplaceAssignments(ctx context.Context, activityID string, req *dto.ReplaceAssignmentsRequest, callerID string) ([]dto.AssignmentResponse, error)
}

type activityService struct {
	repo   *repository.Repository
	pub    realtime.Publisher
	oplog  OperationLogService
	logger *zap.Logger
}

// NewActivityService 创建 ActivityService 实例
func NewActivityService(repo *repository.Repository, pub realtime.Publisher, oplog OperationLogService, logger *zap.Logger) ActivityService {
	return &activityService{repo: repo, pub: pub, oplog: oplog, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *activityService) List(ctx context.Context) ([]dto.ActivityResponse, error) {
	activities, err := s.repo.Activity.List(ctx)
	if err != nil {
		s.logger.Error("查询活动列表失败", zap.Error(err))
		return nil, err
	}
	return lo.Map(activities, func(a model.Activity, _ int) dto.ActivityResponse {
		return *toActivityResponse(&a)
	}), nil
}

// ────────────────────── Create ──────────────────────

func (s *activityService) Create(ctx context.Context, req *dto.CreateActivityRequest, callerID string) (*dto.ActivityResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrActivityNameRequired
	}

	activity := &model.Activity{
		Name:                name,
		Description:         optionalText(req.Description),
		IsDutyActivity:      req.IsDutyActivity,
		IsMonthlyConference: req.IsMonthlyConference,
	}
	activity.CreatedBy = &callerID
	activity.UpdatedBy = &callerID

	if err := s.repo.Activity.Create(ctx, activity); err != nil {
		s.logger.Error("创建活动失败", zap.Error(err))
		return nil, err
	}

	s.oplog.Record(ctx, LogEntry{UserID: callerID, Operation: OpCreate, Table: realtime.TableActivities, RecordID: activity.ID, Payload: req})
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TableActivities, Action: "insert", RecordID: activity.ID})

	return toActivityResponse(activity), nil
}

// ────────────────────── Update ──────────────────────

func (s *activityService) Update(ctx context.Context, id string, req *dto.UpdateActivityRequest, callerID string) (*dto.ActivityResponse, error) {
	activity, err := s.getActivity(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrActivityNameRequired
		}
		activity.Name = name
	}
	if req.Description != nil {
		activity.Description = optionalText(*req.Description)
	}
	if req.IsDutyActivity != nil {
		activity.IsDutyActivity = *req.IsDutyActivity
	}
	if req.IsMonthlyConference != nil {
		activity.IsMonthlyConference = *req.IsMonthlyConference
	}
	activity.UpdatedBy = &callerID

	if err := s.repo.Activity.Update(ctx, activity); err != nil {
		s.logger.Error("更新活动失败", zap.String("activity_id", id), zap.Error(err))
		return nil, err
	}

	s.oplog.Record(ctx, LogEntry{UserID: callerID, Operation: OpUpdate, Table: realtime.TableActivities, RecordID: id, Payload: req})
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TableActivities, Action: "update", RecordID: id})

	return toActivityResponse(activity), nil
}

// ────────────────────── Delete ──────────────────────

func (s *activityService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.getActivity(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Activity.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除活动失败", zap.String("activity_id", id), zap.Error(err))
		return err
	}

	s.oplog.Record(ctx, LogEntry{UserID: callerID, Operation: OpDelete, Table: realtime.TableActivities, RecordID: id})
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TableActivities, Action: "delete", RecordID: id})
	return nil
}

// ────────────────────── Assignments ──────────────────────

func (s *activityService) ListAssignments(ctx context.Context) ([]dto.AssignmentResponse, error) {
	list, err := s.repo.Assignment.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询活动分配失败", zap.Error(err))
		return nil, err
	}
	return lo.Map(list, func(ua model.UserActivity, _ int) dto.AssignmentResponse {
		return dto.AssignmentResponse{UserID: ua.UserID, ActivityID: ua.ActivityID}
	}), nil
}

func (s *activityService) ReplaceAssignments(ctx context.Context, activityID string, req *dto.ReplaceAssignmentsRequest, callerID string) ([]dto.AssignmentResponse, error) {
	if _, err := s.getActivity(ctx, activityID); err != nil {
		return nil, err
	}

	userIDs := lo.Uniq(req.UserIDs)
	if len(userIDs) > 0 {
		profiles, err := s.repo.Profile.GetByIDs(ctx, userIDs)
		if err != nil {
			s.logger.Error("查询用户档案失败", zap.Error(err))
			return nil, err
		}
		active := lo.Filter(profiles, func(p model.Profile, _ int) bool { return !p.DeletedAt.Valid })
		if len(active) != len(userIDs) {
			return nil, ErrAssignmentUserNotFound
		}
	}

	if err := s.repo.Assignment.ReplaceForActivity(ctx, activityID, userIDs, callerID); err != nil {
		s.logger.Error("替换活动分配失败", zap.String("activity_id", activityID), zap.Error(err))
		s.oplog.Record(ctx, LogEntry{UserID: callerID, Operation: OpReplace, Table: "user_activities", RecordID: activityID, Payload: userIDs, Err: err})
		return nil, err
	}

	s.oplog.Record(ctx, LogEntry{UserID: callerID, Operation: OpReplace, Table: "user_activities", RecordID: activityID, Payload: userIDs})
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TableActivities, Action: "update", RecordID: activityID})

	return lo.Map(userIDs, func(uid string, _ int) dto.AssignmentResponse {
		return dto.AssignmentResponse{UserID: uid, ActivityID: activityID}
	}), nil
}

func (s *activityService) getActivity(ctx context.Context, id string) (*model.Activity, error) {
	activity, err := s.repo.Activity.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActivityNotFound
		}
		s.logger.Error("查询活动失败", zap.String("activity_id", id), zap.Error(err))
		return nil, err
	}
	return activity, nil
}

func toActivityResponse(a *model.Activity) *dto.ActivityResponse {
	return &dto.ActivityResponse{
		ID:                  a.ID,
		Name:                a.Name,
		Description:         deref(a.Description),
		IsDutyActivity:      a.IsDutyActivity,
		IsMonthlyConference: a.IsMonthlyConference,
		AvailableStatuses:   statusStrings(status.Selectable(a.IsDutyActivity, a.IsMonthlyConference)),
		CreatedAt:           a.CreatedAt.UTC().Format(dto.TimeLayout),
		UpdatedAt:           a.UpdatedAt.UTC().Format(dto.TimeLayout),
	}
}
