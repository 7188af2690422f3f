package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/realtime"
	"github.com/aloisiojr22/op-track-cycle/internal/repository"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
	pkgerrors "github.com/aloisiojr22/op-track-cycle/pkg/errors"
)

// ── 待办模块业务错误 ──

var (
	ErrPendingItemNotFound = errors.New("待办事项不存在")
	ErrPendingItemResolved = errors.New("待办事项已处理")
	ErrAssigneeRequired    = errors.New("请选择指派对象")
	ErrAssigneeNotFound    = errors.New("指派对象不存在")
	ErrAssigneeNotApproved = errors.New("指派对象尚未通过审批")
	ErrInvalidRequestType  = errors.New("无效的请求类型")
)

// PendingService 待办事项业务接口
type PendingService interface {
	List(ctx context.Context, req *dto.PendingListRequest, callerID string) ([]dto.PendingItemResponse, int64, error)
	// Alert 本人产生或指派给本人的未处理待办数
	Alert(ctx context.Context, userID string) (*dto.PendingAlertResponse, error)
	// Assign 指派待办；关联活动时把活动重新排入指派人的当天记录
	Assign(ctx context.Context, itemID, assigneeID, callerID string) (*dto.PendingItemResponse, error)
	AssignToMe(ctx context.Context, itemID, callerID string) (*dto.PendingItemResponse, error)
	// Resolve 标记已处理；关联活动时把原记录置为 concluida_com_atraso
	Resolve(ctx context.Context, itemID string, req *dto.ResolvePendingRequest, callerID string) (*dto.PendingItemResponse, error)
	CreateSpecialRequest(ctx context.Context, userID string, req *dto.CreateSpecialRequestRequest) (*dto.PendingItemResponse, error)
}

type pendingService struct {
	repo   *repository.Repository
	pub    realtime.Publisher
	oplog  OperationLogService
	clock  Clock
	logger *zap.Logger
}

// NewPendingService 创建 PendingService 实例
func NewPendingService(
	repo *repository.Repository,
	pub realtime.Publisher,
	oplog OperationLogService,
	clock Clock,
	logger *zap.Logger,
) PendingService {
	return &pendingService{repo: repo, pub: pub, oplog: oplog, clock: clock, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *pendingService) List(ctx context.Context, req *dto.PendingListRequest, callerID string) ([]dto.PendingItemResponse, int64, error) {
	filter := repository.PendingItemFilter{
		Resolved:       req.Resolved,
		AssignedUserID: req.AssignedUserID,
		OriginalUserID: req.OriginalUserID,
		OnlySpecial:    req.OnlySpecial,
		Offset:         req.GetOffset(),
		Limit:          req.GetPageSize(),
	}
	// 默认只看未处理的
	if filter.Resolved == nil {
		unresolved := false
		filter.Resolved = &unresolved
	}
	if req.Mine {
		filter.AssignedUserID = callerID
	}

	items, total, err := s.repo.PendingItem.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询待办列表失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.PendingItemResponse, 0, len(items))
	for i := range items {
		list = append(list, *toPendingItemResponse(&items[i]))
	}
	return list, total, nil
}

// ────────────────────── Alert ──────────────────────

func (s *pendingService) Alert(ctx context.Context, userID string) (*dto.PendingAlertResponse, error) {
	count, err := s.repo.PendingItem.CountUnresolvedForUser(ctx, userID)
	if err != nil {
		s.logger.Error("统计未处理待办失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &dto.PendingAlertResponse{Count: count}, nil
}

// ────────────────────── Assign ──────────────────────

// Assign 校验全部在写入之前完成。
// 指派更新与重新排入（冲突时把已有记录重置为 nao_iniciada）在同一事务中。
// 重复指派只是再一次更新，不做拦截。
func (s *pendingService) Assign(ctx context.Context, itemID, assigneeID, callerID string) (*dto.PendingItemResponse, error) {
	if strings.TrimSpace(assigneeID) == "" {
		return nil, ErrAssigneeRequired
	}

	assignee, err := s.repo.Profile.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssigneeNotFound
		}
		s.logger.Error("查询指派对象失败", zap.String("user_id", assigneeID), zap.Error(err))
		return nil, err
	}
	if assignee.ApprovalStatus != status.ApprovalApproved {
		return nil, ErrAssigneeNotApproved
	}

	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Resolved {
		return nil, ErrPendingItemResolved
	}

	var requeue *model.DailyRecord
	if item.ActivityLinked() {
		date := model.NewDate(s.clock())
		if item.OriginalDate != nil && *item.OriginalDate != "" {
			date = *item.OriginalDate
		}
		requeue = &model.DailyRecord{
			UserID:     assigneeID,
			ActivityID: *item.ActivityID,
			Date:       date,
			Status:     status.NotStarted,
		}
	}

	if err := s.repo.PendingItem.Assign(ctx, item.ID, assigneeID, requeue); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPendingItemNotFound
		}
		s.logger.Error("指派待办失败", zap.String("item_id", item.ID), zap.String("assignee", assigneeID), zap.Error(err))
		s.oplog.Record(ctx, LogEntry{UserID: callerID, Operation: OpAssign, Table: realtime.TablePendingItems, RecordID: item.ID, Payload: map[string]string{"assigned_user_id": assigneeID}, Err: err})
		return nil, pkgerrors.MapDBError(err)
	}
	item.AssignedUserID = &assigneeID

	s.oplog.Record(ctx, LogEntry{
		UserID:    callerID,
		Operation: OpAssign,
		Table:     realtime.TablePendingItems,
		RecordID:  item.ID,
		Payload:   map[string]interface{}{"assigned_user_id": assigneeID, "requeued": requeue != nil},
	})
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TablePendingItems, Action: "update", RecordID: item.ID})
	if requeue != nil {
		s.pub.Publish(ctx, realtime.Change{Table: realtime.TableDailyRecords, Action: "upsert", Users: []string{assigneeID}})
	}

	return toPendingItemResponse(item), nil
}

func (s *pendingService) AssignToMe(ctx context.Context, itemID, callerID string) (*dto.PendingItemResponse, error) {
	return s.Assign(ctx, itemID, callerID, callerID)
}

// ────────────────────── Resolve ──────────────────────

// Resolve 理由与已采取措施按 "新值非空则用新值，否则保留原值" 合并。
func (s *pendingService) Resolve(ctx context.Context, itemID string, req *dto.ResolvePendingRequest, callerID string) (*dto.PendingItemResponse, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Resolved {
		return nil, ErrPendingItemResolved
	}

	if j := optionalText(req.Justification); j != nil {
		item.Justification = j
	}
	if a := optionalText(req.ActionTaken); a != nil {
		item.ActionTaken = a
	}
	now := s.clock()
	item.Resolved = true
	item.ResolvedAt = &now

	// 唯一约束 (user_id, activity_id, date) 保证级联至多命中一行
	cascade := item.ActivityLinked() && item.OriginalDate != nil

	if err := s.repo.PendingItem.Resolve(ctx, item, cascade); err != nil {
		// 条件更新 resolved = false 未命中：并发请求已先处理
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPendingItemResolved
		}
		s.logger.Error("处理待办失败", zap.String("item_id", item.ID), zap.Error(err))
		s.oplog.Record(ctx, LogEntry{UserID: callerID, Operation: OpResolve, Table: realtime.TablePendingItems, RecordID: item.ID, Payload: req, Err: err})
		return nil, err
	}

	s.oplog.Record(ctx, LogEntry{
		UserID:    callerID,
		Operation: OpResolve,
		Table:     realtime.TablePendingItems,
		RecordID:  item.ID,
		Payload:   map[string]interface{}{"cascade": cascade, "justification": deref(item.Justification), "action_taken": deref(item.ActionTaken)},
	})
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TablePendingItems, Action: "update", RecordID: item.ID})
	if cascade {
		s.pub.Publish(ctx, realtime.Change{Table: realtime.TableDailyRecords, Action: "update", Users: []string{item.OriginalUserID}})
	}

	return toPendingItemResponse(item), nil
}

// ────────────────────── CreateSpecialRequest ──────────────────────

func (s *pendingService) CreateSpecialRequest(ctx context.Context, userID string, req *dto.CreateSpecialRequestRequest) (*dto.PendingItemResponse, error) {
	if !status.RequestType(req.RequestType).Valid() {
		return nil, ErrInvalidRequestType
	}
	today := model.NewDate(s.clock())
	item := &model.PendingItem{
		OriginalUserID:   userID,
		Description:      optionalText(req.Description),
		ActionTaken:      optionalText(req.ActionTaken),
		RequestType:      strPtr(req.RequestType),
		IsSpecialRequest: true,
		OriginalDate:     &today,
	}

	if err := s.repo.PendingItem.Create(ctx, item); err != nil {
		s.logger.Error("创建特殊请求失败", zap.String("user_id", userID), zap.Error(err))
		s.oplog.Record(ctx, LogEntry{UserID: userID, Operation: OpSpecialRequest, Table: realtime.TablePendingItems, Payload: req, Err: err})
		return nil, err
	}

	s.oplog.Record(ctx, LogEntry{UserID: userID, Operation: OpSpecialRequest, Table: realtime.TablePendingItems, RecordID: item.ID, Payload: req})
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TablePendingItems, Action: "insert", RecordID: item.ID})

	return toPendingItemResponse(item), nil
}

func (s *pendingService) getItem(ctx context.Context, id string) (*model.PendingItem, error) {
	item, err := s.repo.PendingItem.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPendingItemNotFound
		}
		s.logger.Error("查询待办失败", zap.String("item_id", id), zap.Error(err))
		return nil, err
	}
	return item, nil
}
