package service

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/realtime"
	"github.com/aloisiojr22/op-track-cycle/internal/repository"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

// ── 工作日模块业务错误 ──

var (
	ErrNoAssignments       = errors.New("当前用户没有分配任何活动")
	ErrDayNotStarted       = errors.New("工作日尚未开始")
	ErrStatusNotSelectable = errors.New("该活动不允许选择此状态")
	ErrActivityNotFound    = errors.New("活动不存在")
)

// DayService 工作日生命周期业务接口
type DayService interface {
	// GetToday 今日工作台：分配的活动及当日记录
	GetToday(ctx context.Context, userID string) (*dto.TodayResponse, error)
	// StartDay 为每个分配生成当日记录；已存在的记录保持原样
	StartDay(ctx context.Context, userID string, date model.Date) (*dto.StartDayResponse, error)
	// EndDay 把未完成的记录转为待办
	EndDay(ctx context.Context, userID string, date model.Date) (*dto.EndDayResponse, error)
	UpdateStatus(ctx context.Context, userID, activityID string, req *dto.UpdateStatusRequest) (*dto.DailyRecordResponse, error)
	SaveJustification(ctx context.Context, userID, activityID string, req *dto.SaveJustificationRequest) (*dto.DailyRecordResponse, error)
	// Today 业务时区下的今天
	Today() model.Date
}

type dayService struct {
	repo   *repository.Repository
	locker DayLocker
	pub    realtime.Publisher
	oplog  OperationLogService
	clock  Clock
	logger *zap.Logger
}

// NewDayService 创建 DayService 实例；locker 可为 nil
func NewDayService(
	repo *repository.Repository,
	locker DayLocker,
	pub realtime.Publisher,
	oplog OperationLogService,
	clock Clock,
	logger *zap.Logger,
) DayService {
	return &dayService{repo: repo, locker: locker, pub: pub, oplog: oplog, clock: clock, logger: logger}
}

func (s *dayService) Today() model.Date {
	return model.NewDate(s.clock())
}

// ────────────────────── GetToday ──────────────────────

func (s *dayService) GetToday(ctx context.Context, userID string) (*dto.TodayResponse, error) {
	today := s.Today()

	assignments, err := s.repo.Assignment.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询活动分配失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	records, err := s.repo.DailyRecord.ListByUserAndDate(ctx, userID, today)
	if err != nil {
		s.logger.Error("查询每日记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	byActivity := lo.KeyBy(records, func(r model.DailyRecord) string { return r.ActivityID })

	resp := &dto.TodayResponse{
		Date:       today.String(),
		DayStarted: len(records) > 0,
		Activities: make([]dto.TodayActivity, 0, len(assignments)),
	}

	seen := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if a.Activity == nil {
			continue
		}
		seen[a.ActivityID] = true
		var rec *model.DailyRecord
		if r, ok := byActivity[a.ActivityID]; ok {
			rec = &r
		}
		resp.Activities = append(resp.Activities, toTodayActivity(a.Activity, rec))
	}

	// 指派给本人的待办会把活动排入当天，即使本人没有该活动的分配
	for i := range records {
		r := &records[i]
		if seen[r.ActivityID] || r.Activity == nil {
			continue
		}
		resp.Activities = append(resp.Activities, toTodayActivity(r.Activity, r))
	}

	return resp, nil
}

func toTodayActivity(a *model.Activity, rec *model.DailyRecord) dto.TodayActivity {
	item := dto.TodayActivity{
		ActivityID:          a.ID,
		Name:                a.Name,
		IsDutyActivity:      a.IsDutyActivity,
		IsMonthlyConference: a.IsMonthlyConference,
		AvailableStatuses:   statusStrings(status.Selectable(a.IsDutyActivity, a.IsMonthlyConference)),
	}
	if rec != nil {
		item.Record = toDailyRecordResponse(rec)
	}
	return item
}

// ────────────────────── StartDay ──────────────────────

// StartDay 对已存在的 (user, activity, date) 行不做任何修改（ON CONFLICT DO NOTHING），
// 重复调用不会把已推进的状态重置为 nao_iniciada。
func (s *dayService) StartDay(ctx context.Context, userID string, date model.Date) (*dto.StartDayResponse, error) {
	if date == "" {
		date = s.Today()
	}

	unlock, err := acquireDayLock(ctx, s.locker, userID, date.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	assignments, err := s.repo.Assignment.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询活动分配失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, ErrNoAssignments
	}

	records := lo.Map(assignments, func(a model.UserActivity, _ int) model.DailyRecord {
		return model.DailyRecord{
			UserID:     userID,
			ActivityID: a.ActivityID,
			Date:       date,
			Status:     status.NotStarted,
		}
	})

	created, err := s.repo.DailyRecord.InsertMissing(ctx, records)
	if err != nil {
		s.logger.Error("创建每日记录失败", zap.String("user_id", userID), zap.String("date", date.String()), zap.Error(err))
		s.oplog.Record(ctx, LogEntry{UserID: userID, Operation: OpStartDay, Table: realtime.TableDailyRecords, Payload: records, Err: err})
		return nil, err
	}

	s.oplog.Record(ctx, LogEntry{
		UserID:    userID,
		Operation: OpStartDay,
		Table:     realtime.TableDailyRecords,
		Payload:   map[string]interface{}{"date": date, "created": created},
	})
	if created > 0 {
		s.pub.Publish(ctx, realtime.Change{Table: realtime.TableDailyRecords, Action: "insert", Users: []string{userID}})
	}

	return &dto.StartDayResponse{
		Date:     date.String(),
		Created:  created,
		Existing: int64(len(records)) - created,
	}, nil
}

// ────────────────────── EndDay ──────────────────────

// EndDay 每一步（新建待办 + 记录置为 pendente）在各自的事务中完成。
// 步与步之间没有补偿：中途失败时已完成的步保持生效，返回 *EndDayError。
func (s *dayService) EndDay(ctx context.Context, userID string, date model.Date) (*dto.EndDayResponse, error) {
	if date == "" {
		date = s.Today()
	}

	unlock, err := acquireDayLock(ctx, s.locker, userID, date.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, err := s.repo.DailyRecord.ListByUserAndDate(ctx, userID, date)
	if err != nil {
		s.logger.Error("查询每日记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrDayNotStarted
	}

	working := lo.KeyBy(records, func(r model.DailyRecord) string { return r.ActivityID })
	steps := PlanEndDay(working, userID, date)

	resp := &dto.EndDayResponse{
		Date:         date.String(),
		Untouched:    len(records) - len(steps),
		PendingItems: make([]dto.PendingItemResponse, 0, len(steps)),
	}

	for i, step := range steps {
		item := step.Item
		if err := s.repo.PendingItem.Escalate(ctx, &item, step.Record.ID); err != nil {
			s.logger.Error("结束工作日写入失败",
				zap.String("user_id", userID),
				zap.String("activity_id", step.Record.ActivityID),
				zap.Int("applied", i),
				zap.Error(err),
			)
			s.oplog.Record(ctx, LogEntry{
				UserID:    userID,
				Operation: OpEndDay,
				Table:     realtime.TablePendingItems,
				RecordID:  step.Record.ID,
				Payload:   step,
				Err:       err,
			})
			if i > 0 {
				s.publishEndDay(ctx, userID)
			}
			return nil, &EndDayError{Applied: i, Step: step, Err: err}
		}

		item.Activity = step.Record.Activity
		resp.PendingItems = append(resp.PendingItems, *toPendingItemResponse(&item))
		switch step.Reason {
		case ReasonInProgress:
			resp.InProgressMoved++
		case ReasonNotStarted:
			resp.NotStartedMoved++
		}
	}

	s.oplog.Record(ctx, LogEntry{
		UserID:    userID,
		Operation: OpEndDay,
		Table:     realtime.TableDailyRecords,
		Payload: map[string]interface{}{
			"date":              date,
			"in_progress_moved": resp.InProgressMoved,
			"not_started_moved": resp.NotStartedMoved,
		},
	})
	if len(steps) > 0 {
		s.publishEndDay(ctx, userID)
	}

	return resp, nil
}

func (s *dayService) publishEndDay(ctx context.Context, userID string) {
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TableDailyRecords, Action: "update", Users: []string{userID}})
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TablePendingItems, Action: "insert"})
}

// ────────────────────── UpdateStatus ──────────────────────

// UpdateStatus 不校验来源状态，只要求目标状态在活动允许的集合内。
// 首次进入 em_andamento 记录 started_at；每次进入 concluida 覆盖 completed_at。
func (s *dayService) UpdateStatus(ctx context.Context, userID, activityID string, req *dto.UpdateStatusRequest) (*dto.DailyRecordResponse, error) {
	rec, err := s.getTodayRecord(ctx, userID, activityID)
	if err != nil {
		return nil, err
	}
	if rec.Activity == nil {
		return nil, ErrActivityNotFound
	}

	target := status.Status(req.Status)
	if !status.IsSelectable(target, rec.Activity.IsDutyActivity, rec.Activity.IsMonthlyConference) {
		return nil, ErrStatusNotSelectable
	}

	now := s.clock()
	fields := map[string]interface{}{"status": target}
	if target == status.InProgress && rec.StartedAt == nil {
		fields["started_at"] = now
		rec.StartedAt = &now
	}
	if target == status.Completed {
		fields["completed_at"] = now
		rec.CompletedAt = &now
	}

	if err := s.repo.DailyRecord.UpdateFields(ctx, rec.ID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDayNotStarted
		}
		s.logger.Error("更新记录状态失败", zap.String("record_id", rec.ID), zap.Error(err))
		s.oplog.Record(ctx, LogEntry{UserID: userID, Operation: OpUpdateStatus, Table: realtime.TableDailyRecords, RecordID: rec.ID, Payload: req, Err: err})
		return nil, err
	}
	rec.Status = target

	s.oplog.Record(ctx, LogEntry{UserID: userID, Operation: OpUpdateStatus, Table: realtime.TableDailyRecords, RecordID: rec.ID, Payload: req})
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TableDailyRecords, Action: "update", RecordID: rec.ID, Users: []string{userID}})

	return toDailyRecordResponse(rec), nil
}

// ────────────────────── SaveJustification ──────────────────────

func (s *dayService) SaveJustification(ctx context.Context, userID, activityID string, req *dto.SaveJustificationRequest) (*dto.DailyRecordResponse, error) {
	rec, err := s.getTodayRecord(ctx, userID, activityID)
	if err != nil {
		return nil, err
	}

	rec.Justification = optionalText(req.Justification)
	rec.ActionTaken = optionalText(req.ActionTaken)
	fields := map[string]interface{}{
		"justification": rec.Justification,
		"action_taken":  rec.ActionTaken,
	}
	if err := s.repo.DailyRecord.UpdateFields(ctx, rec.ID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDayNotStarted
		}
		s.logger.Error("保存理由失败", zap.String("record_id", rec.ID), zap.Error(err))
		return nil, err
	}

	s.oplog.Record(ctx, LogEntry{UserID: userID, Operation: OpSaveJustification, Table: realtime.TableDailyRecords, RecordID: rec.ID, Payload: req})
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TableDailyRecords, Action: "update", RecordID: rec.ID, Users: []string{userID}})

	return toDailyRecordResponse(rec), nil
}

func (s *dayService) getTodayRecord(ctx context.Context, userID, activityID string) (*model.DailyRecord, error) {
	rec, err := s.repo.DailyRecord.GetByKey(ctx, userID, activityID, s.Today())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDayNotStarted
		}
		s.logger.Error("查询每日记录失败", zap.String("user_id", userID), zap.String("activity_id", activityID), zap.Error(err))
		return nil, err
	}
	return rec, nil
}
