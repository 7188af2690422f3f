package service

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/repository"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

// ── 统计周期 ──

const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// DateRange 闭区间日期范围
type DateRange struct {
	From model.Date
	To   model.Date
}

// PeriodRanges 计算 now 所在周期及上一周期。
// day：今天 / 昨天；week：周一开始的本周 / 上周；month：本月 / 上月。未知周期按 week 处理。
func PeriodRanges(period string, now time.Time) (current, previous DateRange) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch period {
	case PeriodDay:
		yesterday := today.AddDate(0, 0, -1)
		return rangeOf(today, today), rangeOf(yesterday, yesterday)
	case PeriodMonth:
		first := today.AddDate(0, 0, 1-today.Day())
		prevFirst := first.AddDate(0, -1, 0)
		return rangeOf(first, first.AddDate(0, 1, -1)), rangeOf(prevFirst, first.AddDate(0, 0, -1))
	default:
		monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
		prevMonday := monday.AddDate(0, 0, -7)
		return rangeOf(monday, monday.AddDate(0, 0, 6)), rangeOf(prevMonday, monday.AddDate(0, 0, -1))
	}
}

func rangeOf(from, to time.Time) DateRange {
	return DateRange{From: model.NewDate(from), To: model.NewDate(to)}
}

func normalizePeriod(period string) string {
	switch period {
	case PeriodDay, PeriodMonth:
		return period
	default:
		return PeriodWeek
	}
}

// ListenerCounter 当前实时连接数（由 realtime.Hub 实现）
type ListenerCounter interface {
	ClientCount() int
}

// ReportService 报表、个人历史与管理仪表盘
type ReportService interface {
	Report(ctx context.Context, period string) (*dto.ReportResponse, error)
	OperatorDetail(ctx context.Context, userID, period string) (*dto.OperatorDetailResponse, error)
	History(ctx context.Context, userID, period string) (*dto.HistoryResponse, error)
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
	// RecordsInRange 个人在日期范围内的记录（供日历导出）
	RecordsInRange(ctx context.Context, userID string, r DateRange) ([]model.DailyRecord, error)
}

type reportService struct {
	repo      *repository.Repository
	listeners ListenerCounter
	clock     Clock
	logger    *zap.Logger
}

// NewReportService 创建 ReportService 实例；listeners 可为 nil
func NewReportService(repo *repository.Repository, listeners ListenerCounter, clock Clock, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, listeners: listeners, clock: clock, logger: logger}
}

// ────────────────────── Report ──────────────────────

func (s *reportService) Report(ctx context.Context, period string) (*dto.ReportResponse, error) {
	period = normalizePeriod(period)
	current, _ := PeriodRanges(period, s.clock())

	records, err := s.repo.DailyRecord.ListByRange(ctx, repository.DailyRecordFilter{From: current.From, To: current.To})
	if err != nil {
		s.logger.Error("查询报表记录失败", zap.String("period", period), zap.Error(err))
		return nil, err
	}

	byUser := lo.GroupBy(records, func(r model.DailyRecord) string { return r.UserID })
	profiles, err := s.repo.Profile.GetByIDs(ctx, lo.Keys(byUser))
	if err != nil {
		s.logger.Error("查询用户档案失败", zap.Error(err))
		return nil, err
	}
	profileByID := lo.KeyBy(profiles, func(p model.Profile) string { return p.ID })

	operators := make([]dto.OperatorStats, 0, len(byUser))
	for userID, list := range byUser {
		var p *model.Profile
		if found, ok := profileByID[userID]; ok {
			p = &found
		}
		operators = append(operators, OperatorStatsOf(userID, p, list))
	}
	sortOperators(operators)

	return &dto.ReportResponse{
		Period:       period,
		From:         current.From.String(),
		To:           current.To.String(),
		Operators:    operators,
		Daily:        DailyBreakdownOf(records),
		Distribution: distributionOf(records),
	}, nil
}

// ────────────────────── OperatorDetail ──────────────────────

func (s *reportService) OperatorDetail(ctx context.Context, userID, period string) (*dto.OperatorDetailResponse, error) {
	period = normalizePeriod(period)
	current, _ := PeriodRanges(period, s.clock())

	profiles, err := s.repo.Profile.GetByIDs(ctx, []string{userID})
	if err != nil {
		s.logger.Error("查询用户档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, ErrProfileNotFound
	}

	records, err := s.repo.DailyRecord.ListByRange(ctx, repository.DailyRecordFilter{From: current.From, To: current.To, UserID: userID})
	if err != nil {
		s.logger.Error("查询操作员记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := &dto.OperatorDetailResponse{
		Stats:   OperatorStatsOf(userID, &profiles[0], records),
		Records: make([]dto.DailyRecordResponse, 0, len(records)),
	}
	for i := range records {
		resp.Records = append(resp.Records, *toDailyRecordResponse(&records[i]))
	}
	return resp, nil
}

// ────────────────────── History ──────────────────────

const overdueLimit = 5

func (s *reportService) History(ctx context.Context, userID, period string) (*dto.HistoryResponse, error) {
	period = normalizePeriod(period)
	now := s.clock()
	current, previous := PeriodRanges(period, now)

	cur, err := s.RecordsInRange(ctx, userID, current)
	if err != nil {
		return nil, err
	}
	prev, err := s.RecordsInRange(ctx, userID, previous)
	if err != nil {
		return nil, err
	}

	today := model.NewDate(now)
	open, err := s.repo.DailyRecord.ListOpenBefore(ctx, userID, today, overdueLimit)
	if err != nil {
		s.logger.Error("查询逾期记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := &dto.HistoryResponse{
		Period:   period,
		Current:  summaryOf(current, cur),
		Previous: summaryOf(previous, prev),
		Daily:    DailyBreakdownOf(cur),
		Overdue:  make([]dto.OverdueRecord, 0, len(open)),
	}
	resp.RateDiff = resp.Current.Rate - resp.Previous.Rate

	for i := range open {
		r := &open[i]
		days := int(today.Time().Sub(r.Date.Time()).Hours() / 24)
		if days <= 0 {
			continue
		}
		name := r.ActivityID
		if r.Activity != nil {
			name = r.Activity.Name
		}
		resp.Overdue = append(resp.Overdue, dto.OverdueRecord{
			RecordID:     r.ID,
			ActivityName: name,
			Date:         r.Date.String(),
			Status:       string(r.Status),
			DaysOverdue:  days,
		})
	}
	return resp, nil
}

func (s *reportService) RecordsInRange(ctx context.Context, userID string, r DateRange) ([]model.DailyRecord, error) {
	records, err := s.repo.DailyRecord.ListByRange(ctx, repository.DailyRecordFilter{From: r.From, To: r.To, UserID: userID})
	if err != nil {
		s.logger.Error("查询历史记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return records, nil
}

// ────────────────────── Dashboard ──────────────────────

func (s *reportService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	now := s.clock()
	today := model.NewDate(now)
	week, _ := PeriodRanges(PeriodWeek, now)
	month, _ := PeriodRanges(PeriodMonth, now)

	resp := &dto.DashboardResponse{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		resp.ApprovedUsers, err = s.repo.Profile.CountByApproval(gctx, status.ApprovalApproved)
		return
	})
	g.Go(func() (err error) {
		resp.PendingApprovals, err = s.repo.Profile.CountByApproval(gctx, status.ApprovalPending)
		return
	})
	g.Go(func() (err error) {
		resp.Activities, err = s.repo.Activity.Count(gctx)
		return
	})
	g.Go(func() (err error) {
		resp.UnresolvedPending, err = s.repo.PendingItem.CountUnresolved(gctx)
		return
	})
	g.Go(func() (err error) {
		resp.RecordsToday, err = s.repo.DailyRecord.CountByRange(gctx, today, today)
		return
	})
	g.Go(func() (err error) {
		resp.RecordsThisWeek, err = s.repo.DailyRecord.CountByRange(gctx, week.From, week.To)
		return
	})
	g.Go(func() (err error) {
		resp.RecordsThisMonth, err = s.repo.DailyRecord.CountByRange(gctx, month.From, month.To)
		return
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("查询仪表盘统计失败", zap.Error(err))
		return nil, err
	}
	if s.listeners != nil {
		resp.ConnectedListeners = s.listeners.ClientCount()
	}
	return resp, nil
}

// ── 统计函数 ──

// OperatorStatsOf 统计单个操作员的记录。
// pending 包含 pendente 以及没有理由的 nao_iniciada；lateRate 按 (pending + late) / total 计算。
func OperatorStatsOf(userID string, p *model.Profile, records []model.DailyRecord) dto.OperatorStats {
	st := dto.OperatorStats{UserID: userID, Name: userID, Total: len(records)}
	if p != nil {
		st.Name = p.DisplayName()
		st.Email = p.Email
	}
	for i := range records {
		r := &records[i]
		switch {
		case r.Status == status.Completed:
			st.Completed++
		case r.Status == status.Pending,
			r.Status == status.NotStarted && !r.HasJustification():
			st.Pending++
		case r.Status == status.CompletedLate:
			st.Late++
		}
	}
	st.CompletionRate = percent(st.Completed, st.Total)
	st.LateRate = percent(st.Pending+st.Late, st.Total)
	return st
}

// sortOperators 完成率降序，相同时按姓名
func sortOperators(list []dto.OperatorStats) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CompletionRate != list[j].CompletionRate {
			return list[i].CompletionRate > list[j].CompletionRate
		}
		return list[i].Name < list[j].Name
	})
}

// DailyBreakdownOf 按日期升序汇总
func DailyBreakdownOf(records []model.DailyRecord) []dto.DailyBreakdown {
	byDate := lo.GroupBy(records, func(r model.DailyRecord) model.Date { return r.Date })
	dates := lo.Keys(byDate)
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	out := make([]dto.DailyBreakdown, 0, len(dates))
	for _, d := range dates {
		day := dto.DailyBreakdown{Date: d.String()}
		for _, r := range byDate[d] {
			switch r.Status {
			case status.Completed:
				day.Completed++
			case status.Pending:
				day.Pending++
			case status.InProgress:
				day.InProgress++
			case status.NotStarted:
				day.NotStarted++
			}
		}
		out = append(out, day)
	}
	return out
}

func distributionOf(records []model.DailyRecord) []dto.StatusCount {
	counts := lo.CountValuesBy(records, func(r model.DailyRecord) status.Status { return r.Status })
	return lo.Map(status.All, func(st status.Status, _ int) dto.StatusCount {
		return dto.StatusCount{Status: string(st), Label: st.Label(), Count: counts[st]}
	})
}

func summaryOf(r DateRange, records []model.DailyRecord) dto.PeriodSummary {
	sum := dto.PeriodSummary{From: r.From.String(), To: r.To.String(), Total: len(records)}
	for i := range records {
		switch records[i].Status {
		case status.Completed:
			sum.Completed++
		case status.InProgress:
			sum.InProgress++
		case status.NotStarted:
			sum.NotStarted++
		case status.Pending:
			sum.Pending++
		case status.CompletedLate:
			sum.Late++
		}
	}
	sum.Rate = percent(sum.Completed, sum.Total)
	return sum
}
