package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

type fixedListeners int

func (f fixedListeners) ClientCount() int { return int(f) }

func setupTestReportService() (ReportService, *testEnv) {
	env := newTestEnv()
	return NewReportService(env.repo, fixedListeners(3), env.clock, zap.NewNop()), env
}

// ── 周期计算 ──

func TestPeriodRanges(t *testing.T) {
	cases := []struct {
		name     string
		period   string
		now      time.Time
		current  DateRange
		previous DateRange
	}{
		{"日", PeriodDay, testNow, DateRange{"2024-03-13", "2024-03-13"}, DateRange{"2024-03-12", "2024-03-12"}},
		{"周（周三）", PeriodWeek, testNow, DateRange{"2024-03-11", "2024-03-17"}, DateRange{"2024-03-04", "2024-03-10"}},
		{"周（周日）", PeriodWeek, time.Date(2024, 3, 17, 23, 0, 0, 0, time.UTC), DateRange{"2024-03-11", "2024-03-17"}, DateRange{"2024-03-04", "2024-03-10"}},
		{"月（闰年二月为上月）", PeriodMonth, testNow, DateRange{"2024-03-01", "2024-03-31"}, DateRange{"2024-02-01", "2024-02-29"}},
		{"月（跨年）", PeriodMonth, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), DateRange{"2024-01-01", "2024-01-31"}, DateRange{"2023-12-01", "2023-12-31"}},
		{"未知周期按周", "year", testNow, DateRange{"2024-03-11", "2024-03-17"}, DateRange{"2024-03-04", "2024-03-10"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cur, prev := PeriodRanges(tc.period, tc.now)
			assert.Equal(t, tc.current, cur)
			assert.Equal(t, tc.previous, prev)
		})
	}
}

// ── 统计函数 ──

func TestOperatorStatsOf(t *testing.T) {
	justified := "feriado"
	records := []model.DailyRecord{
		{Status: status.Completed},
		{Status: status.Pending},
		{Status: status.NotStarted},
		{Status: status.NotStarted, Justification: &justified},
		{Status: status.CompletedLate},
		{Status: status.InProgress},
	}
	name := "Maria"
	p := &model.Profile{ID: "u", Email: "m@example.com", FullName: &name}

	st := OperatorStatsOf("u", p, records)

	assert.Equal(t, "Maria", st.Name)
	assert.Equal(t, 6, st.Total)
	assert.Equal(t, 1, st.Completed)
	assert.Equal(t, 2, st.Pending, "pendente 与无理由的 nao_iniciada")
	assert.Equal(t, 1, st.Late)
	assert.Equal(t, 17, st.CompletionRate) // 16.67
	assert.Equal(t, 50, st.LateRate)
}

func TestOperatorStatsOf_Empty(t *testing.T) {
	st := OperatorStatsOf("u", nil, nil)
	assert.Equal(t, "u", st.Name)
	assert.Zero(t, st.CompletionRate)
	assert.Zero(t, st.LateRate)
}

func TestPercent_RoundsHalfUp(t *testing.T) {
	assert.Equal(t, 33, percent(1, 3))
	assert.Equal(t, 67, percent(2, 3))
	assert.Equal(t, 13, percent(1, 8))
	assert.Equal(t, 100, percent(4, 4))
	assert.Equal(t, 0, percent(3, 0))
}

func TestDailyBreakdownOf(t *testing.T) {
	records := []model.DailyRecord{
		{Date: "2024-03-13", Status: status.Completed},
		{Date: "2024-03-12", Status: status.Pending},
		{Date: "2024-03-12", Status: status.InProgress},
		{Date: "2024-03-13", Status: status.NotStarted},
		{Date: "2024-03-13", Status: status.OnDuty},
	}

	days := DailyBreakdownOf(records)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-03-12", days[0].Date)
	assert.Equal(t, 1, days[0].Pending)
	assert.Equal(t, 1, days[0].InProgress)
	assert.Equal(t, 1, days[1].Completed)
	assert.Equal(t, 1, days[1].NotStarted)
}

// ── Report ──

func TestReportService_Report_SortsOperators(t *testing.T) {
	svc, env := setupTestReportService()
	env.addProfile("u1", status.RoleOperator, status.ApprovalApproved)
	env.addProfile("u2", status.RoleOperator, status.ApprovalApproved)
	env.addProfile("u3", status.RoleOperator, status.ApprovalApproved)

	env.records.put(model.DailyRecord{UserID: "u1", ActivityID: "a", Date: "2024-03-11", Status: status.Pending})
	env.records.put(model.DailyRecord{UserID: "u1", ActivityID: "b", Date: "2024-03-11", Status: status.Completed})
	env.records.put(model.DailyRecord{UserID: "u2", ActivityID: "a", Date: "2024-03-12", Status: status.Completed})
	env.records.put(model.DailyRecord{UserID: "u3", ActivityID: "a", Date: "2024-03-13", Status: status.Completed})
	// 上周，不计入
	env.records.put(model.DailyRecord{UserID: "u1", ActivityID: "a", Date: "2024-03-08", Status: status.Pending})

	resp, err := svc.Report(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, PeriodWeek, resp.Period)
	assert.Equal(t, "2024-03-11", resp.From)
	require.Len(t, resp.Operators, 3)
	assert.Equal(t, "u2@example.com", resp.Operators[0].Name)
	assert.Equal(t, "u3@example.com", resp.Operators[1].Name)
	assert.Equal(t, "u1@example.com", resp.Operators[2].Name)
	assert.Equal(t, 50, resp.Operators[2].CompletionRate)

	assert.Len(t, resp.Distribution, len(status.All))
	assert.Len(t, resp.Daily, 3)
}

func TestReportService_OperatorDetail(t *testing.T) {
	svc, env := setupTestReportService()
	env.addActivity("act-1", "Ronda", false, false)
	env.addProfile("u1", status.RoleOperator, status.ApprovalApproved)
	env.records.put(model.DailyRecord{UserID: "u1", ActivityID: "act-1", Date: testToday, Status: status.Completed})
	ctx := context.Background()

	resp, err := svc.OperatorDetail(ctx, "u1", PeriodDay)
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Stats.CompletionRate)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "Ronda", resp.Records[0].ActivityName)

	_, err = svc.OperatorDetail(ctx, "ghost", PeriodDay)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

// ── History ──

func TestReportService_History(t *testing.T) {
	svc, env := setupTestReportService()
	env.addActivity("act-1", "Ronda", false, false)

	// 本周：2 条中 1 条完成
	env.records.put(model.DailyRecord{UserID: "u", ActivityID: "act-1", Date: "2024-03-13", Status: status.Completed})
	env.records.put(model.DailyRecord{UserID: "u", ActivityID: "act-1", Date: "2024-03-11", Status: status.Pending})
	// 上周：1 条完成
	env.records.put(model.DailyRecord{UserID: "u", ActivityID: "act-1", Date: "2024-03-05", Status: status.Completed})
	// 逾期中的旧记录
	env.records.put(model.DailyRecord{UserID: "u", ActivityID: "act-1", Date: "2024-03-01", Status: status.NotStarted})
	// 其他用户
	env.records.put(model.DailyRecord{UserID: "w", ActivityID: "act-1", Date: "2024-03-12", Status: status.Pending})

	resp, err := svc.History(context.Background(), "u", PeriodWeek)
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Current.Total)
	assert.Equal(t, 50, resp.Current.Rate)
	assert.Equal(t, 100, resp.Previous.Rate)
	assert.Equal(t, -50, resp.RateDiff)

	require.Len(t, resp.Overdue, 2)
	assert.Equal(t, "2024-03-01", resp.Overdue[0].Date)
	assert.Equal(t, 12, resp.Overdue[0].DaysOverdue)
	assert.Equal(t, "Ronda", resp.Overdue[0].ActivityName)
	assert.Equal(t, 2, resp.Overdue[1].DaysOverdue)
}

func TestReportService_History_OverdueLimit(t *testing.T) {
	svc, env := setupTestReportService()
	for day := 1; day <= 8; day++ {
		env.records.put(model.DailyRecord{
			UserID:     "u",
			ActivityID: "act-1",
			Date:       model.NewDate(time.Date(2024, 2, day, 0, 0, 0, 0, time.UTC)),
			Status:     status.Pending,
		})
	}

	resp, err := svc.History(context.Background(), "u", PeriodDay)
	require.NoError(t, err)
	assert.Len(t, resp.Overdue, 5)
}

// ── Dashboard ──

func TestReportService_Dashboard(t *testing.T) {
	svc, env := setupTestReportService()
	env.addProfile("a", status.RoleAdmin, status.ApprovalApproved)
	env.addProfile("b", status.RoleOperator, status.ApprovalPending)
	env.addActivity("act-1", "Ronda", false, false)
	env.records.put(model.DailyRecord{UserID: "a", ActivityID: "act-1", Date: testToday, Status: status.Completed})
	env.records.put(model.DailyRecord{UserID: "a", ActivityID: "act-1", Date: "2024-03-11", Status: status.Completed})
	env.records.put(model.DailyRecord{UserID: "a", ActivityID: "act-1", Date: "2024-03-02", Status: status.Completed})
	seedEscalated(env, "a", "act-1", "2024-03-10")

	resp, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.ApprovedUsers)
	assert.Equal(t, int64(1), resp.PendingApprovals)
	assert.Equal(t, int64(1), resp.Activities)
	assert.Equal(t, int64(1), resp.UnresolvedPending)
	assert.Equal(t, int64(1), resp.RecordsToday)
	assert.Equal(t, int64(2), resp.RecordsThisWeek)
	assert.Equal(t, int64(4), resp.RecordsThisMonth)
	assert.Equal(t, 3, resp.ConnectedListeners)
}
