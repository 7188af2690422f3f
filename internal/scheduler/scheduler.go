// Package scheduler 运行后台定时任务。
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aloisiojr22/op-track-cycle/config"
	"github.com/aloisiojr22/op-track-cycle/internal/realtime"
	"github.com/aloisiojr22/op-track-cycle/internal/repository"
)

const (
	defaultReminderCron = "0 8 * * *"
	jobTimeout          = 2 * time.Minute
)

// ReminderSource 按指派人统计未处理待办（由 repository.PendingItemRepository 实现）
type ReminderSource interface {
	CountUnresolvedByAssignee(ctx context.Context) ([]repository.AssigneeCount, error)
}

// Scheduler 定时任务调度器
type Scheduler struct {
	cron    *cron.Cron
	pending ReminderSource
	pub     realtime.Publisher
	logger  *zap.Logger
}

// New 创建调度器并注册任务；cfg.Enabled=false 时返回 nil。
// cron 表达式按 loc（业务时区）解释，loc 为 nil 时使用进程本地时区。
func New(cfg *config.SchedulerConfig, loc *time.Location, pending ReminderSource, pub realtime.Publisher, logger *zap.Logger) (*Scheduler, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}

	cl := cronLogger{logger: logger.Sugar()}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s := &Scheduler{
		cron:    c,
		pending: pending,
		pub:     pub,
		logger:  logger,
	}

	spec := cfg.PendingReminderCron
	if spec == "" {
		spec = defaultReminderCron
	}
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := s.SendPendingReminders(ctx); err != nil {
			s.logger.Error("待办提醒任务失败", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("注册待办提醒任务失败 (%s): %w", spec, err)
	}

	logger.Info("定时任务已注册",
		zap.String("job", "pending_reminder"),
		zap.String("cron", spec),
		zap.String("timezone", loc.String()),
	)
	return s, nil
}

// Start 启动调度（非阻塞）
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("等待定时任务结束超时")
	}
}

// SendPendingReminders 向每个有未处理指派待办的用户推送提醒，返回通知人数
func (s *Scheduler) SendPendingReminders(ctx context.Context) (int, error) {
	counts, err := s.pending.CountUnresolvedByAssignee(ctx)
	if err != nil {
		return 0, fmt.Errorf("统计未处理待办失败: %w", err)
	}

	sent := 0
	for _, ac := range counts {
		if ac.UserID == "" || ac.Count <= 0 {
			continue
		}
		s.pub.Publish(ctx, realtime.Change{
			Table:  realtime.TableReminders,
			Action: "remind",
			Count:  ac.Count,
			Users:  []string{ac.UserID},
		})
		sent++
	}

	s.logger.Info("待办提醒已推送", zap.Int("users", sent))
	return sent, nil
}

// cronLogger 把 cron 内部日志转到 zap
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
