package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"go.uber.org/zap"

	pkgerrors "github.com/aloisiojr22/op-track-cycle/pkg/errors"
	"github.com/aloisiojr22/op-track-cycle/pkg/redis"
)

// DayLocker 串行化同一用户同一天的开始 / 结束工作日操作
type DayLocker interface {
	// Lock 获取锁；锁已被持有时返回 pkgerrors.ErrLocked
	Lock(ctx context.Context, userID, date string) (unlock func(), err error)
}

const dayLockExpiry = 30 * time.Second

type redisDayLocker struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisDayLocker 基于 redsync 的分布式锁；rdb 为 nil 时返回 nil（不加锁）
func NewRedisDayLocker(rdb *redis.Client, logger *zap.Logger) DayLocker {
	if rdb == nil {
		return nil
	}
	return &redisDayLocker{rdb: rdb, logger: logger}
}

func (l *redisDayLocker) Lock(ctx context.Context, userID, date string) (func(), error) {
	name := fmt.Sprintf("day:%s:%s", userID, date)
	mutex := l.rdb.NewMutex(name, dayLockExpiry)

	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			return nil, pkgerrors.ErrLocked
		}
		return nil, fmt.Errorf("获取工作日锁失败: %w", err)
	}

	return func() {
		if _, err := mutex.UnlockContext(context.Background()); err != nil {
			l.logger.Warn("释放工作日锁失败", zap.String("lock", name), zap.Error(err))
		}
	}, nil
}

// acquireDayLock locker 为 nil 时直接放行
func acquireDayLock(ctx context.Context, locker DayLocker, userID, date string) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}
	return locker.Lock(ctx, userID, date)
}
