package realtime

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChangesChannel 多实例部署时用于中继变更的 Redis 频道
const ChangesChannel = "optrack:changes"

// Publisher 变更发布接口
// 推送是尽力而为的：失败只记录日志，不影响触发它的写操作
type Publisher interface {
	Publish(ctx context.Context, change Change)
}

// ── 单实例：直接写入本地 Hub ──

type hubPublisher struct {
	hub *Hub
}

// NewHubPublisher 创建直接投递到本地 Hub 的发布器
func NewHubPublisher(hub *Hub) Publisher {
	return &hubPublisher{hub: hub}
}

func (p *hubPublisher) Publish(_ context.Context, change Change) {
	p.hub.Deliver(change)
}

// ── 多实例：经 Redis 频道中继 ──

// PubSub Redis 发布订阅能力（由 pkg/redis.Client 实现）
type PubSub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) *goredis.PubSub
}

// RedisRelay 把变更发布到 Redis，并把频道内的变更转投到本地 Hub
type RedisRelay struct {
	ps     PubSub
	hub    *Hub
	logger *zap.Logger
}

// NewRedisRelay 创建 Redis 中继
func NewRedisRelay(ps PubSub, hub *Hub, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{ps: ps, hub: hub, logger: logger}
}

// Publish 实现 Publisher
func (r *RedisRelay) Publish(ctx context.Context, change Change) {
	payload, err := json.Marshal(change)
	if err != nil {
		r.logger.Error("序列化实时事件失败", zap.Error(err))
		return
	}
	if err := r.ps.Publish(ctx, ChangesChannel, payload); err != nil {
		// Redis 不可用时退回本实例投递
		r.logger.Warn("发布实时事件失败，改为本地投递", zap.String("table", change.Table), zap.Error(err))
		r.hub.Deliver(change)
	}
}

// Run 订阅频道直到 ctx 取消
func (r *RedisRelay) Run(ctx context.Context) {
	sub := r.ps.Subscribe(ctx, ChangesChannel)
	defer sub.Close()

	r.logger.Info("实时事件中继已启动", zap.String("channel", ChangesChannel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("实时事件中继已停止")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				r.logger.Warn("无法解析实时事件", zap.String("payload", msg.Payload), zap.Error(err))
				continue
			}
			r.hub.Deliver(change)
		}
	}
}
