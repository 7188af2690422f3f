package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/aloisiojr22/op-track-cycle/internal/model"
)

// UnreadCount 按发送人统计的未读消息数
type UnreadCount struct {
	SenderID string
	Count    int64
}

// ChatRepository 聊天消息数据访问接口
type ChatRepository interface {
	Create(ctx context.Context, msg *model.ChatMessage) error
	ListConversation(ctx context.Context, userA, userB string, limit int) ([]model.ChatMessage, error)
	ListBroadcast(ctx context.Context, offset, limit int) ([]model.ChatMessage, int64, error)
	// MarkRead 把 sender 发给 receiver 的未读消息标记为已读，返回更新条数
	MarkRead(ctx context.Context, senderID, receiverID string, at time.Time) (int64, error)
	CountUnreadBySender(ctx context.Context, receiverID string) ([]UnreadCount, error)
}

type chatRepo struct {
	db *gorm.DB
}

// NewChatRepo 创建 ChatRepository 实例
func NewChatRepo(db *gorm.DB) ChatRepository {
	return &chatRepo{db: db}
}

func (r *chatRepo) Create(ctx context.Context, msg *model.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *chatRepo) ListConversation(ctx context.Context, userA, userB string, limit int) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	// 取最近 limit 条后按时间正序返回
	sub := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("is_broadcast = ?", false).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA).
		Order("created_at DESC").
		Limit(limit)

	err := r.db.WithContext(ctx).
		Table("(?) AS recent", sub).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *chatRepo) ListBroadcast(ctx context.Context, offset, limit int) ([]model.ChatMessage, int64, error) {
	var msgs []model.ChatMessage
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ChatMessage{}).Where("is_broadcast = ?", true)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.
		Preload("Sender", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&msgs).Error
	return msgs, total, err
}

func (r *chatRepo) MarkRead(ctx context.Context, senderID, receiverID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("sender_id = ? AND receiver_id = ? AND read_at IS NULL", senderID, receiverID).
		Update("read_at", at)
	return result.RowsAffected, result.Error
}

func (r *chatRepo) CountUnreadBySender(ctx context.Context, receiverID string) ([]UnreadCount, error) {
	var rows []struct {
		SenderID string
		Total    int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Select("sender_id, COUNT(*) AS total").
		Where("receiver_id = ? AND read_at IS NULL", receiverID).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make([]UnreadCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, UnreadCount{SenderID: row.SenderID, Count: row.Total})
	}
	return counts, nil
}
