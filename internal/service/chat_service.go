package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/realtime"
	"github.com/aloisiojr22/op-track-cycle/internal/repository"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

// ── 聊天模块业务错误 ──

var (
	ErrMessageEmpty      = errors.New("消息内容不能为空")
	ErrMessageTooLong    = errors.New("消息内容不能超过 2000 字")
	ErrReceiverRequired  = errors.New("请选择接收人")
	ErrCannotMessageSelf = errors.New("不能给自己发送消息")
	ErrChatUserNotFound  = errors.New("聊天对象不存在或未通过审批")
)

const (
	maxMessageLength        = 2000
	defaultConversationSize = 100
)

// ChatService 聊天业务接口
type ChatService interface {
	// ListContacts 可聊天的已审批用户及各自的未读数
	ListContacts(ctx context.Context, callerID string) ([]dto.ChatContactResponse, error)
	// Conversation 与对方的私聊记录（时间正序），同时把对方发来的未读消息标为已读
	Conversation(ctx context.Context, callerID, otherID string, req *dto.ConversationRequest) ([]dto.ChatMessageResponse, error)
	Broadcasts(ctx context.Context, req *dto.PaginationRequest) ([]dto.ChatMessageResponse, int64, error)
	Send(ctx context.Context, callerID string, req *dto.SendMessageRequest) (*dto.ChatMessageResponse, error)
	Unread(ctx context.Context, callerID string) (*dto.UnreadResponse, error)
}

type chatService struct {
	repo   *repository.Repository
	pub    realtime.Publisher
	clock  Clock
	logger *zap.Logger
}

// NewChatService 创建 ChatService 实例
func NewChatService(repo *repository.Repository, pub realtime.Publisher, clock Clock, logger *zap.Logger) ChatService {
	return &chatService{repo: repo, pub: pub, clock: clock, logger: logger}
}

// ────────────────────── ListContacts ──────────────────────

func (s *chatService) ListContacts(ctx context.Context, callerID string) ([]dto.ChatContactResponse, error) {
	profiles, err := s.repo.Profile.List(ctx, status.ApprovalApproved)
	if err != nil {
		s.logger.Error("查询聊天用户失败", zap.Error(err))
		return nil, err
	}
	unread, err := s.unreadBySender(ctx, callerID)
	if err != nil {
		return nil, err
	}

	contacts := make([]dto.ChatContactResponse, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		if p.ID == callerID {
			continue
		}
		contacts = append(contacts, dto.ChatContactResponse{
			UserID:      p.ID,
			DisplayName: p.DisplayName(),
			Role:        p.Role,
			Unread:      unread[p.ID],
		})
	}
	return contacts, nil
}

// ────────────────────── Conversation ──────────────────────

func (s *chatService) Conversation(ctx context.Context, callerID, otherID string, req *dto.ConversationRequest) ([]dto.ChatMessageResponse, error) {
	if _, err := s.getApprovedProfile(ctx, otherID); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultConversationSize
	}
	msgs, err := s.repo.Chat.ListConversation(ctx, callerID, otherID, limit)
	if err != nil {
		s.logger.Error("查询会话失败", zap.String("user_id", callerID), zap.String("other_id", otherID), zap.Error(err))
		return nil, err
	}

	read, err := s.repo.Chat.MarkRead(ctx, otherID, callerID, s.clock())
	if err != nil {
		// 已读回执失败不影响读取
		s.logger.Warn("标记消息已读失败", zap.String("user_id", callerID), zap.Error(err))
	}
	if read > 0 {
		s.pub.Publish(ctx, realtime.Change{Table: realtime.TableChatMessages, Action: "update", Users: []string{callerID, otherID}})
	}

	list := make([]dto.ChatMessageResponse, 0, len(msgs))
	for i := range msgs {
		list = append(list, *toChatMessageResponse(&msgs[i]))
	}
	return list, nil
}

// ────────────────────── Broadcasts ──────────────────────

func (s *chatService) Broadcasts(ctx context.Context, req *dto.PaginationRequest) ([]dto.ChatMessageResponse, int64, error) {
	msgs, total, err := s.repo.Chat.ListBroadcast(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询群发消息失败", zap.Error(err))
		return nil, 0, err
	}
	list := make([]dto.ChatMessageResponse, 0, len(msgs))
	for i := range msgs {
		list = append(list, *toChatMessageResponse(&msgs[i]))
	}
	return list, total, nil
}

// ────────────────────── Send ──────────────────────

func (s *chatService) Send(ctx context.Context, callerID string, req *dto.SendMessageRequest) (*dto.ChatMessageResponse, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, ErrMessageEmpty
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return nil, ErrMessageTooLong
	}

	msg := &model.ChatMessage{
		SenderID:    callerID,
		Message:     text,
		IsBroadcast: req.Broadcast,
	}

	var receivers []string
	if !req.Broadcast {
		if req.ReceiverID == "" {
			return nil, ErrReceiverRequired
		}
		if req.ReceiverID == callerID {
			return nil, ErrCannotMessageSelf
		}
		if _, err := s.getApprovedProfile(ctx, req.ReceiverID); err != nil {
			return nil, err
		}
		receiverID := req.ReceiverID
		msg.ReceiverID = &receiverID
		receivers = []string{callerID, receiverID}
	}

	if err := s.repo.Chat.Create(ctx, msg); err != nil {
		s.logger.Error("发送消息失败", zap.String("sender_id", callerID), zap.Error(err))
		return nil, err
	}

	// receivers 为空即推送给所有人
	s.pub.Publish(ctx, realtime.Change{Table: realtime.TableChatMessages, Action: "insert", RecordID: msg.ID, Users: receivers})

	return toChatMessageResponse(msg), nil
}

// ────────────────────── Unread ──────────────────────

func (s *chatService) Unread(ctx context.Context, callerID string) (*dto.UnreadResponse, error) {
	bySender, err := s.unreadBySender(ctx, callerID)
	if err != nil {
		return nil, err
	}
	resp := &dto.UnreadResponse{BySender: bySender}
	for _, n := range bySender {
		resp.Total += n
	}
	return resp, nil
}

// ── 辅助方法 ──

func (s *chatService) unreadBySender(ctx context.Context, receiverID string) (map[string]int64, error) {
	counts, err := s.repo.Chat.CountUnreadBySender(ctx, receiverID)
	if err != nil {
		s.logger.Error("统计未读消息失败", zap.String("user_id", receiverID), zap.Error(err))
		return nil, err
	}
	m := make(map[string]int64, len(counts))
	for _, c := range counts {
		m[c.SenderID] = c.Count
	}
	return m, nil
}

func (s *chatService) getApprovedProfile(ctx context.Context, id string) (*model.Profile, error) {
	p, err := s.repo.Profile.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatUserNotFound
		}
		s.logger.Error("查询聊天对象失败", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	if p.ApprovalStatus != status.ApprovalApproved {
		return nil, ErrChatUserNotFound
	}
	return p, nil
}

func toChatMessageResponse(m *model.ChatMessage) *dto.ChatMessageResponse {
	resp := &dto.ChatMessageResponse{
		ID:          m.ID,
		SenderID:    m.SenderID,
		ReceiverID:  deref(m.ReceiverID),
		Message:     m.Message,
		IsBroadcast: m.IsBroadcast,
		ReadAt:      formatTime(m.ReadAt),
		CreatedAt:   m.CreatedAt.UTC().Format(dto.TimeLayout),
	}
	if m.Sender != nil {
		resp.SenderName = m.Sender.DisplayName()
	}
	return resp
}
