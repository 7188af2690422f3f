package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/service"
	"github.com/aloisiojr22/op-track-cycle/pkg/response"
)

// ChatHandler 聊天模块 HTTP 处理器
type ChatHandler struct {
	chatSvc service.ChatService
}

// NewChatHandler 创建 ChatHandler
func NewChatHandler(chatSvc service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// ListContacts 可聊天用户
// GET /api/v1/chat/users
func (h *ChatHandler) ListContacts(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	contacts, err := h.chatSvc.ListContacts(c.Request.Context(), callerID)
	if err != nil {
		handleChatError(c, err)
		return
	}

	response.OK(c, gin.H{"list": contacts})
}

// Conversation 与指定用户的私聊记录
// GET /api/v1/chat/conversations/:user_id?limit=100
func (h *ChatHandler) Conversation(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	otherID, ok := bindIDParam(c, "user_id")
	if !ok {
		return
	}

	var req dto.ConversationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	messages, err := h.chatSvc.Conversation(c.Request.Context(), callerID, otherID, &req)
	if err != nil {
		handleChatError(c, err)
		return
	}

	response.OK(c, gin.H{"list": messages})
}

// Broadcasts 群发消息（最新在前）
// GET /api/v1/chat/broadcast
func (h *ChatHandler) Broadcasts(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	messages, total, err := h.chatSvc.Broadcasts(c.Request.Context(), &req)
	if err != nil {
		handleChatError(c, err)
		return
	}

	response.OKPage(c, messages, total, req.GetPage(), req.GetPageSize())
}

// Send 发送消息
// POST /api/v1/chat/messages
func (h *ChatHandler) Send(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	msg, err := h.chatSvc.Send(c.Request.Context(), callerID, &req)
	if err != nil {
		handleChatError(c, err)
		return
	}

	response.Created(c, msg)
}

// Unread 未读消息汇总
// GET /api/v1/chat/unread
func (h *ChatHandler) Unread(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	unread, err := h.chatSvc.Unread(c.Request.Context(), callerID)
	if err != nil {
		handleChatError(c, err)
		return
	}

	response.OK(c, unread)
}

func handleChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMessageEmpty):
		response.BadRequest(c, 24001, "消息内容不能为空")
	case errors.Is(err, service.ErrMessageTooLong):
		response.BadRequest(c, 24002, "消息内容过长")
	case errors.Is(err, service.ErrReceiverRequired):
		response.BadRequest(c, 24003, "请选择接收人")
	case errors.Is(err, service.ErrCannotMessageSelf):
		response.BadRequest(c, 24004, "不能给自己发送消息")
	case errors.Is(err, service.ErrChatUserNotFound):
		response.NotFound(c, 24005, "聊天对象不存在或未通过审批")
	default:
		response.InternalError(c)
	}
}
