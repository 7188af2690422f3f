package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/service"
	pkgerrors "github.com/aloisiojr22/op-track-cycle/pkg/errors"
	"github.com/aloisiojr22/op-track-cycle/pkg/response"
)

// PendingHandler 待办模块 HTTP 处理器
type PendingHandler struct {
	pendingSvc service.PendingService
}

// NewPendingHandler 创建 PendingHandler
func NewPendingHandler(pendingSvc service.PendingService) *PendingHandler {
	return &PendingHandler{pendingSvc: pendingSvc}
}

// List 待办列表
// GET /api/v1/pending?resolved=false&mine=true
func (h *PendingHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.PendingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	items, total, err := h.pendingSvc.List(c.Request.Context(), &req, userID)
	if err != nil {
		handlePendingError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// Alert 当前用户未处理待办数
// GET /api/v1/pending/alert
func (h *PendingHandler) Alert(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	alert, err := h.pendingSvc.Alert(c.Request.Context(), userID)
	if err != nil {
		handlePendingError(c, err)
		return
	}

	response.OK(c, alert)
}

// CreateSpecialRequest 提交特殊请求
// POST /api/v1/pending/special-requests
func (h *PendingHandler) CreateSpecialRequest(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateSpecialRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	item, err := h.pendingSvc.CreateSpecialRequest(c.Request.Context(), userID, &req)
	if err != nil {
		handlePendingError(c, err)
		return
	}

	response.Created(c, item)
}

// Assign 指派待办
// POST /api/v1/pending/:id/assign
func (h *PendingHandler) Assign(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := bindIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.AssignPendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	item, err := h.pendingSvc.Assign(c.Request.Context(), id, req.UserID, callerID)
	if err != nil {
		handlePendingError(c, err)
		return
	}

	response.OK(c, item)
}

// AssignToMe 指派给自己
// POST /api/v1/pending/:id/assign-to-me
func (h *PendingHandler) AssignToMe(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := bindIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.pendingSvc.AssignToMe(c.Request.Context(), id, callerID)
	if err != nil {
		handlePendingError(c, err)
		return
	}

	response.OK(c, item)
}

// Resolve 处理待办
// POST /api/v1/pending/:id/resolve
func (h *PendingHandler) Resolve(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := bindIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ResolvePendingRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	item, err := h.pendingSvc.Resolve(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handlePendingError(c, err)
		return
	}

	response.OK(c, item)
}

// handlePendingError 统一处理待办模块业务错误
func handlePendingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPendingItemNotFound):
		response.NotFound(c, 22001, "待办事项不存在")
	case errors.Is(err, service.ErrPendingItemResolved):
		response.Conflict(c, 22002, "待办事项已处理")
	case errors.Is(err, service.ErrAssigneeRequired):
		response.BadRequest(c, 22003, "请选择指派对象")
	case errors.Is(err, service.ErrAssigneeNotFound):
		response.NotFound(c, 22004, "指派对象不存在")
	case errors.Is(err, service.ErrAssigneeNotApproved):
		response.Unprocessable(c, 22005, "指派对象尚未通过审批")
	case errors.Is(err, service.ErrInvalidRequestType):
		response.BadRequest(c, 22006, "无效的请求类型")
	case errors.Is(err, pkgerrors.ErrReferenceMissing):
		response.Unprocessable(c, 22008, "关联的活动或用户已不存在")
	default:
		response.InternalError(c)
	}
}
