package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/service"
	"github.com/aloisiojr22/op-track-cycle/pkg/response"
)

// UserHandler 用户档案模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetMe 获取当前用户档案（待审批用户也可访问）
// GET /api/v1/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	profile, err := h.userSvc.GetMe(c.Request.Context(), userID)
	if err != nil {
		handleUserError(c, err)
		return
	}

	response.OK(c, profile)
}

// List 用户列表
// GET /api/v1/admin/users?approval_status=pending
func (h *UserHandler) List(c *gin.Context) {
	var req dto.ProfileListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	users, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleUserError(c, err)
		return
	}

	response.OK(c, gin.H{"list": users})
}

// Approve 审批通过
// PUT /api/v1/admin/users/:id/approve
func (h *UserHandler) Approve(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := bindIDParam(c, "id")
	if !ok {
		return
	}

	profile, err := h.userSvc.Approve(c.Request.Context(), id, callerID)
	if err != nil {
		handleUserError(c, err)
		return
	}

	response.OK(c, profile)
}

// Reject 审批拒绝
// PUT /api/v1/admin/users/:id/reject
func (h *UserHandler) Reject(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := bindIDParam(c, "id")
	if !ok {
		return
	}

	profile, err := h.userSvc.Reject(c.Request.Context(), id, callerID)
	if err != nil {
		handleUserError(c, err)
		return
	}

	response.OK(c, profile)
}

// UpdateRole 修改角色
// PUT /api/v1/admin/users/:id/role
func (h *UserHandler) UpdateRole(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := bindIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	profile, err := h.userSvc.UpdateRole(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleUserError(c, err)
		return
	}

	response.OK(c, profile)
}

// Delete 删除用户
// DELETE /api/v1/admin/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := bindIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleUserError(c, err)
		return
	}

	response.OK(c, nil)
}

func handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		response.NotFound(c, 20001, "用户不存在")
	case errors.Is(err, service.ErrCannotDeleteSelf):
		response.BadRequest(c, 20002, "不能删除自己的账号")
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, 20003, "无效的角色")
	default:
		response.InternalError(c)
	}
}
