package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/service"
	"github.com/aloisiojr22/op-track-cycle/pkg/response"
)

// ActivityHandler 活动目录模块 HTTP 处理器
type ActivityHandler struct {
	activitySvc service.ActivityService
}

// NewActivityHandler 创建 ActivityHandler
func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

// List 活动列表
// GET /api/v1/activities
func (h *ActivityHandler) List(c *gin.Context) {
	list, err := h.activitySvc.List(c.Request.Context())
	if err != nil {
		handleActivityError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Create 创建活动
// POST /api/v1/activities
func (h *ActivityHandler) Create(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	activity, err := h.activitySvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleActivityError(c, err)
		return
	}

	response.Created(c, activity)
}

// Update 更新活动
// PUT /api/v1/activities/:id
func (h *ActivityHandler) Update(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := bindIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	activity, err := h.activitySvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleActivityError(c, err)
		return
	}

	response.OK(c, activity)
}

// Delete 删除活动
// DELETE /api/v1/activities/:id
func (h *ActivityHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := bindIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.activitySvc.Delete(c.Request.Context(), id, callerID); err != nil {
		handleActivityError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListAssignments 全部分配
// GET /api/v1/activities/assignments
func (h *ActivityHandler) ListAssignments(c *gin.Context) {
	list, err := h.activitySvc.ListAssignments(c.Request.Context())
	if err != nil {
		handleActivityError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ReplaceAssignments 整体替换活动分配
// PUT /api/v1/activities/:id/assignments
func (h *ActivityHandler) ReplaceAssignments(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := bindIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ReplaceAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.activitySvc.ReplaceAssignments(c.Request.Context(), id, &req, callerID)
	if err != nil {
		handleActivityError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

func handleActivityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrActivityNotFound):
		response.NotFound(c, 23001, "活动不存在")
	case errors.Is(err, service.ErrActivityNameRequired):
		response.BadRequest(c, 23002, "活动名称不能为空")
	case errors.Is(err, service.ErrAssignmentUserNotFound):
		response.BadRequest(c, 23003, "分配的用户不存在")
	default:
		response.InternalError(c)
	}
}
