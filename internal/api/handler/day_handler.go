package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/service"
	pkgerrors "github.com/aloisiojr22/op-track-cycle/pkg/errors"
	"github.com/aloisiojr22/op-track-cycle/pkg/response"
)

// DayHandler 工作日模块 HTTP 处理器
type DayHandler struct {
	daySvc service.DayService
}

// NewDayHandler 创建 DayHandler
func NewDayHandler(daySvc service.DayService) *DayHandler {
	return &DayHandler{daySvc: daySvc}
}

// GetToday 今日工作台
// GET /api/v1/day/today
func (h *DayHandler) GetToday(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	today, err := h.daySvc.GetToday(c.Request.Context(), userID)
	if err != nil {
		handleDayError(c, err)
		return
	}

	response.OK(c, today)
}

// StartDay 开始工作日
// POST /api/v1/day/start
func (h *DayHandler) StartDay(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	date, ok := bindDayRequest(c)
	if !ok {
		return
	}

	result, err := h.daySvc.StartDay(c.Request.Context(), userID, date)
	if err != nil {
		handleDayError(c, err)
		return
	}

	response.OK(c, result)
}

// EndDay 结束工作日
// POST /api/v1/day/end
func (h *DayHandler) EndDay(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	date, ok := bindDayRequest(c)
	if !ok {
		return
	}

	result, err := h.daySvc.EndDay(c.Request.Context(), userID, date)
	if err != nil {
		handleDayError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateStatus 修改活动状态
// PUT /api/v1/day/records/:activity_id/status
func (h *DayHandler) UpdateStatus(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	activityID, ok := bindIDParam(c, "activity_id")
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	rec, err := h.daySvc.UpdateStatus(c.Request.Context(), userID, activityID, &req)
	if err != nil {
		handleDayError(c, err)
		return
	}

	response.OK(c, rec)
}

// SaveJustification 保存理由与已采取措施
// PUT /api/v1/day/records/:activity_id/justification
func (h *DayHandler) SaveJustification(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	activityID, ok := bindIDParam(c, "activity_id")
	if !ok {
		return
	}

	var req dto.SaveJustificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	rec, err := h.daySvc.SaveJustification(c.Request.Context(), userID, activityID, &req)
	if err != nil {
		handleDayError(c, err)
		return
	}

	response.OK(c, rec)
}

// bindDayRequest 请求体可省略；date 缺省时由 Service 取今天
func bindDayRequest(c *gin.Context) (model.Date, bool) {
	var req dto.DayRequest
	if !bindOptionalJSON(c, &req) {
		return "", false
	}
	return model.Date(req.Date), true
}

// handleDayError 统一处理工作日模块业务错误
func handleDayError(c *gin.Context, err error) {
	var endErr *service.EndDayError
	switch {
	case errors.Is(err, service.ErrNoAssignments):
		response.Unprocessable(c, 21001, "当前用户没有分配任何活动")
	case errors.Is(err, service.ErrDayNotStarted):
		response.Unprocessable(c, 21002, "工作日尚未开始")
	case errors.Is(err, service.ErrStatusNotSelectable):
		response.Unprocessable(c, 21003, "该活动不允许选择此状态")
	case errors.Is(err, service.ErrActivityNotFound):
		response.NotFound(c, 21004, "活动不存在")
	case errors.Is(err, pkgerrors.ErrLocked):
		response.Conflict(c, 21005, "工作日正在处理中，请稍后重试")
	case errors.As(err, &endErr):
		response.ErrorWithDetails(c, http.StatusInternalServerError, 21006, "结束工作日未全部完成", endErr.Error())
	default:
		response.InternalError(c)
	}
}
