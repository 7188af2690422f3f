package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/service"
	"github.com/aloisiojr22/op-track-cycle/pkg/response"
)

// OperationLogHandler 操作日志查询
type OperationLogHandler struct {
	oplogSvc service.OperationLogService
}

// NewOperationLogHandler 创建 OperationLogHandler
func NewOperationLogHandler(oplogSvc service.OperationLogService) *OperationLogHandler {
	return &OperationLogHandler{oplogSvc: oplogSvc}
}

// List 操作日志
// GET /api/v1/admin/logs?table=pending_items&operation=resolve
func (h *OperationLogHandler) List(c *gin.Context) {
	var req dto.OperationLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	logs, total, err := h.oplogSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, logs, total, req.GetPage(), req.GetPageSize())
}
