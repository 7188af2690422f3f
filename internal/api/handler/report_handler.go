package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/service"
	"github.com/aloisiojr22/op-track-cycle/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ReportHandler 报表、历史与导出 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
	exportSvc service.ExportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService, exportSvc service.ExportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, exportSvc: exportSvc}
}

// History 个人历史
// GET /api/v1/history?period=week
func (h *ReportHandler) History(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	period, ok := bindPeriod(c)
	if !ok {
		return
	}

	history, err := h.reportSvc.History(c.Request.Context(), userID, period)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, history)
}

// HistoryICS 个人历史导出为 iCalendar
// GET /api/v1/history/ics?from=2024-03-01&to=2024-03-31
func (h *ReportHandler) HistoryICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.HistoryExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportHistoryICS(c.Request.Context(), userID, &req)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.Attachment(c, contentTypeICS, filename, buf.Bytes())
}

// Report 全员报表
// GET /api/v1/admin/reports?period=week
func (h *ReportHandler) Report(c *gin.Context) {
	period, ok := bindPeriod(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.Report(c.Request.Context(), period)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// OperatorDetail 单个操作员的明细
// GET /api/v1/admin/reports/operators/:id?period=week
func (h *ReportHandler) OperatorDetail(c *gin.Context) {
	period, ok := bindPeriod(c)
	if !ok {
		return
	}
	id, ok := bindIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.reportSvc.OperatorDetail(c.Request.Context(), id, period)
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, detail)
}

// Export 导出报表
// GET /api/v1/admin/reports/export?period=week&format=xlsx|csv
func (h *ReportHandler) Export(c *gin.Context) {
	var req dto.ReportExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	var (
		buf         *bytes.Buffer
		filename    string
		contentType string
		err         error
	)
	if req.Format == "csv" {
		buf, filename, err = h.exportSvc.ExportReportCSV(c.Request.Context(), req.Period)
		contentType = contentTypeCSV
	} else {
		buf, filename, err = h.exportSvc.ExportReport(c.Request.Context(), req.Period)
		contentType = contentTypeXLSX
	}
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.Attachment(c, contentType, filename, buf.Bytes())
}

// Dashboard 管理端总览
// GET /api/v1/admin/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.reportSvc.Dashboard(c.Request.Context())
	if err != nil {
		handleReportError(c, err)
		return
	}

	response.OK(c, dashboard)
}

func handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		response.NotFound(c, 25001, "用户不存在")
	case errors.Is(err, service.ErrExportRange):
		response.BadRequest(c, 25002, "导出日期范围无效")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 25003, "生成导出文件失败")
	default:
		response.InternalError(c)
	}
}
