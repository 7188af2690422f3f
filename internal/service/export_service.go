package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/model"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
	ErrExportRange        = errors.New("导出日期范围无效")
)

// 日历导出的最大跨度
const maxICSRangeDays = 366

// ExportService 导出业务接口
//
//   - 报表导出为 Excel（Operadores / Diário 两个 Sheet）或 CSV
//   - 个人历史导出为 iCalendar，每条每日记录一个全天事件
//   - 内容以 bytes.Buffer 返回，Handler 负责响应头
type ExportService interface {
	ExportReport(ctx context.Context, period string) (*bytes.Buffer, string, error)
	ExportReportCSV(ctx context.Context, period string) (*bytes.Buffer, string, error)
	ExportHistoryICS(ctx context.Context, userID string, req *dto.HistoryExportRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	reports ReportService
	clock   Clock
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(reports ReportService, clock Clock, logger *zap.Logger) ExportService {
	return &exportService{reports: reports, clock: clock, logger: logger}
}

var reportHeader = []string{"Nome", "Email", "Total", "Concluídas", "Pendentes", "Com Atraso", "Taxa Conclusão", "Taxa Atraso"}

func reportFilename(period, ext string, now time.Time) string {
	return fmt.Sprintf("relatorio_%s_%s.%s", period, model.NewDate(now), ext)
}

// ═══════════════════════════════════════════════════════════
// ExportReport — 报表导出为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportReport(ctx context.Context, period string) (*bytes.Buffer, string, error) {
	report, err := s.reports.Report(ctx, period)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// Sheet 1：操作员统计
	opSheet := "Operadores"
	idx, _ := f.NewSheet(opSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(opSheet, "A", "B", 28)
	f.SetColWidth(opSheet, "C", "H", 14)
	for i, h := range reportHeader {
		f.SetCellValue(opSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(opSheet, "A1", cell(colName(len(reportHeader)-1), 1), headerStyle)

	for i, op := range report.Operators {
		row := i + 2
		f.SetCellValue(opSheet, cell("A", row), op.Name)
		f.SetCellValue(opSheet, cell("B", row), op.Email)
		f.SetCellValue(opSheet, cell("C", row), op.Total)
		f.SetCellValue(opSheet, cell("D", row), op.Completed)
		f.SetCellValue(opSheet, cell("E", row), op.Pending)
		f.SetCellValue(opSheet, cell("F", row), op.Late)
		f.SetCellValue(opSheet, cell("G", row), fmt.Sprintf("%d%%", op.CompletionRate))
		f.SetCellValue(opSheet, cell("H", row), fmt.Sprintf("%d%%", op.LateRate))
	}

	// Sheet 2：按日汇总
	daySheet := "Diário"
	f.NewSheet(daySheet)
	f.SetColWidth(daySheet, "A", "E", 16)
	for i, h := range []string{"Data", "Concluídas", "Pendentes", "Em Andamento", "Não Iniciadas"} {
		f.SetCellValue(daySheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(daySheet, "A1", "E1", headerStyle)
	for i, d := range report.Daily {
		row := i + 2
		f.SetCellValue(daySheet, cell("A", row), d.Date)
		f.SetCellValue(daySheet, cell("B", row), d.Completed)
		f.SetCellValue(daySheet, cell("C", row), d.Pending)
		f.SetCellValue(daySheet, cell("D", row), d.InProgress)
		f.SetCellValue(daySheet, cell("E", row), d.NotStarted)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, reportFilename(report.Period, "xlsx", s.clock()), nil
}

// ═══════════════════════════════════════════════════════════
// ExportReportCSV — 报表导出为 CSV
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportReportCSV(ctx context.Context, period string) (*bytes.Buffer, string, error) {
	report, err := s.reports.Report(ctx, period)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	rows := [][]string{reportHeader}
	for _, op := range report.Operators {
		rows = append(rows, []string{
			op.Name,
			op.Email,
			strconv.Itoa(op.Total),
			strconv.Itoa(op.Completed),
			strconv.Itoa(op.Pending),
			strconv.Itoa(op.Late),
			strconv.Itoa(op.CompletionRate) + "%",
			strconv.Itoa(op.LateRate) + "%",
		})
	}
	if err := w.WriteAll(rows); err != nil {
		s.logger.Error("写入 CSV 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, reportFilename(report.Period, "csv", s.clock()), nil
}

// ═══════════════════════════════════════════════════════════
// ExportHistoryICS — 个人历史导出为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// from / to 缺省为本月；UID 使用每日记录 ID，重复导入日历不会产生重复事件

func (s *exportService) ExportHistoryICS(ctx context.Context, userID string, req *dto.HistoryExportRequest) (*bytes.Buffer, string, error) {
	now := s.clock()
	month, _ := PeriodRanges(PeriodMonth, now)
	r := month
	if req.From != "" {
		r.From = model.Date(req.From)
	}
	if req.To != "" {
		r.To = model.Date(req.To)
	}
	span := r.To.Time().Sub(r.From.Time())
	if span < 0 || span > maxICSRangeDays*24*time.Hour {
		return nil, "", ErrExportRange
	}

	records, err := s.reports.RecordsInRange(ctx, userID, r)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//op-track-cycle//history//PT")
	cal.SetXWRCalName("Histórico de Atividades")

	for i := range records {
		rec := &records[i]
		name := rec.ActivityID
		if rec.Activity != nil {
			name = rec.Activity.Name
		}
		day := rec.Date.Time()

		event := cal.AddEvent(rec.ID + "@op-track-cycle")
		event.SetDtStampTime(now)
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		event.SetSummary(fmt.Sprintf("%s - %s", name, rec.Status.Label()))
		if rec.HasJustification() {
			event.SetDescription(*rec.Justification)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("historico_%s_%s.ics", r.From, r.To)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
