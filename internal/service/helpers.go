package service

import (
	"math"
	"strings"
	"time"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

// Clock 返回业务时区下的当前时间
type Clock func() time.Time

// NewClock 创建固定时区的时钟
func NewClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

// ── 指针与格式化 ──

func strPtr(s string) *string { return &s }

// optionalText 去除首尾空白，空串视为 NULL
func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dto.TimeLayout)
}

// percent 四舍五入的百分比，total 为 0 时返回 0
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(part)*100/float64(total) + 0.5))
}

// ── 响应转换 ──

func toDailyRecordResponse(rec *model.DailyRecord) *dto.DailyRecordResponse {
	resp := &dto.DailyRecordResponse{
		ID:            rec.ID,
		UserID:        rec.UserID,
		ActivityID:    rec.ActivityID,
		Date:          rec.Date.String(),
		Status:        string(rec.Status),
		StatusLabel:   rec.Status.Label(),
		Justification: deref(rec.Justification),
		ActionTaken:   deref(rec.ActionTaken),
		StartedAt:     formatTime(rec.StartedAt),
		CompletedAt:   formatTime(rec.CompletedAt),
	}
	if rec.Activity != nil {
		resp.ActivityName = rec.Activity.Name
	}
	return resp
}

func toPendingItemResponse(item *model.PendingItem) *dto.PendingItemResponse {
	resp := &dto.PendingItemResponse{
		ID:               item.ID,
		OriginalUserID:   item.OriginalUserID,
		AssignedUserID:   deref(item.AssignedUserID),
		ActivityID:       deref(item.ActivityID),
		Description:      deref(item.Description),
		Justification:    deref(item.Justification),
		ActionTaken:      deref(item.ActionTaken),
		RequestType:      deref(item.RequestType),
		IsSpecialRequest: item.IsSpecialRequest,
		Resolved:         item.Resolved,
		ResolvedAt:       formatTime(item.ResolvedAt),
		CreatedAt:        item.CreatedAt.UTC().Format(dto.TimeLayout),
	}
	if item.RequestType != nil {
		resp.RequestTypeLabel = status.RequestType(*item.RequestType).Label()
	}
	if item.OriginalDate != nil {
		resp.OriginalDate = item.OriginalDate.String()
	}
	if item.Activity != nil {
		resp.ActivityName = item.Activity.Name
	}
	return resp
}

func statusStrings(list []status.Status) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = string(s)
	}
	return out
}
