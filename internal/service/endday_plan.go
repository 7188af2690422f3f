package service

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

// EndDayReason 记录被转为待办的原因
type EndDayReason string

const (
	ReasonInProgress EndDayReason = "em_andamento"
	ReasonNotStarted EndDayReason = "nao_iniciada_sem_justificativa"
)

// EndDayStep 结束工作日的一步：为 Record 新建 Item，再把 Record 置为 pendente
type EndDayStep struct {
	Reason EndDayReason      `json:"reason"`
	Record model.DailyRecord `json:"record"`
	Item   model.PendingItem `json:"pending_item"`
}

// PlanEndDay 根据当天的记录集合（按活动 ID 索引）生成结束工作日的写入计划。
//
// 规则：
//   - em_andamento：待办复制记录的理由与已采取措施
//   - nao_iniciada 且理由为空：待办只带用户、活动和日期
//   - 其余状态以及有理由的 nao_iniciada 不处理
//
// 先处理全部进行中记录，再处理未开始记录；组内按活动 ID 排序。
// 纯函数，不访问存储。
func PlanEndDay(records map[string]model.DailyRecord, userID string, date model.Date) []EndDayStep {
	all := lo.Values(records)
	sort.Slice(all, func(i, j int) bool { return all[i].ActivityID < all[j].ActivityID })

	inProgress := lo.Filter(all, func(r model.DailyRecord, _ int) bool {
		return r.Status == status.InProgress
	})
	notStarted := lo.Filter(all, func(r model.DailyRecord, _ int) bool {
		return r.Status == status.NotStarted && !r.HasJustification()
	})

	steps := make([]EndDayStep, 0, len(inProgress)+len(notStarted))
	for _, rec := range inProgress {
		item := newEscalatedItem(rec, userID, date)
		item.Justification = copyText(rec.Justification)
		item.ActionTaken = copyText(rec.ActionTaken)
		steps = append(steps, EndDayStep{Reason: ReasonInProgress, Record: rec, Item: item})
	}
	for _, rec := range notStarted {
		steps = append(steps, EndDayStep{Reason: ReasonNotStarted, Record: rec, Item: newEscalatedItem(rec, userID, date)})
	}
	return steps
}

func newEscalatedItem(rec model.DailyRecord, userID string, date model.Date) model.PendingItem {
	activityID := rec.ActivityID
	d := date
	return model.PendingItem{
		OriginalUserID: userID,
		ActivityID:     &activityID,
		OriginalDate:   &d,
	}
}

func copyText(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// EndDayError 结束工作日中途失败。
// 之前已完成的 Applied 步保持生效，不做补偿；Step 为失败的那一步。
type EndDayError struct {
	Applied int
	Step    EndDayStep
	Err     error
}

func (e *EndDayError) Error() string {
	return fmt.Sprintf("结束工作日失败：已完成 %d 步，活动 %s 处理出错: %v", e.Applied, e.Step.Record.ActivityID, e.Err)
}

func (e *EndDayError) Unwrap() error { return e.Err }
