package model

import (
	"strings"
	"time"
)

// PendingItem 待办事项表 — 对应 pending_items
// 来源有二：结束工作日时未完成的每日记录，或用户直接提交的特殊请求。
// 非特殊请求的 activity_id + original_user_id + original_date 指回原每日记录。
type PendingItem struct {
	ID               string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OriginalUserID   string     `gorm:"type:uuid;not null"                             json:"original_user_id"`
	AssignedUserID   *string    `gorm:"type:uuid"                                      json:"assigned_user_id,omitempty"`
	ActivityID       *string    `gorm:"type:uuid"                                      json:"activity_id,omitempty"`
	Description      *string    `gorm:"type:text"                                      json:"description,omitempty"`
	Justification    *string    `gorm:"type:text"                                      json:"justification,omitempty"`
	ActionTaken      *string    `gorm:"type:text"                                      json:"action_taken,omitempty"`
	RequestType      *string    `gorm:"type:varchar(40)"                               json:"request_type,omitempty"`
	IsSpecialRequest bool       `gorm:"not null;default:false"                         json:"is_special_request"`
	Resolved         bool       `gorm:"not null;default:false"                         json:"resolved"`
	ResolvedAt       *time.Time `gorm:"type:timestamptz"                               json:"resolved_at,omitempty"`
	OriginalDate     *Date      `gorm:"type:date"                                      json:"original_date,omitempty"`
	CreatedAt        time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	// 关联
	Activity *Activity `gorm:"foreignKey:ActivityID;references:ID" json:"activity,omitempty"`
}

// TableName 指定表名
func (PendingItem) TableName() string { return "pending_items" }

// ActivityLinked 是否关联到某条每日记录
func (p *PendingItem) ActivityLinked() bool {
	return p.ActivityID != nil && *p.ActivityID != ""
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
