package model

import (
	"time"

	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

// DailyRecord 每日记录表 — 对应 daily_records
// (user_id, activity_id, date) 唯一
type DailyRecord struct {
	ID            string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                         json:"id"`
	UserID        string        `gorm:"type:uuid;not null;uniqueIndex:uq_daily_records_user_activity_date"     json:"user_id"`
	ActivityID    string        `gorm:"type:uuid;not null;uniqueIndex:uq_daily_records_user_activity_date"     json:"activity_id"`
	Date          Date          `gorm:"type:date;not null;uniqueIndex:uq_daily_records_user_activity_date"     json:"date"`
	Status        status.Status `gorm:"type:varchar(30);not null;default:nao_iniciada"                         json:"status"`
	Justification *string       `gorm:"type:text"                                                              json:"justification,omitempty"`
	ActionTaken   *string       `gorm:"type:text"                                                              json:"action_taken,omitempty"`
	StartedAt     *time.Time    `gorm:"type:timestamptz"                                                       json:"started_at,omitempty"`
	CompletedAt   *time.Time    `gorm:"type:timestamptz"                                                       json:"completed_at,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"                                     json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"                                     json:"updated_at"`

	// 关联
	Activity *Activity `gorm:"foreignKey:ActivityID;references:ID" json:"activity,omitempty"`
}

// TableName 指定表名
func (DailyRecord) TableName() string { return "daily_records" }

// HasJustification 理由非空（纯空白视为空）
func (r *DailyRecord) HasJustification() bool {
	return !blank(r.Justification)
}
