package model

import "time"

// Activity 活动目录表 — 对应 activities
type Activity struct {
	ID                  string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name                string  `gorm:"type:varchar(200);not null"                     json:"name"`
	Description         *string `gorm:"type:text"                                      json:"description,omitempty"`
	IsDutyActivity      bool    `gorm:"not null;default:false"                         json:"is_duty_activity"`
	IsMonthlyConference bool    `gorm:"not null;default:false"                         json:"is_monthly_conference"`
	SoftDeleteModel
}

// TableName 指定表名
func (Activity) TableName() string { return "activities" }

// UserActivity 用户 × 活动分配表 — 对应 user_activities
type UserActivity struct {
	ID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                 json:"id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:uq_user_activities_user_activity" json:"user_id"`
	ActivityID string    `gorm:"type:uuid;not null;uniqueIndex:uq_user_activities_user_activity" json:"activity_id"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                             json:"created_at"`
	CreatedBy  *string   `gorm:"type:uuid"                                                      json:"created_by,omitempty"`

	// 关联
	Activity *Activity `gorm:"foreignKey:ActivityID;references:ID" json:"activity,omitempty"`
}

// TableName 指定表名
func (UserActivity) TableName() string { return "user_activities" }
