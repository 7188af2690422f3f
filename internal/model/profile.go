package model

import (
	"time"

	"gorm.io/gorm"
)

// Profile 用户档案表 — 对应 profiles
// ID 与外部认证服务的用户 ID（token.sub）一致
type Profile struct {
	ID             string         `gorm:"type:uuid;primaryKey"                         json:"id"`
	Email          string         `gorm:"type:varchar(255);not null"                   json:"email"`
	FullName       *string        `gorm:"type:varchar(120)"                            json:"full_name,omitempty"`
	Role           string         `gorm:"type:varchar(40);not null;default:operador"   json:"role"`
	ApprovalStatus string         `gorm:"type:varchar(20);not null;default:pending"    json:"approval_status"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"           json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"           json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index"                                        json:"deleted_at,omitempty"`
	DeletedBy      *string        `gorm:"type:uuid"                                    json:"deleted_by,omitempty"`
}

// TableName 指定表名
func (Profile) TableName() string { return "profiles" }

// DisplayName 优先使用姓名，缺省时退回邮箱
func (p *Profile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return p.Email
}
