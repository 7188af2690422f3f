package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ── PostgreSQL DATE 自定义类型 ──

// DateLayout 日历日期格式
const DateLayout = "2006-01-02"

// Date 对应 PostgreSQL DATE 类型，以 "YYYY-MM-DD" 文本在程序内流转。
// 日期不带时区，按部署所在地的日历日理解。
type Date string

// NewDate 取 t 在其所属时区下的日历日
func NewDate(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// ParseDate 解析 "YYYY-MM-DD"
func ParseDate(s string) (Date, error) {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("无效日期 %q: %w", s, err)
	}
	return Date(s), nil
}

// Time 返回当天 00:00（UTC）
func (d Date) Time() time.Time {
	t, _ := time.Parse(DateLayout, string(d))
	return t
}

// String 实现 fmt.Stringer
func (d Date) String() string { return string(d) }

// Scan 将驱动返回的 time.Time / 文本转为 Date。
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = Date(v.Format(DateLayout))
	case []byte:
		*d = Date(truncateDate(string(v)))
	case string:
		*d = Date(truncateDate(v))
	default:
		return fmt.Errorf("Date.Scan: unsupported type %T", src)
	}
	return nil
}

// Value 将 Date 序列化为 DATE 文本；空值写入 NULL。
func (d Date) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

func truncateDate(s string) string {
	if len(s) > len(DateLayout) {
		return s[:len(DateLayout)]
	}
	return s
}

// BaseModel 通用审计字段
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}
