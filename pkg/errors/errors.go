package errors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrConflict 唯一约束冲突：记录已存在
	ErrConflict = errors.New("记录已存在")
	// ErrReferenceMissing 外键约束失败：引用的记录不存在
	ErrReferenceMissing = errors.New("引用的记录不存在")
	// ErrLocked 资源正被其他请求处理
	ErrLocked = errors.New("操作正在处理中，请稍后再试")
)

// PostgreSQL SQLSTATE
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// MapDBError 将驱动层错误映射为业务可识别的错误
// 无法识别的错误原样返回
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrConflict
		case pgForeignKeyViolation:
			return ErrReferenceMissing
		}
	}
	return err
}
