package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError(t *testing.T) {
	plain := errors.New("boom")

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"唯一约束", &pgconn.PgError{Code: "23505"}, ErrConflict},
		{"外键约束", &pgconn.PgError{Code: "23503"}, ErrReferenceMissing},
		{"包装后的唯一约束", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), ErrConflict},
		{"其他错误", plain, plain},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapDBError(tc.in)
			if got != tc.want {
				t.Errorf("期望 %v，实际 %v", tc.want, got)
			}
		})
	}
}
