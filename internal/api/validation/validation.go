// Package validation 注册业务相关的 binding 校验规则。
package validation

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

// Register 在 gin 默认校验引擎上注册自定义规则：
//   - activity_status: 用户可手动设置的每日记录状态
//   - request_type:    特殊请求类型
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("binding 校验引擎不是 validator.Validate")
	}

	if err := v.RegisterValidation("activity_status", func(fl validator.FieldLevel) bool {
		return status.UserSettable(status.Status(fl.Field().String()))
	}); err != nil {
		return fmt.Errorf("注册 activity_status 校验失败: %w", err)
	}

	if err := v.RegisterValidation("request_type", func(fl validator.FieldLevel) bool {
		return status.RequestType(fl.Field().String()).Valid()
	}); err != nil {
		return fmt.Errorf("注册 request_type 校验失败: %w", err)
	}

	return nil
}
