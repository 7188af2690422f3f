package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/pkg/response"
)

// 上下文键（由认证中间件写入）
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, CtxUserID)
}

// MustGetRole 从 Gin 上下文中安全提取 role（由档案中间件写入）。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, CtxRole)
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// bindPeriod 读取 ?period=day|week|month，缺省为 week
func bindPeriod(c *gin.Context) (string, bool) {
	var req dto.PeriodRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return "", false
	}
	return req.Period, true
}

// bindIDParam 读取路径中的 UUID 参数，格式不合法时写入 400
func bindIDParam(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return "", false
	}
	return id, true
}

// bindOptionalJSON 请求体可省略；空体（含分块传输的空体）按零值处理
func bindOptionalJSON(c *gin.Context, obj interface{}) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return false
	}
	return true
}
