package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/service"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
	"github.com/aloisiojr22/op-track-cycle/pkg/jwt"
	"github.com/aloisiojr22/op-track-cycle/pkg/response"
)

// TokenParser 校验访问令牌（由 *jwt.Manager 实现）
type TokenParser interface {
	ParseToken(tokenString string) (*jwt.Claims, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token；
// EventSource 无法设置请求头，因此缺少认证头时回退到 ?token= 查询参数
func JWTAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractToken(c)
		if !ok {
			return
		}

		claims, err := parser.ParseToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Unauthorized(c, 10002, "Token 已过期")
			} else {
				response.Unauthorized(c, 10002, "Token 无效")
			}
			c.Abort()
			return
		}

		if claims.UserID() == "" {
			response.Unauthorized(c, 10002, "Token 缺少用户标识")
			c.Abort()
			return
		}

		// 将用户信息注入上下文
		c.Set("user_id", claims.UserID())
		c.Set("email", claims.Email)

		c.Next()
	}
}

func extractToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if t := c.Query("token"); t != "" {
			return t, true
		}
		response.Unauthorized(c, 10002, "缺少认证头")
		c.Abort()
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		response.Unauthorized(c, 10002, "认证头格式无效")
		c.Abort()
		return "", false
	}
	return parts[1], true
}

// ProfileEnsurer 首次访问时创建档案（由 service.UserService 实现）
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, userID, email string) (*model.Profile, error)
}

// ProfileGate 档案审批中间件
// 确保当前用户存在档案并注入 role / approval_status；
// allowPending=true 时待审批用户也可通过（仅用于 /me）
func ProfileGate(profiles ProfileEnsurer, logger *zap.Logger, allowPending bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		profile, err := profiles.EnsureProfile(c.Request.Context(), userID, c.GetString("email"))
		if err != nil {
			if errors.Is(err, service.ErrProfileNotFound) {
				response.Forbidden(c, 10006, "账号已被删除")
			} else {
				logger.Error("加载用户档案失败", zap.String("user_id", userID), zap.Error(err))
				response.InternalError(c)
			}
			c.Abort()
			return
		}

		c.Set("role", profile.Role)
		c.Set("approval_status", profile.ApprovalStatus)

		if !allowPending && profile.ApprovalStatus != status.ApprovalApproved {
			response.Forbidden(c, 10007, "账号尚未通过审批")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}

// ManagerOnly 仅管理员与主管
func ManagerOnly() gin.HandlerFunc {
	return RoleAuth(status.RoleAdmin, status.RoleSupervisor)
}
