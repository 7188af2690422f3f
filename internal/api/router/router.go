package router

import (
	"fmt"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aloisiojr22/op-track-cycle/config"
	"github.com/aloisiojr22/op-track-cycle/internal/api/handler"
	"github.com/aloisiojr22/op-track-cycle/internal/api/middleware"
	"github.com/aloisiojr22/op-track-cycle/internal/api/validation"
)

// maxBodyBytes 请求体上限（消息与理由最长 2000 字，1MB 足够）
const maxBodyBytes = 1 << 20

// Deps 路由所需的中间件依赖；Limiter 为 nil 时不限流
type Deps struct {
	Tokens   middleware.TokenParser
	Profiles middleware.ProfileEnsurer
	Limiter  middleware.RateLimiter
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, d Deps, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := validation.Register(); err != nil {
		return nil, fmt.Errorf("注册校验规则失败: %w", err)
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	compressed := gzip.Gzip(gzip.DefaultCompression)
	managerOnly := middleware.ManagerOnly()

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 健康检查（无需认证）
		v1.GET("/health", h.Health.Check)

		authed := v1.Group("")
		authed.Use(middleware.JWTAuth(d.Tokens))

		// 待审批用户也可查看自己的档案
		authed.GET("/me", middleware.ProfileGate(d.Profiles, logger, true), h.User.GetMe)

		approved := authed.Group("")
		approved.Use(middleware.ProfileGate(d.Profiles, logger, false))
		approved.Use(middleware.RateLimit(d.Limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window))
		{
			// 工作日模块
			day := approved.Group("/day")
			{
				day.GET("/today", h.Day.GetToday)
				day.POST("/start", h.Day.StartDay)
				day.POST("/end", h.Day.EndDay)
				day.PUT("/records/:activity_id/status", h.Day.UpdateStatus)
				day.PUT("/records/:activity_id/justification", h.Day.SaveJustification)
			}

			// 待办模块
			pending := approved.Group("/pending")
			{
				pending.GET("", h.Pending.List)
				pending.GET("/alert", h.Pending.Alert)
				pending.POST("/special-requests", h.Pending.CreateSpecialRequest)
				pending.POST("/:id/assign", h.Pending.Assign)
				pending.POST("/:id/assign-to-me", h.Pending.AssignToMe)
				pending.POST("/:id/resolve", h.Pending.Resolve)
			}

			// 活动目录模块
			activities := approved.Group("/activities")
			{
				activities.GET("", h.Activity.List)
				activities.GET("/assignments", managerOnly, h.Activity.ListAssignments)
				activities.POST("", managerOnly, h.Activity.Create)
				activities.PUT("/:id", managerOnly, h.Activity.Update)
				activities.DELETE("/:id", managerOnly, h.Activity.Delete)
				activities.PUT("/:id/assignments", managerOnly, h.Activity.ReplaceAssignments)
			}

			// 聊天模块
			chat := approved.Group("/chat")
			{
				chat.GET("/users", h.Chat.ListContacts)
				chat.GET("/conversations/:user_id", h.Chat.Conversation)
				chat.GET("/broadcast", h.Chat.Broadcasts)
				chat.POST("/messages", h.Chat.Send)
				chat.GET("/unread", h.Chat.Unread)
			}

			// 个人历史
			history := approved.Group("/history", compressed)
			{
				history.GET("", h.Report.History)
				history.GET("/ics", h.Report.HistoryICS)
			}

			// 实时推送（SSE 不压缩）
			approved.GET("/realtime/stream", h.Realtime.Stream)

			// 帮助助手
			assistant := approved.Group("/assistant")
			{
				assistant.POST("/query", h.Assistant.Query)
				assistant.POST("/batch", h.Assistant.Batch)
			}

			// 管理端
			admin := approved.Group("/admin", managerOnly)
			{
				admin.GET("/users", h.User.List)
				admin.PUT("/users/:id/approve", h.User.Approve)
				admin.PUT("/users/:id/reject", h.User.Reject)
				admin.PUT("/users/:id/role", h.User.UpdateRole)
				admin.DELETE("/users/:id", h.User.Delete)

				admin.GET("/dashboard", h.Report.Dashboard)
				admin.GET("/logs", h.OpLog.List)

				reports := admin.Group("/reports", compressed)
				{
					reports.GET("", h.Report.Report)
					reports.GET("/operators/:id", h.Report.OperatorDetail)
					reports.GET("/export", h.Report.Export)
				}
			}
		}
	}

	return r, nil
}
