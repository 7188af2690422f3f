package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger 存活探测的依赖（*sql.DB 实现了 PingContext）
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler 健康检查
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler 创建 HealthHandler；db 为 nil 时只报告进程存活
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check 健康检查
// GET /api/v1/health
func (h *HealthHandler) Check(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
