package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/service"
	"github.com/aloisiojr22/op-track-cycle/pkg/response"
)

// AssistantHandler 帮助助手
type AssistantHandler struct {
	assistantSvc service.AssistantService
}

// NewAssistantHandler 创建 AssistantHandler
func NewAssistantHandler(assistantSvc service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantSvc: assistantSvc}
}

// Query 单个问题
// POST /api/v1/assistant/query
func (h *AssistantHandler) Query(c *gin.Context) {
	var req dto.AssistantQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	response.OK(c, h.assistantSvc.Query(c.Request.Context(), req.Question))
}

// Batch 批量提问，结果顺序与问题一致
// POST /api/v1/assistant/batch
func (h *AssistantHandler) Batch(c *gin.Context) {
	var req dto.AssistantBatchQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	response.OK(c, gin.H{"list": h.assistantSvc.BatchQuery(c.Request.Context(), req.Questions)})
}
