package controller

import (
	"athos_explorer_backend/internal/service"
	"athos_explorer_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

type IngestEventsRequest struct {
	Events []service.ClientEvent `json:"events"`
}

// @Summary 批量上报学习行为事件
// @Description 按 eventId 去重，单批最多 100 条
// @Tags 分析
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body IngestEventsRequest true "事件"
// @Success 200 {object} util.Response{data=service.IngestResult}
// @Failure 400 {object} util.Response
// @Router /api/analytics/events [post]
func (c *AnalyticsController) IngestEvents(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req IngestEventsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AnalyticsService.IngestBatch(ctx.Request.Context(), user.UserID, req.Events)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 获取学习行为事件
// @Tags 分析
// @Produce json
// @Security BearerAuth
// @Param type query string false "事件类型"
// @Param limit query int false "数量" default(50)
// @Success 200 {object} util.Response
// @Router /api/analytics/events [get]
func (c *AnalyticsController) ListEvents(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	events, err := c.AnalyticsService.ListEvents(user.UserID, ctx.Query("type"), limit)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"events": events, "total": len(events)})
}

// @Summary 获取事件统计
// @Description 最近 days 天内按类型计数
// @Tags 分析
// @Produce json
// @Security BearerAuth
// @Param days query int false "天数" default(7)
// @Success 200 {object} util.Response{data=service.EventSummary}
// @Router /api/analytics/summary [get]
func (c *AnalyticsController) GetSummary(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	days, _ := strconv.Atoi(ctx.DefaultQuery("days", "7"))

	summary, err := c.AnalyticsService.Summary(user.UserID, days)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
