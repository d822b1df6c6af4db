package controller

import (
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/service"
	"athos_explorer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LearningPathController struct {
	Service *service.LearningPathService
}

func NewLearningPathController(svc *service.LearningPathService) *LearningPathController {
	return &LearningPathController{Service: svc}
}

type RefreshPathRequest struct {
	ModuleID  string `json:"moduleId"`
	SectionID string `json:"sectionId"`
}

type UpdatePreferencesRequest struct {
	LearningStyle model.LearningStyle `json:"learningStyle" binding:"required"`
	Difficulty    model.Difficulty    `json:"difficulty" binding:"required"`
}

type PruneSuggestionsRequest struct {
	Days int `json:"days"`
}

// @Summary 获取学习路径
// @Tags 学习路径
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.LearningPath}
// @Router /api/learning-path [get]
func (c *LearningPathController) GetLearningPath(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	lp, err := c.Service.GetLearningPath(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, lp)
}

// @Summary 重新生成推荐
// @Description 可选地移动当前位置；body 为空时沿用当前章节
// @Tags 学习路径
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RefreshPathRequest false "目标章节"
// @Success 200 {object} util.Response{data=model.LearningPath}
// @Failure 404 {object} util.Response
// @Router /api/learning-path/refresh [post]
func (c *LearningPathController) Refresh(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req RefreshPathRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	lp, err := c.Service.Refresh(ctx.Request.Context(), user.UserID, req.ModuleID, req.SectionID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, lp)
}

// @Summary 更新学习偏好
// @Tags 学习路径
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdatePreferencesRequest true "学习风格与难度"
// @Success 200 {object} util.Response{data=model.LearningPath}
// @Failure 400 {object} util.Response
// @Router /api/learning-path/preferences [put]
func (c *LearningPathController) UpdatePreferences(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdatePreferencesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lp, err := c.Service.UpdatePreferences(ctx.Request.Context(), user.UserID, req.LearningStyle, req.Difficulty)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, lp)
}

// @Summary 标记建议已点击
// @Tags 学习路径
// @Produce json
// @Security BearerAuth
// @Param contentId path int true "内容ID"
// @Success 200 {object} util.Response{data=model.LearningPath}
// @Failure 404 {object} util.Response
// @Router /api/learning-path/suggestions/{contentId}/click [post]
func (c *LearningPathController) ClickSuggestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	contentID, ok := util.ParseID(ctx.Param("contentId"))
	if !ok {
		util.BadRequest(ctx, "Invalid content ID")
		return
	}

	lp, err := c.Service.MarkSuggestionClicked(ctx.Request.Context(), user.UserID, contentID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, lp)
}

// @Summary 标记建议已完成
// @Tags 学习路径
// @Produce json
// @Security BearerAuth
// @Param contentId path int true "内容ID"
// @Success 200 {object} util.Response{data=model.LearningPath}
// @Failure 404 {object} util.Response
// @Router /api/learning-path/suggestions/{contentId}/complete [post]
func (c *LearningPathController) CompleteSuggestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	contentID, ok := util.ParseID(ctx.Param("contentId"))
	if !ok {
		util.BadRequest(ctx, "Invalid content ID")
		return
	}

	lp, err := c.Service.MarkSuggestionCompleted(ctx.Request.Context(), user.UserID, contentID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, lp)
}

// @Summary 清理过期建议
// @Description days 缺省时使用配置 learning.stale_suggestion_days
// @Tags 学习路径
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PruneSuggestionsRequest false "天数"
// @Success 200 {object} util.Response
// @Router /api/learning-path/suggestions/prune [post]
func (c *LearningPathController) PruneSuggestions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req PruneSuggestionsRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	removed, lp, err := c.Service.PruneSuggestions(ctx.Request.Context(), user.UserID, req.Days)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"removed": removed, "learningPath": lp})
}
