package controller

import (
	"athos_explorer_backend/internal/service"
	"athos_explorer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	Service *service.ProgressService
}

func NewProgressController(svc *service.ProgressService) *ProgressController {
	return &ProgressController{Service: svc}
}

type SectionAccessRequest struct {
	ModuleID  string `json:"moduleId" binding:"required"`
	SectionID string `json:"sectionId" binding:"required"`
}

// @Summary 获取学习进度
// @Description 首次访问时创建空进度
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Progress}
// @Router /api/progress [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.Service.GetProgress(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary 更新内容学习进度
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ContentProgressInput true "内容进度"
// @Success 200 {object} util.Response{data=service.ProgressUpdateResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "版本冲突，可重试"
// @Router /api/progress/content [post]
func (c *ProgressController) UpdateContentProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.ContentProgressInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.UpdateContentProgress(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 记录章节访问
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SectionAccessRequest true "模块与章节"
// @Success 200 {object} util.Response{data=service.ProgressUpdateResult}
// @Router /api/progress/sections/access [post]
func (c *ProgressController) RecordSectionAccess(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SectionAccessRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.RecordSectionAccess(ctx.Request.Context(), user.UserID, req.ModuleID, req.SectionID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 获取模块进度
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param moduleId path string true "模块ID"
// @Success 200 {object} util.Response{data=service.ModuleProgressView}
// @Router /api/progress/modules/{moduleId} [get]
func (c *ProgressController) GetModuleProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.Service.GetModuleProgress(ctx.Request.Context(), user.UserID, ctx.Param("moduleId"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 获取下一步学习建议
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.NextSteps}
// @Router /api/progress/next-steps [get]
func (c *ProgressController) GetNextSteps(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	steps, err := c.Service.GetNextSteps(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, steps)
}

// @Summary 获取成就列表
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/progress/achievements [get]
func (c *ProgressController) GetAchievements(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	achievements, err := c.Service.GetAchievements(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"achievements": achievements, "total": len(achievements)})
}

// @Summary 重置学习进度
// @Description 同时重置学习路径
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Progress}
// @Router /api/progress [delete]
func (c *ProgressController) ResetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.Service.ResetProgress(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}
