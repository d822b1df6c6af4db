package controller

import (
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/repository"
	"athos_explorer_backend/internal/service"
	"athos_explorer_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	ContentService *service.ContentService
}

func NewContentController(contentService *service.ContentService) *ContentController {
	return &ContentController{ContentService: contentService}
}

// ListContent godoc
// @Summary 内容列表
// @Description 只返回已发布内容，可按模块、章节、学习风格、难度、类型过滤
// @Tags content
// @Produce json
// @Security BearerAuth
// @Param moduleId query string false "模块ID"
// @Param sectionId query string false "章节ID"
// @Param learningStyle query string false "学习风格" Enums(visual, textual, interactive, balanced)
// @Param difficulty query string false "难度" Enums(beginner, intermediate, advanced)
// @Param type query string false "内容类型" Enums(lesson, article, video, interactive)
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Failure 400 {object} util.Response
// @Router /api/content [get]
func (c *ContentController) ListContent(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if err != nil {
		util.BadRequest(ctx, "Invalid limit")
		return
	}

	filter := repository.ContentFilter{
		ModuleID:      ctx.Query("moduleId"),
		SectionID:     ctx.Query("sectionId"),
		LearningStyle: model.LearningStyle(ctx.Query("learningStyle")),
		Difficulty:    model.Difficulty(ctx.Query("difficulty")),
		Type:          model.ContentType(ctx.Query("type")),
		Page:          page,
		Limit:         limit,
	}

	items, total, err := c.ContentService.ListContent(filter)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  items,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetContent godoc
// @Summary 内容详情
// @Description 记录一次浏览
// @Tags content
// @Produce json
// @Security BearerAuth
// @Param id path int true "内容ID"
// @Success 200 {object} util.Response{data=model.ContentItem}
// @Failure 404 {object} util.Response
// @Router /api/content/{id} [get]
func (c *ContentController) GetContent(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, ok := util.ParseID(ctx.Param("id"))
	if !ok {
		util.BadRequest(ctx, "Invalid content ID")
		return
	}

	item, err := c.ContentService.GetContent(ctx.Request.Context(), user.UserID, id)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, item)
}

// GetCurriculum godoc
// @Summary 课程结构
// @Tags content
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/curriculum [get]
func (c *ContentController) GetCurriculum(ctx *gin.Context) {
	util.Success(ctx, gin.H{"modules": c.ContentService.Curriculum()})
}

// CreateContent godoc
// @Summary 录入内容 (Editor/Admin)
// @Tags content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateContentRequest true "内容"
// @Success 201 {object} util.Response{data=model.ContentItem}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/admin/content [post]
func (c *ContentController) CreateContent(ctx *gin.Context) {
	var req service.CreateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	item, err := c.ContentService.CreateContent(req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, item)
}
