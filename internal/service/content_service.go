package service

import (
	"athos_explorer_backend/internal/curriculum"
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/repository"
	"athos_explorer_backend/internal/util"
	"athos_explorer_backend/pkg/logger"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxContentPageSize = 100

type ContentService struct {
	ContentRepo *repository.ContentRepository
	Analytics   *AnalyticsService
}

func NewContentService(contentRepo *repository.ContentRepository, analytics *AnalyticsService) *ContentService {
	return &ContentService{
		ContentRepo: contentRepo,
		Analytics:   analytics,
	}
}

func (s *ContentService) ListContent(filter repository.ContentFilter) ([]model.ContentItem, int64, error) {
	ve := &util.ValidationError{}
	if filter.ModuleID != "" && !curriculum.HasModule(filter.ModuleID) {
		ve.Add("moduleId", "unknown module")
	}
	if filter.SectionID != "" && filter.ModuleID == "" {
		ve.Add("sectionId", "requires moduleId")
	} else if filter.SectionID != "" && !curriculum.HasSection(filter.ModuleID, filter.SectionID) {
		ve.Add("sectionId", "unknown section")
	}
	if filter.LearningStyle != "" && !filter.LearningStyle.Valid() {
		ve.Add("learningStyle", "must be one of visual, textual, interactive, balanced")
	}
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		ve.Add("difficulty", "must be one of beginner, intermediate, advanced")
	}
	if filter.Limit < 0 || filter.Limit > maxContentPageSize {
		ve.Add("limit", fmt.Sprintf("must be between 0 and %d", maxContentPageSize))
	}
	if err := ve.Err(); err != nil {
		return nil, 0, err
	}

	items, total, err := s.ContentRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []model.ContentItem{}
	}
	return items, total, nil
}

// GetContent 只返回已发布内容，并累加浏览量
func (s *ContentService) GetContent(ctx context.Context, userID, id uint) (*model.ContentItem, error) {
	item, err := s.ContentRepo.FindPublishedByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("content %d: %w", id, util.ErrContentNotFound)
		}
		return nil, err
	}

	if err := s.ContentRepo.IncrementViews(id); err != nil {
		logger.Log.Warn("Failed to increment content views", zap.Uint("content_id", id), zap.Error(err))
	} else {
		item.Views++
	}

	s.Analytics.Track(ctx, model.ActivityEvent{
		UserID:    userID,
		Type:      model.EventContentView,
		ModuleID:  item.ModuleID,
		SectionID: item.SectionID,
		ContentID: item.ID,
	})
	return item, nil
}

func (s *ContentService) Curriculum() []curriculum.Module {
	return curriculum.Modules()
}

type CreateContentRequest struct {
	ModuleID       string            `json:"moduleId" binding:"required"`
	SectionID      string            `json:"sectionId" binding:"required"`
	Title          string            `json:"title" binding:"required,max=255"`
	Summary        string            `json:"summary"`
	Body           string            `json:"body"`
	Type           model.ContentType `json:"type" binding:"required,oneof=lesson article video interactive"`
	Order          int               `json:"order"`
	Difficulty     model.Difficulty  `json:"difficulty"`
	LearningStyles []string          `json:"learningStyles"`
	Published      bool              `json:"published"`
}

// CreateContent 编辑录入内容，(module, section) 必须在课程表内
func (s *ContentService) CreateContent(req CreateContentRequest) (*model.ContentItem, error) {
	ve := &util.ValidationError{}
	if !curriculum.HasSection(req.ModuleID, req.SectionID) {
		ve.Add("sectionId", "unknown module/section pair")
	}
	if req.Difficulty == "" {
		req.Difficulty = model.Beginner
	} else if !req.Difficulty.Valid() {
		ve.Add("difficulty", "must be one of beginner, intermediate, advanced")
	}
	for i, style := range req.LearningStyles {
		if !model.LearningStyle(style).Valid() {
			ve.Add(fmt.Sprintf("learningStyles[%d]", i), "unknown learning style")
		}
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	item := &model.ContentItem{
		ModuleID:       req.ModuleID,
		SectionID:      req.SectionID,
		Title:          req.Title,
		Summary:        req.Summary,
		Body:           req.Body,
		Type:           req.Type,
		Order:          req.Order,
		Difficulty:     req.Difficulty,
		LearningStyles: req.LearningStyles,
		Published:      req.Published,
	}
	if err := s.ContentRepo.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}
