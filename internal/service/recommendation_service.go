package service

import (
	"athos_explorer_backend/internal/curriculum"
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/pkg/logger"
	"athos_explorer_backend/pkg/monitoring"
	"athos_explorer_backend/pkg/tracing"
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	ReasonContinueSection = "Continue your current section."
	ReasonTakeQuiz        = "Take the quiz for this section."
	ReasonNextSection     = "Preview the next section."
	ReasonStyleMatch      = "Matches your %s learning style."
	ReasonPopular         = "Popular with other learners."
)

const (
	nextSectionLimit = 2
	styleMatchLimit  = 3
	popularLimit     = 2
)

type RecommendationInput struct {
	UserID         uint
	Progress       *model.Progress
	LearningStyle  model.LearningStyle
	Difficulty     model.Difficulty
	CurrentModule  string
	CurrentSection string
}

type Recommendations struct {
	RecommendedContent  []uint                     `json:"recommendedContent"`
	AdaptiveSuggestions []model.AdaptiveSuggestion `json:"adaptiveSuggestions"`
}

func emptyRecommendations() Recommendations {
	return Recommendations{
		RecommendedContent:  []uint{},
		AdaptiveSuggestions: []model.AdaptiveSuggestion{},
	}
}

type RecommendationService struct {
	Catalog  Catalog
	Settings *LearningSettings
	now      func() time.Time
}

func NewRecommendationService(catalog Catalog, settings *LearningSettings) *RecommendationService {
	return &RecommendationService{Catalog: catalog, Settings: settings, now: time.Now}
}

// Generate 查询失败时返回空结果并记录日志，不向上抛错
func (s *RecommendationService) Generate(ctx context.Context, in RecommendationInput) Recommendations {
	_, span := tracing.StartSpan(ctx, "recommendation.generate",
		attribute.Int64("user_id", int64(in.UserID)),
		attribute.String("module_id", in.CurrentModule),
		attribute.String("section_id", in.CurrentSection),
		attribute.String("learning_style", string(in.LearningStyle)))
	defer span.End()

	recs, err := s.generate(in)
	if err != nil {
		tracing.RecordError(span, err)
		monitoring.RecommendationFailures.Inc()
		logger.Log.Warn("Recommendation generation failed, returning empty result",
			zap.Uint("user_id", in.UserID),
			zap.String("module_id", in.CurrentModule),
			zap.String("section_id", in.CurrentSection),
			zap.Error(err))
		return emptyRecommendations()
	}
	span.SetAttributes(attribute.Int("recommended", len(recs.RecommendedContent)))
	return recs
}

func (s *RecommendationService) generate(in RecommendationInput) (Recommendations, error) {
	moduleID, sectionID := in.CurrentModule, in.CurrentSection
	if !curriculum.HasSection(moduleID, sectionID) {
		moduleID, sectionID = curriculum.FirstSection()
	}
	progress := in.Progress
	if progress == nil {
		progress = model.NewProgress(in.UserID)
	}

	now := s.now()
	var pool []uint
	var suggestions []model.AdaptiveSuggestion
	suggest := func(contentID uint, reason string, priority int) {
		suggestions = append(suggestions, model.AdaptiveSuggestion{
			ContentID:   contentID,
			Reason:      reason,
			Priority:    priority,
			SuggestedAt: now,
		})
	}

	// 1. 当前小节中尚未完成的内容
	sectionItems, err := s.Catalog.ListPublishedBySection(moduleID, sectionID, 0)
	if err != nil {
		return Recommendations{}, fmt.Errorf("current section content: %w", err)
	}
	var pending []uint
	for _, item := range sectionItems {
		if cp := progress.Content(item.ID); cp != nil && cp.Completed {
			continue
		}
		pending = append(pending, item.ID)
	}
	pool = append(pool, pending...)
	if len(pending) > 0 {
		suggest(pending[0], ReasonContinueSection, 5)
	}

	// 2. 当前小节尚未通过的测验
	quiz, err := s.Catalog.PublishedQuiz(moduleID, sectionID)
	if err != nil {
		return Recommendations{}, fmt.Errorf("current section quiz: %w", err)
	}
	if quiz != nil && len(sectionItems) > 0 {
		if qp := progress.Quiz(quiz.ID); qp == nil || !qp.Completed {
			pool = append(pool, sectionItems[0].ID)
			suggest(sectionItems[0].ID, ReasonTakeQuiz, 4)
		}
	}

	// 3. 下一小节预览
	if nextModule, nextSection, ok := curriculum.NextSection(moduleID, sectionID); ok {
		items, err := s.Catalog.ListPublishedBySection(nextModule, nextSection, nextSectionLimit)
		if err != nil {
			return Recommendations{}, fmt.Errorf("next section content: %w", err)
		}
		for _, item := range items {
			pool = append(pool, item.ID)
		}
		if len(items) > 0 {
			suggest(items[0].ID, ReasonNextSection, 3)
		}
	}

	// 4. 学习风格匹配，balanced 不参与
	if in.LearningStyle.Valid() && in.LearningStyle != model.StyleBalanced {
		items, err := s.Catalog.ListPublishedByStyle(in.LearningStyle, moduleID, styleMatchLimit)
		if err != nil {
			return Recommendations{}, fmt.Errorf("style match content: %w", err)
		}
		for _, item := range items {
			pool = append(pool, item.ID)
		}
		if len(items) > 0 {
			suggest(items[0].ID, fmt.Sprintf(ReasonStyleMatch, in.LearningStyle), 2)
		}
	}

	// 5. 热门内容兜底
	items, err := s.Catalog.ListPopular(dedupeIDs(pool), popularLimit)
	if err != nil {
		return Recommendations{}, fmt.Errorf("popular content: %w", err)
	}
	for _, item := range items {
		pool = append(pool, item.ID)
	}
	if len(items) > 0 {
		suggest(items[0].ID, ReasonPopular, 1)
	}

	recommended := dedupeIDs(pool)
	if limit := s.Settings.Get().MaxRecommendations; len(recommended) > limit {
		recommended = recommended[:limit]
	}
	if suggestions == nil {
		suggestions = []model.AdaptiveSuggestion{}
	}
	return Recommendations{RecommendedContent: recommended, AdaptiveSuggestions: suggestions}, nil
}

// dedupeIDs 保留首次出现的顺序
func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
