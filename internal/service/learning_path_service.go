package service

import (
	"athos_explorer_backend/internal/curriculum"
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/repository"
	"athos_explorer_backend/internal/util"
	"athos_explorer_backend/pkg/logger"
	"athos_explorer_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LearningPathService struct {
	Repo         *repository.LearningPathRepository
	UserRepo     *repository.UserRepository
	ProgressRepo *repository.ProgressRepository
	Recommender  *RecommendationService
	Analytics    *AnalyticsService
	Settings     *LearningSettings
	// Redis 可为空，为空时不缓存
	Redis *redis.Client
	now   func() time.Time
}

func NewLearningPathService(
	repo *repository.LearningPathRepository,
	userRepo *repository.UserRepository,
	progressRepo *repository.ProgressRepository,
	recommender *RecommendationService,
	analytics *AnalyticsService,
	settings *LearningSettings,
	rdb *redis.Client,
) *LearningPathService {
	return &LearningPathService{
		Repo:         repo,
		UserRepo:     userRepo,
		ProgressRepo: progressRepo,
		Recommender:  recommender,
		Analytics:    analytics,
		Settings:     settings,
		Redis:        rdb,
		now:          time.Now,
	}
}

func learningPathCacheKey(userID uint) string {
	return fmt.Sprintf("athos:learning_path:%d", userID)
}

// GetLearningPath 优先读缓存；首次访问时生成默认路径
func (s *LearningPathService) GetLearningPath(ctx context.Context, userID uint) (*model.LearningPath, error) {
	if lp := s.readCache(ctx, userID); lp != nil {
		return lp, nil
	}
	lp, err := s.getOrCreate(userID)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, lp)
	return lp, nil
}

// getOrCreate 新路径指向课程第一个小节，偏好取自用户资料
func (s *LearningPathService) getOrCreate(userID uint) (*model.LearningPath, error) {
	lp, err := s.Repo.FindByUserID(userID)
	if err == nil {
		return lp, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.Repo.CreateIfMissing(s.DefaultPath(userID))
}

func (s *LearningPathService) userPreferences(userID uint) (model.LearningStyle, model.Difficulty) {
	style, difficulty := model.StyleBalanced, model.Beginner
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Warn("Load user preferences failed, using defaults",
				zap.Uint("user_id", userID),
				zap.Error(err))
		}
		return style, difficulty
	}
	if user.LearningStyle.Valid() {
		style = user.LearningStyle
	}
	if user.Difficulty.Valid() {
		difficulty = user.Difficulty
	}
	return style, difficulty
}

// Refresh moduleID 为空时沿用当前位置
func (s *LearningPathService) Refresh(ctx context.Context, userID uint, moduleID, sectionID string) (*model.LearningPath, error) {
	if moduleID != "" || sectionID != "" {
		if !curriculum.HasSection(moduleID, sectionID) {
			return nil, fmt.Errorf("%s/%s: %w", moduleID, sectionID, util.ErrUnknownSection)
		}
	}

	lp, err := s.getOrCreate(userID)
	if err != nil {
		return nil, err
	}
	if moduleID != "" {
		lp.CurrentModule, lp.CurrentSection = moduleID, sectionID
	}
	return s.regenerate(ctx, lp)
}

// RefreshAfterProgress 进度写入后的尽力刷新，失败只记日志
func (s *LearningPathService) RefreshAfterProgress(ctx context.Context, userID uint, moduleID, sectionID string) {
	if _, err := s.Refresh(ctx, userID, moduleID, sectionID); err != nil {
		monitoring.PathRefreshFailures.Inc()
		logger.Log.Warn("Learning path refresh failed",
			zap.Uint("user_id", userID),
			zap.String("module_id", moduleID),
			zap.String("section_id", sectionID),
			zap.Error(err))
	}
}

func (s *LearningPathService) regenerate(ctx context.Context, lp *model.LearningPath) (*model.LearningPath, error) {
	progress, err := s.ProgressRepo.GetOrCreate(lp.UserID)
	if err != nil {
		return nil, err
	}

	recs := s.Recommender.Generate(ctx, RecommendationInput{
		UserID:         lp.UserID,
		Progress:       progress,
		LearningStyle:  lp.LearningStyle,
		Difficulty:     lp.Difficulty,
		CurrentModule:  lp.CurrentModule,
		CurrentSection: lp.CurrentSection,
	})

	now := s.now()
	lp.RecommendedContent = datatypes.JSONSlice[uint](recs.RecommendedContent)
	lp.AdaptiveSuggestions = datatypes.JSONSlice[model.AdaptiveSuggestion](
		MergeSuggestions(lp.AdaptiveSuggestions, recs.AdaptiveSuggestions, progress))
	lp.LastUpdated = now

	if err := s.Repo.Save(lp); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, lp.UserID)
	return lp, nil
}

// MergeSuggestions 以 (contentId, reason) 合并，保留原有的 suggestedAt/clickedAt，按优先级降序
func MergeSuggestions(existing, fresh []model.AdaptiveSuggestion, progress *model.Progress) []model.AdaptiveSuggestion {
	type key struct {
		contentID uint
		reason    string
	}
	index := make(map[key]int, len(existing)+len(fresh))
	merged := make([]model.AdaptiveSuggestion, 0, len(existing)+len(fresh))
	for _, s := range existing {
		k := key{s.ContentID, s.Reason}
		if _, ok := index[k]; ok {
			continue
		}
		index[k] = len(merged)
		merged = append(merged, s)
	}
	for _, s := range fresh {
		k := key{s.ContentID, s.Reason}
		if i, ok := index[k]; ok {
			merged[i].Priority = s.Priority
			continue
		}
		index[k] = len(merged)
		merged = append(merged, s)
	}

	if progress != nil {
		for i := range merged {
			if cp := progress.Content(merged[i].ContentID); cp != nil && cp.Completed {
				merged[i].Completed = true
			}
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Priority > merged[j].Priority
	})
	return merged
}

func (s *LearningPathService) UpdatePreferences(ctx context.Context, userID uint, style model.LearningStyle, difficulty model.Difficulty) (*model.LearningPath, error) {
	ve := &util.ValidationError{}
	if !style.Valid() {
		ve.Add("learningStyle", "must be one of visual, textual, interactive, balanced")
	}
	if !difficulty.Valid() {
		ve.Add("difficulty", "must be one of beginner, intermediate, advanced")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	if err := s.UserRepo.UpdatePreferences(userID, style, difficulty); err != nil {
		return nil, err
	}

	lp, err := s.getOrCreate(userID)
	if err != nil {
		return nil, err
	}
	lp.LearningStyle = style
	lp.Difficulty = difficulty
	return s.regenerate(ctx, lp)
}

func (s *LearningPathService) MarkSuggestionClicked(ctx context.Context, userID, contentID uint) (*model.LearningPath, error) {
	lp, err := s.updateSuggestions(ctx, userID, contentID, func(sg *model.AdaptiveSuggestion, now time.Time) {
		if sg.ClickedAt == nil {
			sg.ClickedAt = &now
		}
	})
	if err != nil {
		return nil, err
	}
	s.Analytics.Track(ctx, model.ActivityEvent{
		UserID:    userID,
		Type:      model.EventSuggestionOpen,
		ContentID: contentID,
		ModuleID:  lp.CurrentModule,
		SectionID: lp.CurrentSection,
	})
	return lp, nil
}

func (s *LearningPathService) MarkSuggestionCompleted(ctx context.Context, userID, contentID uint) (*model.LearningPath, error) {
	return s.updateSuggestions(ctx, userID, contentID, func(sg *model.AdaptiveSuggestion, _ time.Time) {
		sg.Completed = true
	})
}

// updateSuggestions 同一内容可能因不同原因被推荐多次，全部更新
func (s *LearningPathService) updateSuggestions(ctx context.Context, userID, contentID uint, apply func(*model.AdaptiveSuggestion, time.Time)) (*model.LearningPath, error) {
	lp, err := s.getOrCreate(userID)
	if err != nil {
		return nil, err
	}
	if lp.Suggestion(contentID) == nil {
		return nil, util.ErrSuggestionNotFound
	}
	now := s.now()
	for i := range lp.AdaptiveSuggestions {
		if lp.AdaptiveSuggestions[i].ContentID == contentID {
			apply(&lp.AdaptiveSuggestions[i], now)
		}
	}
	if err := s.Repo.Save(lp); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, userID)
	return lp, nil
}

// PruneSuggestions 删除超过 days 天且未点击、未完成的建议；days <= 0 使用配置值
func (s *LearningPathService) PruneSuggestions(ctx context.Context, userID uint, days int) (int, *model.LearningPath, error) {
	if days <= 0 {
		days = s.Settings.Get().StaleSuggestionDays
	}
	lp, err := s.getOrCreate(userID)
	if err != nil {
		return 0, nil, err
	}

	kept, removed := PruneStale(lp.AdaptiveSuggestions, s.now().AddDate(0, 0, -days))
	if removed == 0 {
		return 0, lp, nil
	}
	lp.AdaptiveSuggestions = datatypes.JSONSlice[model.AdaptiveSuggestion](kept)
	if err := s.Repo.Save(lp); err != nil {
		return 0, nil, err
	}
	s.invalidateCache(ctx, userID)
	return removed, lp, nil
}

func PruneStale(suggestions []model.AdaptiveSuggestion, cutoff time.Time) ([]model.AdaptiveSuggestion, int) {
	kept := make([]model.AdaptiveSuggestion, 0, len(suggestions))
	for _, sg := range suggestions {
		if sg.ClickedAt != nil || sg.Completed || !sg.SuggestedAt.Before(cutoff) {
			kept = append(kept, sg)
		}
	}
	return kept, len(suggestions) - len(kept)
}

// DefaultPath 未持久化的默认路径
func (s *LearningPathService) DefaultPath(userID uint) *model.LearningPath {
	moduleID, sectionID := curriculum.FirstSection()
	style, difficulty := s.userPreferences(userID)
	return model.NewLearningPath(userID, moduleID, sectionID, style, difficulty)
}

// ResetTx 在调用方事务内删除并重建路径
func (s *LearningPathService) ResetTx(tx *gorm.DB, fresh *model.LearningPath) error {
	repo := s.Repo.WithTx(tx)
	if err := repo.HardDelete(fresh.UserID); err != nil {
		return err
	}
	_, err := repo.CreateIfMissing(fresh)
	return err
}

func (s *LearningPathService) readCache(ctx context.Context, userID uint) *model.LearningPath {
	if s.Redis == nil {
		return nil
	}
	data, err := s.Redis.Get(ctx, learningPathCacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Learning path cache read failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		return nil
	}
	var lp model.LearningPath
	if err := json.Unmarshal(data, &lp); err != nil {
		return nil
	}
	return &lp
}

func (s *LearningPathService) writeCache(ctx context.Context, lp *model.LearningPath) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(lp)
	if err != nil {
		return
	}
	ttl := s.Settings.Get().PathCacheTTL()
	if err := s.Redis.Set(ctx, learningPathCacheKey(lp.UserID), data, ttl).Err(); err != nil {
		logger.Log.Warn("Learning path cache write failed", zap.Uint("user_id", lp.UserID), zap.Error(err))
	}
}

func (s *LearningPathService) invalidateCache(ctx context.Context, userID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, learningPathCacheKey(userID)).Err(); err != nil {
		logger.Log.Warn("Learning path cache invalidation failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}
