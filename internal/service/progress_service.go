package service

import (
	"athos_explorer_backend/internal/curriculum"
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/repository"
	"athos_explorer_backend/internal/util"
	"athos_explorer_backend/pkg/monitoring"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const nextStepsContentLimit = 5

type ContentProgressInput struct {
	ContentID uint  `json:"contentId"`
	Progress  *int  `json:"progress"`
	TimeSpent int   `json:"timeSpent"`
	Completed *bool `json:"completed"`
}

// Validate 在任何写入之前执行
func (in ContentProgressInput) Validate() error {
	ve := &util.ValidationError{}
	if in.ContentID == 0 {
		ve.Add("contentId", "is required")
	}
	if in.Progress == nil {
		ve.Add("progress", "is required")
	} else if *in.Progress < 0 || *in.Progress > 100 {
		ve.Add("progress", "must be between 0 and 100")
	}
	if in.TimeSpent < 0 {
		ve.Add("timeSpent", "must not be negative")
	}
	return ve.Err()
}

type ProgressUpdateResult struct {
	Progress          *model.Progress     `json:"progress"`
	ModuleID          string              `json:"moduleId"`
	SectionID         string              `json:"sectionId"`
	SectionCompletion int                 `json:"sectionCompletion"`
	ModuleCompletion  int                 `json:"moduleCompletion"`
	NewAchievements   []model.Achievement `json:"newAchievements"`
}

type SectionView struct {
	SectionID    string     `json:"sectionId"`
	Title        string     `json:"title"`
	Completion   int        `json:"completion"`
	LastAccessed *time.Time `json:"lastAccessed,omitempty"`
}

type ModuleProgressView struct {
	ModuleID     string        `json:"moduleId"`
	Title        string        `json:"title"`
	Completion   int           `json:"completion"`
	LastAccessed *time.Time    `json:"lastAccessed,omitempty"`
	Sections     []SectionView `json:"sections"`
}

type SectionRef struct {
	ModuleID  string `json:"moduleId"`
	SectionID string `json:"sectionId"`
	Title     string `json:"title"`
}

type QuizRef struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Score int    `json:"score"`
}

type NextSteps struct {
	CurrentModule     string              `json:"currentModule"`
	CurrentSection    string              `json:"currentSection"`
	SectionCompletion int                 `json:"sectionCompletion"`
	IncompleteContent []model.ContentItem `json:"incompleteContent"`
	PendingQuiz       *QuizRef            `json:"pendingQuiz,omitempty"`
	NextSection       *SectionRef         `json:"nextSection,omitempty"`
}

type ProgressService struct {
	Writer       *ProgressWriter
	ProgressRepo *repository.ProgressRepository
	ContentRepo  *repository.ContentRepository
	Catalog      Catalog
	Paths        *LearningPathService
	Analytics    *AnalyticsService
}

func NewProgressService(
	writer *ProgressWriter,
	progressRepo *repository.ProgressRepository,
	contentRepo *repository.ContentRepository,
	catalog Catalog,
	paths *LearningPathService,
	analytics *AnalyticsService,
) *ProgressService {
	return &ProgressService{
		Writer:       writer,
		ProgressRepo: progressRepo,
		ContentRepo:  contentRepo,
		Catalog:      catalog,
		Paths:        paths,
		Analytics:    analytics,
	}
}

func (s *ProgressService) GetProgress(ctx context.Context, userID uint) (*model.Progress, error) {
	return s.ProgressRepo.GetOrCreate(userID)
}

func (s *ProgressService) UpdateContentProgress(ctx context.Context, userID uint, in ContentProgressInput) (*ProgressUpdateResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	item, err := s.ContentRepo.FindPublishedByID(in.ContentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("content %d: %w", in.ContentID, util.ErrContentNotFound)
		}
		return nil, err
	}

	var earned []model.Achievement
	progress, err := s.Writer.Mutate(ctx, userID, func(tx *gorm.DB, p *model.Progress, catalog *RepositoryCatalog, now time.Time) error {
		applyContentProgress(p, item, in, now)
		p.TouchSection(item.ModuleID, item.SectionID, now)

		cat, err := catalog.SectionCatalog(item.ModuleID, item.SectionID)
		if err != nil {
			return err
		}
		RecalculateSection(p, item.ModuleID, item.SectionID, cat)
		earned = AwardAchievements(p, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	monitoring.ProgressWrites.WithLabelValues("content").Inc()

	cp := progress.Content(item.ID)
	s.Paths.RefreshAfterProgress(ctx, userID, item.ModuleID, item.SectionID)
	s.Analytics.Track(ctx, model.ActivityEvent{
		UserID:    userID,
		Type:      model.EventProgressUpdate,
		ModuleID:  item.ModuleID,
		SectionID: item.SectionID,
		ContentID: item.ID,
		Payload: map[string]interface{}{
			"progress":  cp.Progress,
			"completed": cp.Completed,
			"timeSpent": in.TimeSpent,
		},
	})

	return buildUpdateResult(progress, item.ModuleID, item.SectionID, earned), nil
}

// applyContentProgress 进度只增不减，时长累加，达到 100 或显式标记即视为完成
func applyContentProgress(p *model.Progress, item *model.ContentItem, in ContentProgressInput, now time.Time) {
	cp := p.Content(item.ID)
	if cp == nil {
		p.ContentProgress = append(p.ContentProgress, model.ContentProgress{
			ContentID: item.ID,
			ModuleID:  item.ModuleID,
			SectionID: item.SectionID,
		})
		cp = &p.ContentProgress[len(p.ContentProgress)-1]
	}
	if *in.Progress > cp.Progress {
		cp.Progress = *in.Progress
	}
	if cp.Progress >= 100 || (in.Completed != nil && *in.Completed) {
		cp.Completed = true
		cp.Progress = 100
	}
	cp.TimeSpent += in.TimeSpent
	cp.LastAccessed = now
}

func (s *ProgressService) RecordSectionAccess(ctx context.Context, userID uint, moduleID, sectionID string) (*ProgressUpdateResult, error) {
	if err := validateSectionRef(moduleID, sectionID); err != nil {
		return nil, err
	}

	var earned []model.Achievement
	progress, err := s.Writer.Mutate(ctx, userID, func(tx *gorm.DB, p *model.Progress, catalog *RepositoryCatalog, now time.Time) error {
		p.TouchSection(moduleID, sectionID, now)
		cat, err := catalog.SectionCatalog(moduleID, sectionID)
		if err != nil {
			return err
		}
		RecalculateSection(p, moduleID, sectionID, cat)
		earned = AwardAchievements(p, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	monitoring.ProgressWrites.WithLabelValues("section").Inc()

	s.Paths.RefreshAfterProgress(ctx, userID, moduleID, sectionID)
	s.Analytics.Track(ctx, model.ActivityEvent{
		UserID:    userID,
		Type:      model.EventSectionAccess,
		ModuleID:  moduleID,
		SectionID: sectionID,
	})

	return buildUpdateResult(progress, moduleID, sectionID, earned), nil
}

func validateSectionRef(moduleID, sectionID string) error {
	ve := &util.ValidationError{}
	if moduleID == "" {
		ve.Add("moduleId", "is required")
	}
	if sectionID == "" {
		ve.Add("sectionId", "is required")
	}
	if err := ve.Err(); err != nil {
		return err
	}
	if !curriculum.HasModule(moduleID) {
		return fmt.Errorf("%s: %w", moduleID, util.ErrUnknownModule)
	}
	if !curriculum.HasSection(moduleID, sectionID) {
		return fmt.Errorf("%s/%s: %w", moduleID, sectionID, util.ErrUnknownSection)
	}
	return nil
}

func buildUpdateResult(p *model.Progress, moduleID, sectionID string, earned []model.Achievement) *ProgressUpdateResult {
	res := &ProgressUpdateResult{
		Progress:        p,
		ModuleID:        moduleID,
		SectionID:       sectionID,
		NewAchievements: earned,
	}
	if res.NewAchievements == nil {
		res.NewAchievements = []model.Achievement{}
	}
	if sec := p.Section(moduleID, sectionID); sec != nil {
		res.SectionCompletion = sec.Completion
	}
	if m := p.Module(moduleID); m != nil {
		res.ModuleCompletion = m.Completion
	}
	return res
}

// GetModuleProgress 按课程表列出全部小节，未访问的小节完成度为 0
func (s *ProgressService) GetModuleProgress(ctx context.Context, userID uint, moduleID string) (*ModuleProgressView, error) {
	var mod *curriculum.Module
	for _, m := range curriculum.Modules() {
		if m.ID == moduleID {
			m := m
			mod = &m
			break
		}
	}
	if mod == nil {
		return nil, fmt.Errorf("%s: %w", moduleID, util.ErrUnknownModule)
	}

	p, err := s.ProgressRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	view := &ModuleProgressView{ModuleID: mod.ID, Title: mod.Title, Sections: make([]SectionView, 0, len(mod.Sections))}
	if mp := p.Module(moduleID); mp != nil {
		view.Completion = mp.Completion
		if !mp.LastAccessed.IsZero() {
			t := mp.LastAccessed
			view.LastAccessed = &t
		}
	}
	for _, sec := range mod.Sections {
		sv := SectionView{SectionID: sec.ID, Title: sec.Title}
		if sp := p.Section(moduleID, sec.ID); sp != nil {
			sv.Completion = sp.Completion
			if !sp.LastAccessed.IsZero() {
				t := sp.LastAccessed
				sv.LastAccessed = &t
			}
		}
		view.Sections = append(view.Sections, sv)
	}
	return view, nil
}

func (s *ProgressService) GetAchievements(ctx context.Context, userID uint) ([]model.Achievement, error) {
	p, err := s.ProgressRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	return []model.Achievement(p.Achievements), nil
}

// GetNextSteps 与推荐共用同一张课程表计算下一小节
func (s *ProgressService) GetNextSteps(ctx context.Context, userID uint) (*NextSteps, error) {
	lp, err := s.Paths.getOrCreate(userID)
	if err != nil {
		return nil, err
	}
	p, err := s.ProgressRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	moduleID, sectionID := lp.CurrentModule, lp.CurrentSection
	if !curriculum.HasSection(moduleID, sectionID) {
		moduleID, sectionID = curriculum.FirstSection()
	}

	steps := &NextSteps{
		CurrentModule:     moduleID,
		CurrentSection:    sectionID,
		IncompleteContent: []model.ContentItem{},
	}
	if sec := p.Section(moduleID, sectionID); sec != nil {
		steps.SectionCompletion = sec.Completion
	}

	items, err := s.Catalog.ListPublishedBySection(moduleID, sectionID, 0)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if cp := p.Content(item.ID); cp != nil && cp.Completed {
			continue
		}
		steps.IncompleteContent = append(steps.IncompleteContent, item)
		if len(steps.IncompleteContent) == nextStepsContentLimit {
			break
		}
	}

	quiz, err := s.Catalog.PublishedQuiz(moduleID, sectionID)
	if err != nil {
		return nil, err
	}
	if quiz != nil {
		qp := p.Quiz(quiz.ID)
		if qp == nil || !qp.Completed {
			ref := &QuizRef{ID: quiz.ID, Title: quiz.Title}
			if qp != nil {
				ref.Score = qp.Score
			}
			steps.PendingQuiz = ref
		}
	}

	if nm, ns, ok := curriculum.NextSection(moduleID, sectionID); ok {
		steps.NextSection = &SectionRef{ModuleID: nm, SectionID: ns, Title: sectionTitle(nm, ns)}
	}
	return steps, nil
}

func sectionTitle(moduleID, sectionID string) string {
	for _, m := range curriculum.Modules() {
		if m.ID != moduleID {
			continue
		}
		for _, sec := range m.Sections {
			if sec.ID == sectionID {
				return sec.Title
			}
		}
	}
	return ""
}

// ResetProgress 在同一事务内删除并重建进度与学习路径
func (s *ProgressService) ResetProgress(ctx context.Context, userID uint) (*model.Progress, error) {
	freshPath := s.Paths.DefaultPath(userID)
	fresh := model.NewProgress(userID)

	err := s.Writer.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.ProgressRepo.WithTx(tx)
		if err := repo.HardDelete(userID); err != nil {
			return err
		}
		if err := repo.Create(fresh); err != nil {
			return err
		}
		return s.Paths.ResetTx(tx, freshPath)
	})
	if err != nil {
		return nil, err
	}
	monitoring.ProgressWrites.WithLabelValues("reset").Inc()

	s.Paths.invalidateCache(ctx, userID)
	s.Analytics.Track(ctx, model.ActivityEvent{
		UserID: userID,
		Type:   model.EventProgressReset,
	})
	return fresh, nil
}
