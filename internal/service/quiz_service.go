package service

import (
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/repository"
	"athos_explorer_backend/internal/util"
	"athos_explorer_backend/pkg/monitoring"
	"athos_explorer_backend/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type QuizSubmitResult struct {
	QuizID            uint                `json:"quizId"`
	ModuleID          string              `json:"moduleId"`
	SectionID         string              `json:"sectionId"`
	Evaluation        QuizEvaluation      `json:"evaluation"`
	Passed            bool                `json:"passed"`
	BestScore         int                 `json:"bestScore"`
	Attempts          int                 `json:"attempts"`
	SectionCompletion int                 `json:"sectionCompletion"`
	ModuleCompletion  int                 `json:"moduleCompletion"`
	OverallCompletion int                 `json:"overallCompletion"`
	NewAchievements   []model.Achievement `json:"newAchievements"`
}

type QuizService struct {
	QuizRepo  *repository.QuizRepository
	Writer    *ProgressWriter
	Settings  *LearningSettings
	Paths     *LearningPathService
	Analytics *AnalyticsService

	// beforeRecalculate 仅测试使用：在测验进度写入后、完成度重算前注入失败
	beforeRecalculate func() error
}

func NewQuizService(
	quizRepo *repository.QuizRepository,
	writer *ProgressWriter,
	settings *LearningSettings,
	paths *LearningPathService,
	analytics *AnalyticsService,
) *QuizService {
	return &QuizService{
		QuizRepo:  quizRepo,
		Writer:    writer,
		Settings:  settings,
		Paths:     paths,
		Analytics: analytics,
	}
}

// GetQuiz 返回已发布测验，正确答案不序列化
func (s *QuizService) GetQuiz(ctx context.Context, quizID uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindPublishedWithQuestions(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz %d: %w", quizID, util.ErrQuizNotFound)
		}
		return nil, err
	}
	return quiz, nil
}

// Submit 测验进度更新与完成度重算在同一事务内，要么都成功要么都不生效
func (s *QuizService) Submit(ctx context.Context, userID, quizID uint, answers map[uint]AnswerValue) (*QuizSubmitResult, error) {
	ctx, span := tracing.StartSpan(ctx, "quiz.submit",
		attribute.Int64("user_id", int64(userID)),
		attribute.Int64("quiz_id", int64(quizID)))
	defer span.End()

	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	if err := validateAnswers(quiz, answers); err != nil {
		return nil, err
	}

	eval := EvaluateQuiz(quiz, answers)
	passed := eval.PercentageScore >= s.Settings.Get().PassingScore

	var earned []model.Achievement
	progress, err := s.Writer.Mutate(ctx, userID, func(tx *gorm.DB, p *model.Progress, catalog *RepositoryCatalog, now time.Time) error {
		applyQuizAttempt(p, quiz, eval.PercentageScore, passed, now)
		p.TouchSection(quiz.ModuleID, quiz.SectionID, now)

		if s.beforeRecalculate != nil {
			if err := s.beforeRecalculate(); err != nil {
				return err
			}
		}

		cat, err := catalog.SectionCatalog(quiz.ModuleID, quiz.SectionID)
		if err != nil {
			return err
		}
		RecalculateSection(p, quiz.ModuleID, quiz.SectionID, cat)
		earned = AwardAchievements(p, now)
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	monitoring.ProgressWrites.WithLabelValues("quiz").Inc()
	monitoring.QuizSubmissions.WithLabelValues(strconv.FormatBool(passed)).Inc()

	s.Paths.RefreshAfterProgress(ctx, userID, quiz.ModuleID, quiz.SectionID)
	score := eval.PercentageScore
	s.Analytics.Track(ctx, model.ActivityEvent{
		UserID:    userID,
		Type:      model.EventQuizSubmit,
		ModuleID:  quiz.ModuleID,
		SectionID: quiz.SectionID,
		QuizID:    quiz.ID,
		Score:     &score,
		Payload: map[string]interface{}{
			"earnedPoints": eval.EarnedPoints,
			"totalPoints":  eval.TotalPoints,
			"passed":       passed,
		},
	})

	qp := progress.Quiz(quiz.ID)
	result := &QuizSubmitResult{
		QuizID:            quiz.ID,
		ModuleID:          quiz.ModuleID,
		SectionID:         quiz.SectionID,
		Evaluation:        eval,
		Passed:            passed,
		BestScore:         qp.Score,
		Attempts:          qp.Attempts,
		OverallCompletion: progress.OverallCompletion,
		NewAchievements:   earned,
	}
	if result.NewAchievements == nil {
		result.NewAchievements = []model.Achievement{}
	}
	if sec := progress.Section(quiz.ModuleID, quiz.SectionID); sec != nil {
		result.SectionCompletion = sec.Completion
	}
	if m := progress.Module(quiz.ModuleID); m != nil {
		result.ModuleCompletion = m.Completion
	}
	return result, nil
}

// applyQuizAttempt 只保留最高分；一旦通过不会因后续低分回退
func applyQuizAttempt(p *model.Progress, quiz *model.Quiz, score int, passed bool, now time.Time) {
	qp := p.Quiz(quiz.ID)
	if qp == nil {
		p.QuizProgress = append(p.QuizProgress, model.QuizProgress{
			QuizID:    quiz.ID,
			ModuleID:  quiz.ModuleID,
			SectionID: quiz.SectionID,
		})
		qp = &p.QuizProgress[len(p.QuizProgress)-1]
	}
	qp.Attempts++
	qp.LastAttempt = now
	if score > qp.Score {
		qp.Score = score
	}
	if passed {
		qp.Completed = true
	}
}

func validateAnswers(quiz *model.Quiz, answers map[uint]AnswerValue) error {
	known := make(map[uint]bool, len(quiz.Questions))
	for _, q := range quiz.Questions {
		known[q.ID] = true
	}
	var unknown []uint
	for id := range answers {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })

	ve := &util.ValidationError{}
	for _, id := range unknown {
		ve.Add(fmt.Sprintf("answers.%d", id), "question does not belong to this quiz")
	}
	return ve.Err()
}
