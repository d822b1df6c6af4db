package service

import (
	"athos_explorer_backend/internal/config"
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/repository"
	"athos_explorer_backend/internal/testutil"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	db           *gorm.DB
	settings     *LearningSettings
	progressRepo *repository.ProgressRepository
	contentRepo  *repository.ContentRepository
	quizRepo     *repository.QuizRepository
	pathRepo     *repository.LearningPathRepository
	userRepo     *repository.UserRepository
	activityRepo *repository.ActivityRepository
	catalog      *RepositoryCatalog
	writer       *ProgressWriter
	recommender  *RecommendationService
	analytics    *AnalyticsService
	paths        *LearningPathService
	progress     *ProgressService
	quizzes      *QuizService
	content      *ContentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)

	e := &testEnv{db: db, settings: NewLearningSettings(config.DefaultLearningConfig())}
	e.progressRepo = repository.NewProgressRepository(db)
	e.contentRepo = repository.NewContentRepository(db)
	e.quizRepo = repository.NewQuizRepository(db)
	e.pathRepo = repository.NewLearningPathRepository(db)
	e.userRepo = repository.NewUserRepository(db)
	e.activityRepo = repository.NewActivityRepository(db)

	e.catalog = NewRepositoryCatalog(e.contentRepo, e.quizRepo)
	e.writer = NewProgressWriter(db, e.progressRepo, e.catalog, e.settings)
	e.recommender = NewRecommendationService(e.catalog, e.settings)
	e.analytics = NewAnalyticsService(e.activityRepo, nil, false)
	e.paths = NewLearningPathService(e.pathRepo, e.userRepo, e.progressRepo, e.recommender, e.analytics, e.settings, nil)
	e.progress = NewProgressService(e.writer, e.progressRepo, e.contentRepo, e.catalog, e.paths, e.analytics)
	e.quizzes = NewQuizService(e.quizRepo, e.writer, e.settings, e.paths, e.analytics)
	e.content = NewContentService(e.contentRepo, e.analytics)

	e.writer.now = func() time.Time { return fixedNow }
	e.recommender.now = func() time.Time { return fixedNow }
	e.paths.now = func() time.Time { return fixedNow }
	return e
}

func (e *testEnv) addUser(t *testing.T, style model.LearningStyle) *model.User {
	t.Helper()
	u := &model.User{
		Name:          "pilgrim",
		Email:         fmt.Sprintf("pilgrim-%d@athos.test", time.Now().UnixNano()),
		Role:          model.Learner,
		LearningStyle: style,
		Difficulty:    model.Beginner,
	}
	require.NoError(t, e.userRepo.Create(u))
	return u
}

func (e *testEnv) addContent(t *testing.T, moduleID, sectionID string, order int, styles ...string) model.ContentItem {
	t.Helper()
	item := model.ContentItem{
		ModuleID:       moduleID,
		SectionID:      sectionID,
		Title:          fmt.Sprintf("%s/%s #%d", moduleID, sectionID, order),
		Type:           model.ContentLesson,
		Order:          order,
		Difficulty:     model.Beginner,
		Published:      true,
		LearningStyles: styles,
	}
	require.NoError(t, e.contentRepo.Create(&item))
	return item
}

// addQuiz 每题的正确答案都是 "a"
func (e *testEnv) addQuiz(t *testing.T, moduleID, sectionID string, points ...int) *model.Quiz {
	t.Helper()
	quiz := &model.Quiz{
		ModuleID:  moduleID,
		SectionID: sectionID,
		Title:     "Quiz " + sectionID,
		Published: true,
	}
	for i, p := range points {
		quiz.Questions = append(quiz.Questions, model.QuizQuestion{
			Order:          i,
			Type:           model.SingleChoice,
			Prompt:         fmt.Sprintf("question %d", i+1),
			Options:        []string{"a", "b", "c"},
			Points:         p,
			CorrectAnswers: []string{"a"},
		})
	}
	require.NoError(t, e.quizRepo.Create(quiz))
	return quiz
}

func answersFor(quiz *model.Quiz, correct func(i int) bool) map[uint]AnswerValue {
	answers := make(map[uint]AnswerValue, len(quiz.Questions))
	for i, q := range quiz.Questions {
		if correct(i) {
			answers[q.ID] = AnswerValue{Values: []string{"a"}}
		} else {
			answers[q.ID] = AnswerValue{Values: []string{"b"}}
		}
	}
	return answers
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
