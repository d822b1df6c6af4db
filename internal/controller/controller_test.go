package controller

import (
	"athos_explorer_backend/internal/config"
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/internal/repository"
	"athos_explorer_backend/internal/service"
	"athos_explorer_backend/internal/testutil"
	"athos_explorer_backend/internal/util"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Retryable bool            `json:"retryable"`
}

type harness struct {
	router  *gin.Engine
	content *repository.ContentRepository
	quizzes *repository.QuizRepository
}

// newHarness 以固定用户 ID 42 身份访问，不经过 JWT 校验
func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)

	settings := service.NewLearningSettings(config.DefaultLearningConfig())
	contentRepo := repository.NewContentRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	catalog := service.NewRepositoryCatalog(contentRepo, quizRepo)
	writer := service.NewProgressWriter(db, progressRepo, catalog, settings)
	analytics := service.NewAnalyticsService(repository.NewActivityRepository(db), nil, false)
	paths := service.NewLearningPathService(
		repository.NewLearningPathRepository(db),
		repository.NewUserRepository(db),
		progressRepo,
		service.NewRecommendationService(catalog, settings),
		analytics,
		settings,
		nil,
	)

	progress := NewProgressController(service.NewProgressService(writer, progressRepo, contentRepo, catalog, paths, analytics))
	quiz := NewQuizController(service.NewQuizService(quizRepo, writer, settings, paths, analytics))
	content := NewContentController(service.NewContentService(contentRepo, analytics))
	learningPath := NewLearningPathController(paths)
	events := NewAnalyticsController(analytics)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/curriculum", content.GetCurriculum)
	api.Use(func(c *gin.Context) {
		c.Set(util.ContextUserKey, &util.Claims{UserID: 42, Role: model.Learner})
		c.Next()
	})
	api.GET("/progress", progress.GetProgress)
	api.POST("/progress/content", progress.UpdateContentProgress)
	api.POST("/progress/sections/access", progress.RecordSectionAccess)
	api.GET("/progress/modules/:moduleId", progress.GetModuleProgress)
	api.GET("/content", content.ListContent)
	api.GET("/content/:id", content.GetContent)
	api.GET("/quizzes/:id", quiz.GetQuiz)
	api.POST("/quizzes/:id/submit", quiz.SubmitQuiz)
	api.GET("/learning-path", learningPath.GetLearningPath)
	api.POST("/learning-path/refresh", learningPath.Refresh)
	api.POST("/analytics/events", events.IngestEvents)

	return &harness{router: r, content: contentRepo, quizzes: quizRepo}
}

func (h *harness) do(t *testing.T, method, path, body string) (int, apiResponse) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (h *harness) addContent(t *testing.T, moduleID, sectionID string) uint {
	t.Helper()
	item := &model.ContentItem{
		ModuleID:  moduleID,
		SectionID: sectionID,
		Title:     "Katholikon of " + sectionID,
		Type:      model.ContentLesson,
		Published: true,
	}
	require.NoError(t, h.content.Create(item))
	return item.ID
}

func TestUpdateContentProgressValidation(t *testing.T) {
	h := newHarness(t)

	code, resp := h.do(t, http.MethodPost, "/api/progress/content", `{"contentId":0,"progress":150,"timeSpent":-1}`)
	assert.Equal(t, http.StatusBadRequest, code)

	var ve util.ValidationError
	require.NoError(t, json.Unmarshal(resp.Data, &ve))
	fields := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"contentId", "progress", "timeSpent"}, fields)

	code, _ = h.do(t, http.MethodPost, "/api/progress/content", `{"contentId":`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodPost, "/api/progress/content", `{"contentId":999,"progress":10}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUpdateContentProgressCompletesSection(t *testing.T) {
	h := newHarness(t)
	id := h.addContent(t, "spirituality", "hesychasm")

	code, resp := h.do(t, http.MethodPost, "/api/progress/content",
		`{"contentId":`+jsonUint(id)+`,"progress":100,"timeSpent":120}`)
	require.Equal(t, http.StatusOK, code)

	var result service.ProgressUpdateResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, 100, result.SectionCompletion)
	assert.Equal(t, "spirituality", result.ModuleID)
	assert.NotEmpty(t, result.NewAchievements)

	code, resp = h.do(t, http.MethodGet, "/api/progress/modules/spirituality", "")
	require.Equal(t, http.StatusOK, code)
	var view service.ModuleProgressView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Len(t, view.Sections, 3)
	assert.Equal(t, 100, view.Sections[0].Completion)
}

func TestSectionAccessRejectsUnknownPair(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, http.MethodPost, "/api/progress/sections/access", `{"moduleId":"history","sectionId":"hesychasm"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = h.do(t, http.MethodPost, "/api/progress/sections/access", `{"moduleId":"history"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodGet, "/api/progress/modules/atlantis", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestQuizEndpoints(t *testing.T) {
	h := newHarness(t)
	quiz := &model.Quiz{
		ModuleID:  "art",
		SectionID: "iconography",
		Title:     "Icons",
		Published: true,
		Questions: []model.QuizQuestion{
			{Type: model.TrueFalse, Prompt: "Icons are written, not painted.", Points: 1, CorrectAnswers: []string{"true"}},
		},
	}
	require.NoError(t, h.quizzes.Create(quiz))
	qid := jsonUint(quiz.Questions[0].ID)

	code, resp := h.do(t, http.MethodGet, "/api/quizzes/"+jsonUint(quiz.ID), "")
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(resp.Data), "correctAnswers")

	code, resp = h.do(t, http.MethodPost, "/api/quizzes/"+jsonUint(quiz.ID)+"/submit", `{"answers":{"`+qid+`":"TRUE"}}`)
	require.Equal(t, http.StatusOK, code)
	var result service.QuizSubmitResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, 100, result.Evaluation.PercentageScore)
	assert.True(t, result.Passed)
	// 没有内容的小节，测验只贡献一半
	assert.Equal(t, 50, result.SectionCompletion)

	code, _ = h.do(t, http.MethodGet, "/api/quizzes/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodPost, "/api/quizzes/777/submit", `{"answers":{}}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestContentAndCurriculum(t *testing.T) {
	h := newHarness(t)
	id := h.addContent(t, "nature", "flora-fauna")

	code, resp := h.do(t, http.MethodGet, "/api/curriculum", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), "byzantine-origins")

	code, resp = h.do(t, http.MethodGet, "/api/content?moduleId=nature&sectionId=flora-fauna", "")
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, int64(1), page.Total)

	code, _ = h.do(t, http.MethodGet, "/api/content?learningStyle=auditory", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = h.do(t, http.MethodGet, "/api/content/"+jsonUint(id), "")
	require.Equal(t, http.StatusOK, code)
	var item model.ContentItem
	require.NoError(t, json.Unmarshal(resp.Data, &item))
	assert.Equal(t, 1, item.Views)
}

func TestLearningPathEndpoints(t *testing.T) {
	h := newHarness(t)
	h.addContent(t, "history", "byzantine-origins")

	code, resp := h.do(t, http.MethodGet, "/api/learning-path", "")
	require.Equal(t, http.StatusOK, code)
	var lp model.LearningPath
	require.NoError(t, json.Unmarshal(resp.Data, &lp))
	assert.Equal(t, "history", lp.CurrentModule)

	code, _ = h.do(t, http.MethodPost, "/api/learning-path/refresh", `{"moduleId":"art","sectionId":"liturgy"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = h.do(t, http.MethodPost, "/api/learning-path/refresh", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &lp))
	assert.NotEmpty(t, lp.RecommendedContent)
}

func TestIngestEvents(t *testing.T) {
	h := newHarness(t)

	body := `{"events":[{"eventId":"5b1c2f5e-8d7e-4a5f-9b1e-2f6c8a9d0e11","type":"page_view","moduleId":"art"}]}`
	code, resp := h.do(t, http.MethodPost, "/api/analytics/events", body)
	require.Equal(t, http.StatusOK, code)
	var result service.IngestResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, 1, result.Accepted)

	code, resp = h.do(t, http.MethodPost, "/api/analytics/events", body)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, 1, result.Duplicates)

	code, _ = h.do(t, http.MethodPost, "/api/analytics/events", `{"events":[]}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func jsonUint(v uint) string {
	b, _ := json.Marshal(v)
	return string(b)
}
