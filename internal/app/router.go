package app

import (
	"athos_explorer_backend/internal/config"
	"athos_explorer_backend/internal/middleware"
	"athos_explorer_backend/internal/model"
	"athos_explorer_backend/pkg/monitoring"
	"athos_explorer_backend/pkg/security"
	"time"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由，登录后按用户限流
	authGroup := router.Group("/api")
	authGroup.Use(
		middleware.AuthMiddleware(cfg),
		security.KeyedRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute, middleware.UserKey),
	)
	{
		a.registerLearnerRoutes(authGroup, c)

		// 3. 内容录入
		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Editor))
		{
			admin.POST("/content", c.content.CreateContent)
		}
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/curriculum", c.content.GetCurriculum)
	}
}

func (a *App) registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	// 学习进度
	progress := rg.Group("/progress")
	{
		progress.GET("", c.progress.GetProgress)
		progress.DELETE("", c.progress.ResetProgress)
		progress.POST("/content", c.progress.UpdateContentProgress)
		progress.POST("/sections/access", c.progress.RecordSectionAccess)
		progress.GET("/modules/:moduleId", c.progress.GetModuleProgress)
		progress.GET("/next-steps", c.progress.GetNextSteps)
		progress.GET("/achievements", c.progress.GetAchievements)
	}

	// 内容
	rg.GET("/content", c.content.ListContent)
	rg.GET("/content/:id", c.content.GetContent)

	// 测验
	rg.GET("/quizzes/:id", c.quiz.GetQuiz)
	rg.POST("/quizzes/:id/submit", c.quiz.SubmitQuiz)

	// 学习路径
	path := rg.Group("/learning-path")
	{
		path.GET("", c.learningPath.GetLearningPath)
		path.POST("/refresh", c.learningPath.Refresh)
		path.PUT("/preferences", c.learningPath.UpdatePreferences)
		path.POST("/suggestions/:contentId/click", c.learningPath.ClickSuggestion)
		path.POST("/suggestions/:contentId/complete", c.learningPath.CompleteSuggestion)
		path.POST("/suggestions/prune", c.learningPath.PruneSuggestions)
	}

	// 学习行为分析
	analytics := rg.Group("/analytics")
	{
		analytics.POST("/events", c.analytics.IngestEvents)
		analytics.GET("/events", c.analytics.ListEvents)
		analytics.GET("/summary", c.analytics.GetSummary)
	}
}
