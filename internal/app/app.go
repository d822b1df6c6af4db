package app

import (
	"athos_explorer_backend/internal/config"
	"athos_explorer_backend/internal/controller"
	"athos_explorer_backend/internal/repository"
	"athos_explorer_backend/internal/service"
	"athos_explorer_backend/pkg/configwatcher"
	"athos_explorer_backend/pkg/database"
	"athos_explorer_backend/pkg/events"
	"athos_explorer_backend/pkg/logger"
	"athos_explorer_backend/pkg/monitoring"
	"athos_explorer_backend/pkg/security"
	"athos_explorer_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	configDir        = "configs"
	eventRetryPeriod = 30 * time.Second
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Publisher       events.Publisher
	services        *services
	configCallbacks []func(*config.Config)
	tracerProvider  *trace.TracerProvider
	cancel          context.CancelFunc
}

type repositories struct {
	user         *repository.UserRepository
	content      *repository.ContentRepository
	quiz         *repository.QuizRepository
	progress     *repository.ProgressRepository
	learningPath *repository.LearningPathRepository
	activity     *repository.ActivityRepository
}

type services struct {
	auth           *service.AuthService
	settings       *service.LearningSettings
	catalog        *service.RepositoryCatalog
	writer         *service.ProgressWriter
	recommendation *service.RecommendationService
	analytics      *service.AnalyticsService
	learningPath   *service.LearningPathService
	progress       *service.ProgressService
	quiz           *service.QuizService
	content        *service.ContentService
}

type controllers struct {
	auth         *controller.AuthController
	progress     *controller.ProgressController
	quiz         *controller.QuizController
	learningPath *controller.LearningPathController
	content      *controller.ContentController
	analytics    *controller.AnalyticsController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		content:      repository.NewContentRepository(db),
		quiz:         repository.NewQuizRepository(db),
		progress:     repository.NewProgressRepository(db),
		learningPath: repository.NewLearningPathRepository(db),
		activity:     repository.NewActivityRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.settings = service.NewLearningSettings(cfg.Learning)
	s.catalog = service.NewRepositoryCatalog(repos.content, repos.quiz)
	s.writer = service.NewProgressWriter(db, repos.progress, s.catalog, s.settings)
	s.recommendation = service.NewRecommendationService(s.catalog, s.settings)
	s.analytics = service.NewAnalyticsService(repos.activity, a.Publisher, true)
	s.learningPath = service.NewLearningPathService(
		repos.learningPath,
		repos.user,
		repos.progress,
		s.recommendation,
		s.analytics,
		s.settings,
		rdb,
	)
	s.progress = service.NewProgressService(s.writer, repos.progress, repos.content, s.catalog, s.learningPath, s.analytics)
	s.quiz = service.NewQuizService(repos.quiz, s.writer, s.settings, s.learningPath, s.analytics)
	s.content = service.NewContentService(repos.content, s.analytics)

	// 热更新只影响学习参数，数据库等连接配置需要重启
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		if err := s.settings.Set(newCfg.Learning); err != nil {
			logger.Log.Error("Rejected learning config reload", zap.Error(err))
			return
		}
		logger.Log.Info("Learning config reloaded",
			zap.Int("passing_score", newCfg.Learning.PassingScore),
			zap.Int("max_recommendations", newCfg.Learning.MaxRecommendations))
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		progress:     controller.NewProgressController(s.progress),
		quiz:         controller.NewQuizController(s.quiz),
		learningPath: controller.NewLearningPathController(s.learningPath),
		content:      controller.NewContentController(s.content),
		analytics:    controller.NewAnalyticsController(s.analytics),
		health:       controller.NewHealthController(db, a.Redis, a.Publisher.Enabled()),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	if a.Publisher.Enabled() {
		go s.analytics.RunRetryLoop(ctx, eventRetryPeriod)
	}

	go func() {
		err := configwatcher.WatchConfig(ctx, filepath.Join(configDir, "config.yaml"), func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	// Redis 只做学习路径缓存，不可用时降级
	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(context.Background(), &cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, learning path cache disabled", zap.Error(err))
		} else {
			app.Redis = rdb
		}
	}

	publisher, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
	if err != nil {
		logger.Log.Warn("Event publishing disabled", zap.Error(err))
		publisher, _ = events.NewAMQPPublisher("", cfg.Events.Exchange)
	}
	app.Publisher = publisher

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, app.Redis)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("athos-explorer", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	app.registerRoutes(router, controllers, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.startBackgroundTasks(ctx, services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	logger.Log.Info("Server exiting")
}

// Close 停止后台任务，尽量把重试队列中的事件发出去
func (a *App) Close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.services != nil && a.Publisher != nil && a.Publisher.Enabled() {
		a.services.analytics.FlushRetries(ctx)
	}
	if a.Publisher != nil {
		a.Publisher.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
