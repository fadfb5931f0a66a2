package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/codexam-backend/internal/config"
	"github.com/stemsi/codexam-backend/internal/handler"
	"github.com/stemsi/codexam-backend/internal/metrics"
	"github.com/stemsi/codexam-backend/internal/middleware"
	"github.com/stemsi/codexam-backend/internal/model"
	"github.com/stemsi/codexam-backend/internal/response"
	"github.com/stemsi/codexam-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Answer  *handler.AnswerHandler
	Monitor *handler.MonitorHandler
	Health  *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background middleware state such as the rate limiter sweeper.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so every log line and response carries it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log.With().Str("component", "http").Logger()))
	router.Use(metrics.Middleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", metrics.Handler())

	// ─── 1. Student Group (JWT, own records only) ──────────────────────
	submitLimiter := middleware.NewRateLimiter(ctx, cfg.SubmitRatePerMinute)

	studentAPI := router.Group("/api/v1/student/exams/:exam_id/students/:student_id")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.RequireSelf("student_id"),
	)
	{
		studentAPI.POST("/start", handlers.Answer.StartExam)
		studentAPI.POST("/answer", submitLimiter.Middleware(), handlers.Answer.SubmitAnswer)
	}

	// ─── 2. Admin Group (JWT + answers:read) ───────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.RequireAdminJWT(authService),
		middleware.RequirePermission(model.PermissionAnswersRead),
	)
	{
		adminAPI.GET("/exams/:exam_id/answers", handlers.Answer.ListAnswers)
		adminAPI.GET("/answers/:answer_id", handlers.Answer.GetAnswer)
	}

	// ─── 3. WebSocket Group (Admin WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1/admin")
	ws.Use(
		middleware.RequireAdminWSAuth(authService),
		middleware.RequirePermission(model.PermissionAnswersRead),
	)
	{
		ws.GET("/exams/:exam_id/monitor", handlers.Monitor.MonitorExam)
	}

	return router
}
