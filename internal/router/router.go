package router

import (
	"time"

	"autovalor/config"
	"autovalor/internal/handler"
	"autovalor/internal/middleware"
	"autovalor/internal/repository"
	"autovalor/internal/service"
	"autovalor/pkg/cloudinary"
	"autovalor/pkg/mercadopago"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, mp mercadopago.API, ai service.Completer) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	evalRepo := repository.NewEvaluationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	notifSvc := service.NewNotificationService(notificationRepo)
	reconciler := service.NewReconcileService(evalRepo, paymentRepo, notifSvc, cfg.Valuation)
	valuationSvc := service.NewValuationService(evalRepo, ai, notifSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, auditRepo)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc, auditRepo)
	meHandler := handler.NewMeHandler(userRepo, evalRepo, paymentRepo, notificationRepo)
	evaluationHandler := handler.NewEvaluationHandler(evalRepo, valuationSvc)
	paymentHandler := handler.NewPaymentHandler(cfg, userRepo, evalRepo, paymentRepo, auditRepo, mp)
	webhookHandler := handler.NewPaymentWebhookHandler(mp, reconciler, auditRepo)
	uploadHandler := handler.NewUploadHandler(cloud)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.GetProfile)
			me.GET("/evaluations", meHandler.ListEvaluations)
			me.GET("/payments", meHandler.ListPayments)
			me.GET("/notifications", meHandler.ListNotifications)
			me.PUT("/notifications/:id/read", meHandler.MarkNotificationRead)
			me.POST("/upload/vehicle", uploadHandler.UploadVehiclePhoto)
		}

		api.POST("/evaluations", authMw, evaluationHandler.Create)
		api.GET("/evaluations/:id", authMw, evaluationHandler.Get)
		api.POST("/evaluations/:id/generate", authMw, evaluationHandler.Generate)

		api.POST("/payments/checkout", authMw, paymentHandler.Checkout)
		api.POST("/payments/start", authMw, paymentHandler.StartPix)
		api.GET("/payments/:id/status", authMw, paymentHandler.Status)
		api.POST("/payments/dev-approve", authMw, paymentHandler.DevApprove)

		// Provider callback: unauthenticated by design.
		api.POST("/payments/webhook", webhookHandler.Handle)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
