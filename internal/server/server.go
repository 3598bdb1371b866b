package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"tutorhub/internal/auth"
	"tutorhub/internal/config"
	"tutorhub/internal/dashboard"
	"tutorhub/internal/email"
	"tutorhub/internal/payment"
	"tutorhub/internal/session"
	"tutorhub/internal/tracker"
	"tutorhub/internal/user"
	"tutorhub/internal/wallet"
	"tutorhub/internal/withdrawal"
)

type Server struct {
	router   *gin.Engine
	httpSrv  *http.Server
	db       *sqlx.DB
	config   *config.Config
	email    *email.Service
	registry *tracker.Registry
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service, registry *tracker.Registry) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(20, 40))

	userRepo := user.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	sessionRepo := session.NewRepository(db)
	trackerRepo := tracker.NewRepository(db)
	withdrawalRepo := withdrawal.NewRepository(db)
	dashboardRepo := dashboard.NewRepository(db)

	paymentClient := payment.NewClient(cfg.PaymentAPIBase, cfg.PaymentAPIKey)

	userService := user.NewService(userRepo, cfg.JWTSecret)
	sessionService := session.NewService(sessionRepo, trackerRepo, registry, walletRepo, userRepo, emailService)
	withdrawalService := withdrawal.NewService(withdrawalRepo, walletRepo, userRepo, paymentClient, emailService)
	paymentService := payment.NewService(paymentClient, walletRepo, userRepo)

	userHandler := user.NewHandler(userService)
	walletHandler := wallet.NewHandler(walletRepo)
	sessionHandler := session.NewHandler(sessionService)
	withdrawalHandler := withdrawal.NewHandler(withdrawalService)
	paymentHandler := payment.NewHandler(paymentService)
	dashboardHandler := dashboard.NewHandler(dashboardRepo)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/api")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)

		protected.GET("/wallet", walletHandler.GetBalance)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)

		protected.GET("/sessions", sessionHandler.ListMine)
		protected.GET("/sessions/:sessionID/elapsed", sessionHandler.Elapsed)
		protected.POST("/sessions/:sessionID/cancel", sessionHandler.Cancel)

		protected.GET("/dashboard/student", auth.RequireRole("student", "parent"), dashboardHandler.StudentStats)
		protected.GET("/dashboard/teacher", auth.RequireRole("teacher"), dashboardHandler.TeacherStats)
	}

	student := router.Group("/api")
	student.Use(authMiddleware, auth.RequireRole("student", "parent"))
	{
		student.POST("/sessions", sessionHandler.Schedule)
		student.POST("/payments/customer", paymentHandler.CreateCustomer)
		student.POST("/payments/intent", paymentHandler.CreateIntent)
		student.POST("/payments/confirm", paymentHandler.Confirm)
	}

	teacher := router.Group("/api")
	teacher.Use(authMiddleware, auth.RequireRole("teacher"))
	{
		teacher.POST("/sessions/:sessionID/start", sessionHandler.Start)
		teacher.POST("/sessions/:sessionID/pause", sessionHandler.Pause)
		teacher.POST("/sessions/:sessionID/resume", sessionHandler.Resume)
		teacher.POST("/sessions/:sessionID/complete", sessionHandler.Complete)

		teacher.POST("/withdrawals", withdrawalHandler.Create)
		teacher.GET("/withdrawals", withdrawalHandler.ListMine)
		teacher.POST("/withdrawals/:requestID/cancel", withdrawalHandler.Cancel)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole("admin"))
	{
		admin.GET("/withdrawals", withdrawalHandler.ListPending)
		admin.POST("/withdrawals/:requestID/process", withdrawalHandler.Process)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))
	SetupSwagger(router)

	return &Server{
		router:   router,
		db:       db,
		config:   cfg,
		email:    emailService,
		registry: registry,
	}
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start(port string) error {
	s.httpSrv = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
