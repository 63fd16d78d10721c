package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/config"
	"github.com/rosettahomes/rosetta-backend/internal/database"
	"github.com/rosettahomes/rosetta-backend/internal/handlers"
	"github.com/rosettahomes/rosetta-backend/internal/logger"
	"github.com/rosettahomes/rosetta-backend/internal/middleware"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/internal/repository"
	"github.com/rosettahomes/rosetta-backend/internal/services"
	"github.com/rosettahomes/rosetta-backend/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env, os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("failed to get database instance", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Event fan-out: the websocket hub always, Redis pub/sub when configured.
	hub := services.NewHub(log, cfg.CORS)
	go hub.Run(ctx)
	publishers := services.Publishers{hub}

	var counter middleware.Counter
	if cfg.RedisURL != "" {
		rdb, err := services.InitRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, pub/sub and rate limiting disabled", "error", err)
		} else {
			defer rdb.Close()
			publishers = append(publishers, services.NewRedisPublisher(rdb, log))
			counter = services.NewRedisCounter(rdb, "ratelimit:")
			log.Info("redis connected")
		}
	} else {
		log.Warn("REDIS_URL not set, pub/sub and rate limiting disabled")
	}

	push, err := services.InitFirebase(ctx, cfg.FirebaseCredentials, log)
	if err != nil {
		log.Warn("firebase initialization failed, push notifications disabled", "error", err)
		push = nil
	}

	images, err := services.NewStorage(cfg, log)
	if err != nil {
		log.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	mailer := utils.NewMailer(utils.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	sms := utils.NewSMSClient(utils.SMSConfig{
		Provider:         cfg.SMS.Provider,
		DefaultRegion:    cfg.SMS.DefaultRegion,
		ATUsername:       cfg.SMS.ATUsername,
		ATAPIKey:         cfg.SMS.ATAPIKey,
		ATSenderID:       cfg.SMS.ATSenderID,
		TwilioAccountSID: cfg.SMS.TwilioAccountSID,
		TwilioAuthToken:  cfg.SMS.TwilioAuthToken,
		TwilioFrom:       cfg.SMS.TwilioFrom,
	}, log)

	users := repository.NewUserRepository(db)
	properties := repository.NewPropertyRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	resets := repository.NewPasswordResetRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)

	var pushSender services.PushSender
	if push != nil {
		pushSender = push
	}
	notifier := services.NewNotifier(mailer, sms, pushSender, prefRepo, log, cfg.Client)
	tokens := utils.NewTokenManager(cfg.JWT.Secret)

	authSvc := services.NewAuthService(users, resets, tokens, notifier, log, services.AuthConfig{
		TokenTTL:      cfg.JWT.TTL,
		AdminTokenTTL: cfg.JWT.AdminTTL,
		ClientURL:     cfg.Client,
		AdminSetupKey: cfg.AdminSetupKey,
		PhoneRegion:   cfg.SMS.DefaultRegion,
	})
	bookingSvc := services.NewBookingService(bookingRepo, properties, notifier, publishers, log, cfg.Location, cfg.SMS.DefaultRegion)
	propertySvc := services.NewPropertyService(properties, users, bookingRepo, reviewRepo, images, notifier, publishers, log, cfg.AutoApproveProperties)
	reviewSvc := services.NewReviewService(reviewRepo, bookingRepo, users, properties, notifier, publishers, log)
	dashboardSvc := services.NewDashboardService(users, properties, bookingRepo, reviewRepo)
	categorySvc := services.NewCategoryService(categoryRepo)
	prefSvc := services.NewPreferenceService(prefRepo, users)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		log.Error("failed to register validators", "error", err)
		os.Exit(1)
	}

	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Static("/uploads", cfg.UploadDir)

	auth := middleware.Auth(tokens)
	optionalAuth := middleware.OptionalAuth(tokens)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.Health(sqlDB, log))
		api.GET("/ws", auth, handlers.WebSocketHandler(hub))

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", handlers.Register(authSvc, log))
			authRoutes.POST("/login", handlers.Login(authSvc, log))
			authRoutes.POST("/forgot-password", handlers.ForgotPassword(authSvc, log))
			authRoutes.POST("/verify-reset-token", handlers.VerifyResetToken(authSvc, log))
			authRoutes.POST("/reset-password", handlers.ResetPassword(authSvc, log))
			authRoutes.POST("/change-password", auth, handlers.ChangePassword(authSvc, log))
			authRoutes.GET("/me", auth, handlers.GetProfile(authSvc, log))
			authRoutes.PUT("/me", auth, handlers.UpdateProfile(authSvc, log))
		}

		api.GET("/categories", handlers.ListCategories(categorySvc, log))

		propertyRoutes := api.Group("/properties")
		{
			propertyRoutes.GET("", handlers.ListProperties(propertySvc, log))
			propertyRoutes.GET("/user/my-properties", auth, handlers.MyProperties(propertySvc, log))
			propertyRoutes.GET("/:id", optionalAuth, handlers.GetProperty(propertySvc, log))
			propertyRoutes.GET("/:id/availability", handlers.PropertyAvailability(bookingSvc, log))
			propertyRoutes.POST("", auth, handlers.CreateProperty(propertySvc, log))
			propertyRoutes.PUT("/:id", auth, handlers.UpdateProperty(propertySvc, log))
			propertyRoutes.DELETE("/:id", auth, handlers.DeactivateProperty(propertySvc, log))
			propertyRoutes.POST("/:id/images", auth, handlers.UploadPropertyImages(propertySvc, log))
			propertyRoutes.DELETE("/:id/images", auth, handlers.DeletePropertyImage(propertySvc, log))
		}

		bookingRoutes := api.Group("/bookings")
		{
			bookingRoutes.POST("/book",
				middleware.RateLimit(counter, "bookings", cfg.BookingRateLimit, cfg.BookingRateWindow, log),
				optionalAuth,
				handlers.CreateBooking(bookingSvc, log),
			)
			bookingRoutes.GET("", auth, handlers.ListBookings(bookingSvc, log))
			bookingRoutes.GET("/property/:propertyId", handlers.PropertyBookings(bookingSvc, log))
			bookingRoutes.GET("/:id", handlers.GetBooking(bookingSvc, log))
			bookingRoutes.PUT("/:id/status", auth, handlers.UpdateBookingStatus(bookingSvc, false, log))
		}

		host := api.Group("/host", auth)
		{
			host.GET("/stats", handlers.HostStats(dashboardSvc, log))
			host.GET("/properties", handlers.MyProperties(propertySvc, log))
			host.GET("/bookings", handlers.HostBookings(bookingSvc, log))
			host.PUT("/properties/:id", handlers.UpdateProperty(propertySvc, log))
			host.DELETE("/properties/:id", handlers.RemoveProperty(propertySvc, log))
			host.PUT("/properties/:id/toggle", handlers.ToggleProperty(propertySvc, log))
		}

		api.POST("/admin/login", handlers.AdminLogin(authSvc, log))
		api.POST("/admin/create-admin", handlers.CreateAdmin(authSvc, log))
		admin := api.Group("/admin", auth, adminOnly)
		{
			admin.GET("/stats", handlers.AdminStats(dashboardSvc, log))
			admin.GET("/hosts", handlers.ListHosts(dashboardSvc, log))
			admin.GET("/properties", handlers.AdminProperties(propertySvc, "", log))
			admin.GET("/properties/pending", handlers.AdminProperties(propertySvc, models.ApprovalPending, log))
			admin.PUT("/properties/:id/approve", handlers.ApproveProperty(propertySvc, log))
			admin.PUT("/properties/:id/reject", handlers.RejectProperty(propertySvc, log))
			admin.DELETE("/properties/:id", handlers.RemoveProperty(propertySvc, log))
			admin.GET("/bookings", handlers.ListBookings(bookingSvc, log))
			admin.PUT("/bookings/:id/status", handlers.UpdateBookingStatus(bookingSvc, true, log))
			admin.POST("/categories/seed", handlers.SeedCategories(categorySvc, log))
			admin.POST("/test-notifications", handlers.SendTestNotification(notifier, log))
			admin.GET("/notifications/status", handlers.NotificationStatus(notifier))
		}

		reviews := api.Group("/reviews")
		{
			reviews.GET("/property/:propertyId", handlers.PropertyReviews(reviewSvc, log))
			reviews.POST("", auth, handlers.CreateReview(reviewSvc, log))
			reviews.GET("/user/:userId", auth, handlers.UserReviews(reviewSvc, log))
			reviews.POST("/:id/response", auth, handlers.RespondToReview(reviewSvc, log))
			reviews.GET("/analytics/:hostId", auth, handlers.ReviewAnalytics(reviewSvc, log))
			reviews.POST("/:id/report", auth, handlers.ReportReview(reviewSvc, log))
			reviews.PUT("/:id/moderate", auth, adminOnly, handlers.ModerateReview(reviewSvc, log))
			reviews.GET("/eligibility/:bookingId", auth, handlers.ReviewEligibility(reviewSvc, log))
		}

		notifications := api.Group("/notifications", auth)
		{
			notifications.POST("/register-token", handlers.RegisterFCMToken(prefSvc, log))
			notifications.DELETE("/remove-token", handlers.RemoveFCMToken(prefSvc, log))
			notifications.GET("/preferences", handlers.GetNotificationPreferences(prefSvc, log))
			notifications.PUT("/preferences", handlers.UpdateNotificationPreferences(prefSvc, log))
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
