package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facelens/backend/internal/config"
	"github.com/facelens/backend/internal/email"
	"github.com/facelens/backend/internal/handler"
	"github.com/facelens/backend/internal/metrics"
	appMiddleware "github.com/facelens/backend/internal/middleware"
	"github.com/facelens/backend/internal/repository"
	"github.com/facelens/backend/internal/scheduler"
	"github.com/facelens/backend/internal/service"
	"github.com/facelens/backend/pkg/payment"
	"github.com/facelens/backend/pkg/vision"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present (for local development)
	_ = godotenv.Load()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()

	// Initialize database
	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := repository.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	log.Println("database connected & migrated")

	// Payment gateway
	var gateway payment.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey)
	} else {
		log.Println("STRIPE_SECRET_KEY not set, using fake payment gateway")
		gateway = payment.NewFakeGateway()
	}

	// Face detection collaborator
	var detector vision.Detector
	if cfg.VisionServiceURL != "" {
		detector = vision.NewHTTPDetector(cfg.VisionServiceURL)
	} else {
		log.Println("VISION_SERVICE_URL not set, using stub detector")
		detector = vision.StubDetector{}
	}

	m := metrics.New()
	mailer := email.NewMailer(cfg.ResendAPIKey, cfg.EmailFrom)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	trackedRepo := repository.NewTrackedRequestRepository(db)

	// Services
	membershipSvc := service.NewMembershipService(
		userRepo, membershipRepo, paymentRepo, db, gateway, mailer, m, cfg.StripePlanID)
	authSvc := service.NewAuthService(cfg.JWTSecret, userRepo, membershipSvc)
	meteringSvc := service.NewMeteringService(trackedRepo, gateway, m)
	billingSvc := service.NewBillingService(userRepo, membershipRepo, trackedRepo, paymentRepo, gateway, m)
	recognitionSvc := service.NewRecognitionService(meteringSvc, detector)

	// Trial-expiry sweep
	sweep := scheduler.New(membershipSvc)
	if err := sweep.Start(cfg.TrialSweepSchedule); err != nil {
		log.Fatalf("scheduler error: %v", err)
	}
	defer sweep.Stop()

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	accountHandler := handler.NewAccountHandler(authSvc)
	subscriptionHandler := handler.NewSubscriptionHandler(membershipSvc)
	billingHandler := handler.NewBillingHandler(billingSvc)
	recognitionHandler := handler.NewRecognitionHandler(recognitionSvc)
	planHandler := handler.NewPlanHandler(cfg.StripePlanID)
	healthHandler := handler.NewHealthHandler(db)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(appMiddleware.Recovery)
	r.Use(appMiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(20, 40)
	r.Use(globalRL.Middleware())

	// Public routes
	r.Get("/health", healthHandler.Check)
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/api/plan", planHandler.Get)
	r.Post("/api/auth/register", authHandler.Register)

	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.StrictRateLimiter())
		r.Post("/api/auth/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.DemoThrottle())
		r.Post("/api/demo", recognitionHandler.Demo)
	})

	// Protected API routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(authSvc))

		r.Get("/api/auth/me", authHandler.Me)

		r.Get("/api/account/email", accountHandler.Email)
		r.Post("/api/account/change-email", accountHandler.ChangeEmail)
		r.Post("/api/account/change-password", accountHandler.ChangePassword)
		r.Get("/api/account/api-key", accountHandler.APIKey)

		r.Get("/api/billing", billingHandler.Summary)
		r.Get("/api/billing/payments", billingHandler.Payments)
		r.Post("/api/subscribe", subscriptionHandler.Subscribe)

		// Membership-gated routes
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireMember(membershipSvc))
			r.Post("/api/cancel-subscription", subscriptionHandler.Cancel)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.DemoThrottle())
				r.Post("/api/recognition", recognitionHandler.Recognize)
			})
		})
	})

	// Start server
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("FaceLens backend listening at http://%s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
