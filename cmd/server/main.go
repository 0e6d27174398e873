package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"satsjar/internal/config"
	"satsjar/internal/database"
	"satsjar/internal/handlers"
	"satsjar/internal/repository"
	"satsjar/internal/security"
	"satsjar/internal/service"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	parentRepo := repository.NewParentRepository(db)
	childRepo := repository.NewChildRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	lessonRepo := repository.NewLessonRepository(db)

	// Initialize services
	authService := service.NewAuthService(parentRepo, cfg.JWTSecret, cfg.TokenDuration)
	familyService := service.NewFamilyService(childRepo, cfg.ChildSessionDuration)
	goalService := service.NewGoalService(goalRepo, familyService)
	lessonService := service.NewLessonService(lessonRepo)
	ratesService := service.NewRatesService(cfg.ExchangeRateURL, cfg.ExchangeRateTTL)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	// Seed built-in lessons
	if err := lessonService.SeedDefaultLessons(); err != nil {
		log.Printf("Warning: Failed to seed default lessons: %v", err)
	}

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name: "google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name: "facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
	}

	// Initialize handlers
	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	middleware := handlers.NewMiddleware(authService, familyService, limiter)
	authHandler := handlers.NewAuthHandler(authService, emailService, oauthProviders, cfg.OAuthRedirectBaseURL, cfg.AppBaseURL)
	parentHandler := handlers.NewParentHandler(authService, familyService, goalService, lessonService, ratesService, emailService)
	childHandler := handlers.NewChildHandler(familyService, goalService, lessonService, ratesService)

	// Setup routes
	mux := http.NewServeMux()

	// Public auth routes
	mux.HandleFunc("POST /api/auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("GET /api/auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /api/auth/{provider}/callback", authHandler.OAuthCallback)

	// Protected parent auth routes
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("POST /api/auth/password", middleware.RequireAuth(authHandler.ChangePassword))
	mux.HandleFunc("POST /api/auth/savings-pin", middleware.RequireAuth(authHandler.SetSavingsPIN))
	mux.HandleFunc("POST /api/auth/savings-pin/verify", middleware.RequireAuth(authHandler.VerifySavingsPIN))
	mux.HandleFunc("DELETE /api/auth/account", middleware.RequireAuth(authHandler.DeleteAccount))

	// Parent routes
	mux.HandleFunc("POST /api/parent/children", middleware.RequireAuth(middleware.RateLimit(parentHandler.CreateChild)))
	mux.HandleFunc("GET /api/parent/children", middleware.RequireAuth(parentHandler.ListChildren))
	mux.HandleFunc("GET /api/parent/children/{childID}", middleware.RequireAuth(parentHandler.GetChild))
	mux.HandleFunc("PUT /api/parent/children/{childID}", middleware.RequireAuth(parentHandler.RenameChild))
	mux.HandleFunc("DELETE /api/parent/children/{childID}", middleware.RequireAuth(parentHandler.DeleteChild))
	mux.HandleFunc("GET /api/parent/children/{childID}/balance", middleware.RequireAuth(parentHandler.GetChildBalance))
	mux.HandleFunc("POST /api/parent/children/{childID}/regenerate-pin", middleware.RequireAuth(parentHandler.RegenerateChildPIN))
	mux.HandleFunc("POST /api/parent/children/{childID}/goals", middleware.RequireAuth(parentHandler.CreateGoal))
	mux.HandleFunc("GET /api/parent/children/{childID}/goals", middleware.RequireAuth(parentHandler.ListGoals))
	mux.HandleFunc("PUT /api/parent/children/{childID}/goals/{goalID}", middleware.RequireAuth(parentHandler.UpdateGoal))
	mux.HandleFunc("PUT /api/parent/children/{childID}/goals/{goalID}/saved", middleware.RequireAuth(parentHandler.RecordGoalSaved))
	mux.HandleFunc("DELETE /api/parent/children/{childID}/goals/{goalID}", middleware.RequireAuth(parentHandler.DeleteGoal))
	mux.HandleFunc("GET /api/parent/lessons", middleware.RequireAuth(parentHandler.ListLessons))

	// Child routes
	mux.HandleFunc("POST /api/child/login", middleware.RateLimit(childHandler.Login))
	mux.HandleFunc("GET /api/child/me", middleware.RequireChildAuth(childHandler.Me))
	mux.HandleFunc("GET /api/child/goals", middleware.RequireChildAuth(childHandler.ListGoals))
	mux.HandleFunc("GET /api/child/lessons", middleware.RequireChildAuth(childHandler.ListLessons))
	mux.HandleFunc("POST /api/child/lessons/{lessonID}/complete", middleware.RequireChildAuth(childHandler.CompleteLesson))
	mux.HandleFunc("POST /api/child/logout", childHandler.Logout)

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(familyService)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// cleanupExpiredSessions periodically removes expired child sessions
func cleanupExpiredSessions(familyService *service.FamilyService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := familyService.CleanupExpiredChildSessions(); err != nil {
			log.Printf("Error cleaning up expired child sessions: %v", err)
		} else {
			log.Println("Expired child sessions cleaned up")
		}
	}
}
