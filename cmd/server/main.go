package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/amazonia-research/academy-backend/internal/activity"
	"github.com/amazonia-research/academy-backend/internal/cache"
	"github.com/amazonia-research/academy-backend/internal/config"
	"github.com/amazonia-research/academy-backend/internal/database"
	"github.com/amazonia-research/academy-backend/internal/gamification"
	"github.com/amazonia-research/academy-backend/internal/middleware"
	"github.com/amazonia-research/academy-backend/internal/notify"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Leaderboard cache is optional: without REDIS_ADDR every read
	// goes straight to Postgres.
	var lbCache gamification.LeaderboardCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unavailable, leaderboard cache disabled: %v", err)
		} else {
			lbCache = cache.NewLeaderboard(client)
			defer client.Close()
		}
	}

	// Notification pipeline
	var sender notify.Sender
	if cfg.WebhookURL != "" {
		sender = notify.NewWebhookSender(cfg.WebhookURL, cfg.WebhookKey)
	} else {
		sender = notify.LogSender{}
	}
	dispatcher := notify.NewDispatcher(sender, 256)
	go dispatcher.Run(ctx)

	// Wire stores, services, handlers
	engine := gamification.NewService(gamification.NewStore(db), dispatcher, lbCache)
	activities := activity.NewService(activity.NewStore(db), engine, dispatcher)

	gamHandler := gamification.NewHandler(engine)
	actHandler := activity.NewHandler(activities)
	auth := middleware.NewAuth(cfg.JWTSecret)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	protected := api.PathPrefix("").Subrouter()
	protected.Use(auth.Middleware)

	protected.HandleFunc("/gamification", gamHandler.GetOverview).Methods("GET")
	protected.HandleFunc("/gamification/badges", gamHandler.ListBadges).Methods("GET")
	protected.HandleFunc("/gamification/leaderboard", gamHandler.Leaderboard).Methods("GET")
	protected.HandleFunc("/gamification/challenges", gamHandler.ListChallenges).Methods("GET")
	protected.HandleFunc("/gamification/challenges/{id:[0-9]+}/claim", gamHandler.ClaimReward).Methods("POST")

	protected.HandleFunc("/activity/lessons/{id:[0-9]+}/complete", actHandler.CompleteLesson).Methods("POST")
	protected.HandleFunc("/activity/quizzes/{id:[0-9]+}/complete", actHandler.CompleteQuiz).Methods("POST")
	protected.HandleFunc("/activity/modules/{id:[0-9]+}/complete", actHandler.CompleteModule).Methods("POST")
	protected.HandleFunc("/activity/courses/{id:[0-9]+}/complete", actHandler.CompleteCourse).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: c.Handler(r),
	}

	go func() {
		<-ctx.Done()
		log.Printf("Shutting down")
		srv.Shutdown(context.Background())
	}()

	log.Printf("Server starting on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}
