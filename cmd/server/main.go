package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/leadvett/backend/internal/auth"
	"github.com/leadvett/backend/internal/cache"
	"github.com/leadvett/backend/internal/config"
	"github.com/leadvett/backend/internal/database"
	"github.com/leadvett/backend/internal/generator"
	"github.com/leadvett/backend/internal/leads"
	"github.com/leadvett/backend/internal/middleware"
	"github.com/rs/cors"
)

func main() {
	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Form cache is optional
	redisClient, err := cache.NewRedisClient(context.Background(), config.GetEnv("REDIS_URL", ""))
	if err != nil {
		log.Printf("WARN: redis unavailable, serving intake forms without cache: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Narrative generator
	aiCfg := config.LoadAIConfig()
	narrator := generator.NewNarrator(generator.NewLLMClient(aiCfg), aiCfg.Timeout())

	// Initialize services and handlers
	tokens := auth.TokensFromEnv()
	authHandler := auth.NewHandler(db, tokens)
	leadService := leads.NewService(leads.NewStore(db), leads.NewAnalyzer(narrator), cache.NewFormCache(redisClient))
	leadHandler := leads.NewHandler(leadService)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(tokens))
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	leadHandler.RegisterRoutes(api, protected)

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

	handler := c.Handler(r)

	port := config.GetEnv("PORT", "8080")

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
