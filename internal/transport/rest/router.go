package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"clipquiz/internal/game"
	"clipquiz/internal/service"
	"clipquiz/internal/transport/rest/handler"
	"clipquiz/internal/transport/rest/middleware"
	"clipquiz/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	CatalogService *service.CatalogService
	StatsService   *service.StatsService
	Quiz           *game.Manager
	WSHub          *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	packHandler := handler.NewPackHandler(c.CatalogService)
	quizHandler := handler.NewQuizHandler(c.Quiz, c.AuthService, c.StatsService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/rooms/{room}/join", quizHandler.JoinRoom).Methods("POST", "OPTIONS")
	v1.HandleFunc("/rooms/{room}/quiz", quizHandler.Status).Methods("GET", "OPTIONS")
	v1.HandleFunc("/stats/winners", quizHandler.Winners).Methods("GET", "OPTIONS")

	// WebSocket route (public with token in query param)
	v1.HandleFunc("/ws/rooms/{room}", wsHandler.RoomWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Catalog routes (require host auth)
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)

	hostRoutes.HandleFunc("/packs", packHandler.Create).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/packs", packHandler.List).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/packs/search", packHandler.Search).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/packs/{id}", packHandler.Get).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/packs/{id}", packHandler.Update).Methods("PUT", "OPTIONS")
	hostRoutes.HandleFunc("/packs/{id}", packHandler.Delete).Methods("DELETE", "OPTIONS")

	// Quiz control routes (require player auth)
	playerRoutes := v1.NewRoute().Subrouter()
	playerRoutes.Use(authMW.RequirePlayer)

	playerRoutes.HandleFunc("/rooms/{room}/quiz/start", quizHandler.Start).Methods("POST", "OPTIONS")
	playerRoutes.HandleFunc("/rooms/{room}/quiz/stop", quizHandler.Stop).Methods("POST", "OPTIONS")
	playerRoutes.HandleFunc("/rooms/{room}/quiz/join", quizHandler.JoinQuiz).Methods("POST", "OPTIONS")
	playerRoutes.HandleFunc("/rooms/{room}/quiz/leave", quizHandler.LeaveQuiz).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
