package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clipquiz/internal/cache"
	"clipquiz/internal/config"
	"clipquiz/internal/game"
	"clipquiz/internal/media"
	"clipquiz/internal/repository"
	"clipquiz/internal/service"
	"clipquiz/internal/transport/rest"
	"clipquiz/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()
	log.Printf("Quiz config: max track %ds, round gap %ds", cfg.MaxTrackSeconds, cfg.RoundGapSeconds)

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database("clipquiz")

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub (the room chat + audio platform)
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories and caches
	packRepo, err := repository.NewPackRepo(db)
	if err != nil {
		log.Fatal("Failed to init pack repository:", err)
	}
	statsCache := cache.NewStatsCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(cfg.HostUsername, cfg.HostPassword, cfg.JWTSecret)
	catalogSvc := service.NewCatalogService(packRepo)
	statsSvc := service.NewStatsService(statsCache)

	// Initialize the quiz engine
	extractor := media.NewExtractor(cfg.FFmpegBin, cfg.FFprobeBin)
	quiz := game.NewManager(catalogSvc, extractor, ws.NewVoice(wsHub), wsHub, statsSvc, game.Options{
		MaxTrackDuration: cfg.MaxTrackDuration(),
		RoundGap:         cfg.RoundGap(),
	})

	// Route room chat into the quiz and end sessions in emptied rooms
	wsHub.OnChat = quiz.HandleMessage
	wsHub.OnEmpty = quiz.End

	// Create router with container
	container := &rest.Container{
		AuthService:    authSvc,
		CatalogService: catalogSvc,
		StatsService:   statsSvc,
		Quiz:           quiz,
		WSHub:          wsHub,
	}
	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST/GET /v1/packs, GET /v1/packs/search")
		log.Println("  POST /v1/rooms/{room}/join")
		log.Println("  POST /v1/rooms/{room}/quiz/{start,stop,join,leave}")
		log.Println("  GET  /v1/rooms/{room}/quiz")
		log.Println("  GET  /v1/stats/winners")
		log.Println("  WS   /v1/ws/rooms/{room}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
