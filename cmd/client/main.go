package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/config"
	"github.com/vibemap/vibemap/internal/observability"
	"github.com/vibemap/vibemap/internal/realtime"
	"github.com/vibemap/vibemap/internal/repositories/friend"
	"github.com/vibemap/vibemap/internal/repositories/message"
	"github.com/vibemap/vibemap/internal/repositories/notification"
	"github.com/vibemap/vibemap/internal/repositories/profile"
	"github.com/vibemap/vibemap/internal/repositories/session"
	"github.com/vibemap/vibemap/internal/repositories/tag"
	"github.com/vibemap/vibemap/internal/services/alerts"
	"github.com/vibemap/vibemap/internal/services/coordinator"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.Logger()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	sessionRepo, err := session.NewRedis(&session.Config{RedisClient: client})
	if err != nil {
		log.Fatalf("Failed to create session repository: %v", err)
	}
	profileRepo, err := profile.NewRedis(&profile.Config{RedisClient: client})
	if err != nil {
		log.Fatalf("Failed to create profile repository: %v", err)
	}
	tagRepo, err := tag.NewRedis(&tag.Config{RedisClient: client})
	if err != nil {
		log.Fatalf("Failed to create tag repository: %v", err)
	}
	friendRepo, err := friend.NewRedis(&friend.Config{RedisClient: client})
	if err != nil {
		log.Fatalf("Failed to create friend repository: %v", err)
	}
	messageRepo, err := message.NewRedis(&message.Config{RedisClient: client})
	if err != nil {
		log.Fatalf("Failed to create message repository: %v", err)
	}
	notificationRepo, err := notification.NewRedis(&notification.Config{RedisClient: client})
	if err != nil {
		log.Fatalf("Failed to create notification repository: %v", err)
	}
	feed, err := realtime.New(&realtime.Config{RedisClient: client})
	if err != nil {
		log.Fatalf("Failed to create realtime feed: %v", err)
	}

	coord, err := coordinator.New(&coordinator.Config{
		UserID:           cfg.UserID,
		Username:         cfg.Username,
		SessionRepo:      sessionRepo,
		ProfileRepo:      profileRepo,
		TagRepo:          tagRepo,
		FriendRepo:       friendRepo,
		MessageRepo:      messageRepo,
		NotificationRepo: notificationRepo,
		Feed:             feed,
		TickInterval:     cfg.TickInterval,
	})
	if err != nil {
		log.Fatalf("Failed to create coordinator service: %v", err)
	}

	alertsSvc, err := alerts.New(&alerts.Config{
		UserID:           cfg.UserID,
		NotificationRepo: notificationRepo,
		ProfileRepo:      profileRepo,
		SessionRepo:      sessionRepo,
		TagRepo:          tagRepo,
		Feed:             feed,
	})
	if err != nil {
		log.Fatalf("Failed to create alerts service: %v", err)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	coord.Load(ctx)
	logger.Info("initial state loaded",
		"sessions", len(coord.Sessions()),
		"tags", len(coord.Tags()),
		"friends", len(coord.Friends()))

	if err := alertsSvc.Load(ctx); err != nil {
		logger.Error("failed to load notifications", "error", err)
	}

	go func() {
		if err := alertsSvc.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("alerts loop stopped", "error", err)
		}
	}()

	logger.Info("vibemap client running", "user_id", cfg.UserID)

	if err := coord.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Coordinator stopped: %v", err)
	}

	logger.Info("shutting down")
}
