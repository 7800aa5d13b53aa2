package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Raj-Devo/Muzer/internal/media"
	"github.com/Raj-Devo/Muzer/internal/queue"
)

func main() {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("stream-queue-service: pg: %v", err)
	}
	defer pool.Close()

	if err := queue.AutoMigrate(ctx, pool); err != nil {
		log.Fatalf("stream-queue-service: migrate: %v", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("stream-queue-service: redis: %v", err)
		}
		rdb = redis.NewClient(opt)
		defer rdb.Close()
	}

	resolver := media.NewYouTubeClient(cfg.OEmbedURL)
	svc := queue.NewService(pool, rdb, resolver)
	srv := queue.NewServer(svc)

	r := srv.Router(
		corsMiddleware(cfg.CORSOrigin),
		bodySizeLimitMiddleware(cfg.MaxBodyBytes),
		jwtAuthMiddleware(cfg.JWTSecret),
	)

	log.Printf("stream-queue-service listening on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("stream-queue-service: %v", err)
	}
}
