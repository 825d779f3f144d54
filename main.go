package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kevinaaaquil/bookreview/backend/config"
	"github.com/kevinaaaquil/bookreview/backend/handlers"
	"github.com/kevinaaaquil/bookreview/backend/middleware"
	"github.com/kevinaaaquil/bookreview/backend/service"
	"github.com/kevinaaaquil/bookreview/backend/store"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := middleware.NewLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("config")
	}

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName, log)
	if err != nil {
		log.WithError(err).Fatal("mongodb")
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("mongodb disconnect")
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("mongodb indexes")
	}

	deps := handlers.Deps{
		Users:         db,
		Books:         db,
		Reviews:       db,
		Log:           log,
		MaxCoverBytes: cfg.MaxCoverMB * 1024 * 1024,
	}
	jwtAuth := &middleware.JWT{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL}
	deps.Auth = jwtAuth
	deps.Tokens = jwtAuth

	if cfg.S3Bucket != "" {
		s3Service, err := service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			log.WithError(err).Fatal("s3")
		}
		deps.Covers = s3Service
	} else {
		log.Warn("AWS_S3_BUCKET not set; cover uploads disabled")
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		limiter, err := middleware.NewFixedWindowLimiter(rdb, "bookreview:ratelimit", cfg.RatePerMinute, time.Minute)
		if err != nil {
			log.WithError(err).Fatal("rate limiter")
		}
		deps.Limiter = limiter
	} else {
		log.Info("REDIS_ADDR not set; rate limiting disabled")
	}

	server := &http.Server{Addr: ":" + cfg.Port, Handler: handlers.NewRouter(deps)}
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
}
