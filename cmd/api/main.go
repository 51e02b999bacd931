package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rentx/rentx-api/internal/config"
	"github.com/rentx/rentx-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/rentx/rentx-api/internal/infrastructure/jwt"
	s3infra "github.com/rentx/rentx-api/internal/infrastructure/s3"
	"github.com/rentx/rentx-api/internal/infrastructure/smtp"
	"github.com/rentx/rentx-api/internal/infrastructure/sns"
	transporthttp "github.com/rentx/rentx-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store for listing photos.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer for the email OTP channel.
	mailer := smtp.NewMailer(cfg)

	// SNS publisher for the SMS OTP channel (optional — graceful fallback).
	var publisher sns.Publisher
	if p, err := sns.NewPublisher(cfg); err == nil {
		publisher = p
	} else {
		log.Printf("WARN: SNS publisher not available: %v", err)
	}

	// Redis backs the per-client session slots unless configured otherwise.
	var redisClient *redis.Client
	if cfg.SessionSlotBackend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("WARN: redis not reachable, sessions fall back to memory: %v", err)
			redisClient = nil
		}
		cancel()
	}

	deps := &transporthttp.Deps{
		AccountRepo:  dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts),
		PropertyRepo: dynamo.NewPropertyRepo(dynamoClient, cfg.DynamoTables.Properties),
		ActivityRepo: dynamo.NewActivityRepo(dynamoClient, cfg.DynamoTables.Activity),
		S3Store:      s3Store,
		Mailer:       mailer,
		Publisher:    publisher,
		Redis:        redisClient,
		JWTProvider:  jwtProvider,
		Logger:       logger,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
