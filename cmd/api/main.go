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

	"github.com/joho/godotenv"
	"github.com/occamy/fieldops-api/internal/config"
	"github.com/occamy/fieldops-api/internal/infrastructure/dynamo"
	"github.com/occamy/fieldops-api/internal/infrastructure/google"
	jwtinfra "github.com/occamy/fieldops-api/internal/infrastructure/jwt"
	"github.com/occamy/fieldops-api/internal/infrastructure/sns"
	transporthttp "github.com/occamy/fieldops-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider is optional; without keys the server still serves
	// public endpoints.
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// Code delivery: SNS in production, log fallback in development.
	var codeSender sns.CodeSender
	if cfg.DevMode() {
		codeSender = sns.DevSender{}
		log.Println("WARN: SMS dev fallback active, codes go to the local log")
	} else {
		sender, err := sns.NewSender(cfg)
		if err != nil {
			log.Fatalf("sns sender: %v", err)
		}
		codeSender = sender
	}

	deps := &transporthttp.Deps{
		UserRepo:       dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		OTPRepo:        dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPs),
		SessionRepo:    dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		ActivityRepo:   dynamo.NewActivityRepo(dynamoClient, cfg.DynamoTables.Activities),
		CodeSender:     codeSender,
		GoogleVerifier: google.NewVerifier(cfg.GoogleClientID),
		JWTProvider:    jwtProvider,
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
