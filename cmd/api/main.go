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

	"github.com/go-otp-auth/internal/config"
	jwtinfra "github.com/go-otp-auth/internal/infrastructure/jwt"
	"github.com/go-otp-auth/internal/infrastructure/otpstore"
	"github.com/go-otp-auth/internal/infrastructure/smtp"
	"github.com/go-otp-auth/internal/pkg/otpgen"
	transporthttp "github.com/go-otp-auth/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.AppEnv == "production" {
			log.Fatal("JWT_SECRET must be set in production")
		}
		log.Println("WARN: JWT_SECRET not set, using insecure development fallback")
		secret = "dev-secret"
	}
	tokens, err := jwtinfra.NewProvider(secret, cfg.JWTExpiry)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("otp store (%s): %v", cfg.StoreBackend, err)
	}

	deps := &transporthttp.Deps{
		Store:     store,
		Mailer:    smtp.NewMailer(cfg),
		Generator: otpgen.NewCryptoSource(),
		Tokens:    tokens,
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
		log.Printf("Server starting on :%s (env=%s, store=%s)", cfg.AppPort, cfg.AppEnv, cfg.StoreBackend)
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

// newStore builds the configured OTP store backend.
func newStore(cfg *config.Config) (otpstore.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return otpstore.NewMemoryStore(), nil
	case config.BackendRedis:
		client := otpstore.NewRedisClient(cfg)
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return otpstore.NewRedisStore(client), nil
	case config.BackendDynamo:
		client, err := otpstore.NewDynamoClient(cfg)
		if err != nil {
			return nil, err
		}
		store := otpstore.NewDynamoStore(client, cfg.DynamoTableOTPs)
		store.Bootstrap(context.Background())
		return store, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.StoreBackend)
	}
}
