package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-auth-nosql/internal/application/sweeper"
	"github.com/go-auth-nosql/internal/config"
	"github.com/go-auth-nosql/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-auth-nosql/internal/infrastructure/jwt"
	"github.com/go-auth-nosql/internal/infrastructure/mail"
	"github.com/go-auth-nosql/internal/logging"
	"github.com/go-auth-nosql/internal/observability"
	transporthttp "github.com/go-auth-nosql/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := logging.SetDefault("auth-api", cfg.AppEnv, cfg.LogFormat, cfg.LogLevel)
	if envErr != nil {
		logger.Info("no .env file found, reading from environment")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("dynamo client: %w", err)
	}
	if err := dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables); err != nil {
		return fmt.Errorf("bootstrap tables: %w", err)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	sender, err := mail.NewSender(cfg)
	if err != nil {
		return fmt.Errorf("mail sender: %w", err)
	}

	registry, metrics := observability.NewRegistry()
	accountRepo := dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts)

	sw := sweeper.New(sweeper.Deps{
		Store:     accountRepo,
		Metrics:   metrics,
		Logger:    logger,
		Threshold: cfg.SweepThreshold,
		Interval:  cfg.SweepInterval,
	})
	sw.Start(ctx)
	defer sw.Stop()

	deps := &transporthttp.Deps{
		AccountRepo:      accountRepo,
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Accounts),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		Mailer:           mail.NewDeliverer(sender, cfg.MailTimeout, cfg.MailRetries),
		JWTProvider:      jwtProvider,
		Metrics:          metrics,
		Gatherer:         registry,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
