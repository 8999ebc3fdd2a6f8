package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamgate/billing"
	"streamgate/config"
	"streamgate/db"
	"streamgate/handlers"
	"streamgate/logging"
	"streamgate/mail"
	"streamgate/services"
	"streamgate/store"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stdout)
	if err != nil {
		slog.Error("build logger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	features := config.LoadFeatures()
	logger.Info("features",
		slog.Bool("billing", features.BillingEnabled),
		slog.Bool("catalog_write", features.CatalogWriteEnabled),
		slog.Bool("reset_uniform_response", features.ResetUniformResponse),
	)

	var (
		users  store.UserStore
		movies store.MovieStore
	)
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		users = store.NewMemoryUsers()
		movies = store.NewMemoryMovies()
	} else {
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := db.Migrate(ctx, conn, logger); err != nil {
			return err
		}
		users = store.NewPostgresUsers(conn, cfg.Database.StoreTimeout)
		movies = store.NewPostgresMovies(conn, cfg.Database.StoreTimeout)
	}

	consumed, closeConsumed, err := newConsumedTokens(ctx, cfg.RedisURL, logger)
	if err != nil {
		return err
	}
	defer closeConsumed()

	mailer, err := newMailer(cfg.Mail, logger)
	if err != nil {
		return err
	}
	gateway, err := newGateway(cfg.Payments)
	if err != nil {
		return err
	}

	deps, err := newDeps(cfg, features, users, movies, consumed, mailer, gateway, logger)
	if err != nil {
		return err
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)

	// Webhook updates and uniform reset mails finish after the response; let them land.
	deps.Reconciler.Wait()
	deps.Reset.Wait()
	return err
}

// newDeps builds the services the router is wired to.
func newDeps(
	cfg config.Config,
	features config.Features,
	users store.UserStore,
	movies store.MovieStore,
	consumed store.ConsumedTokens,
	mailer mail.Sender,
	gateway billing.Gateway,
	logger *slog.Logger,
) (handlers.Deps, error) {
	hasher, codec, err := newCredentials(cfg.Auth)
	if err != nil {
		return handlers.Deps{}, err
	}

	return handlers.Deps{
		Auth: services.NewAuthService(users, hasher, codec, services.AuthConfig{
			SessionTTL:        cfg.Auth.SessionTTL,
			MinPasswordLength: cfg.Auth.MinPasswordLength,
		}, logger),
		Reset: services.NewResetService(users, consumed, hasher, codec, mailer, services.ResetConfig{
			TTL:               cfg.Auth.ResetTTL,
			FrontendURL:       cfg.FrontendURL,
			MinPasswordLength: cfg.Auth.MinPasswordLength,
			MailTimeout:       cfg.Mail.Timeout,
		}, logger),
		Checkout: services.NewCheckoutService(gateway, cfg.FrontendURL, logger),
		Reconciler: services.NewReconciler(gateway, users,
			services.NewSlackAlerter(cfg.SlackWebhookURL, logger),
			cfg.Database.StoreTimeout, logger),
		Catalog:  services.NewCatalogService(movies, logger),
		Users:    users,
		Codec:    codec,
		Features: features,
		Logger:   logger,
	}, nil
}
