package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nexo-Labs/SyncTionNotion/internal/api"
	"github.com/Nexo-Labs/SyncTionNotion/internal/auth"
	"github.com/Nexo-Labs/SyncTionNotion/internal/config"
	"github.com/Nexo-Labs/SyncTionNotion/internal/forms"
	"github.com/Nexo-Labs/SyncTionNotion/internal/logger"
	"github.com/Nexo-Labs/SyncTionNotion/internal/secrets"
	"github.com/Nexo-Labs/SyncTionNotion/internal/services"
	"github.com/Nexo-Labs/SyncTionNotion/internal/state"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	store, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create store")
	}
	defer store.Close()

	integrationID := uuid.MustParse(cfg.IntegrationID)

	// A token saved through the API takes precedence over NOTION_TOKEN.
	provider := secrets.Chain{
		secrets.NewStoreProvider(store, integrationID),
		secrets.Static(cfg.NotionToken),
	}

	notion := services.NewNotionClient(provider, services.NotionClientConfig{
		BaseURL:       cfg.NotionBaseURL,
		Version:       cfg.NotionVersion,
		IntegrationID: integrationID,
		MaxPages:      cfg.SearchPageLimit,
	})

	service := forms.NewService(notion, store, forms.Config{
		IntegrationID: integrationID,
		SearchDelay:   cfg.SearchDelay,
	})

	authMiddleware, closeAuth, err := newAuthMiddleware(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create JWT verifier")
	}
	defer closeAuth()

	handler := api.NewFormHandler(service, store)
	router := api.SetupRoutes(handler, authMiddleware, cfg.AllowedOrigin)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().
		Str("addr", cfg.ServerAddr).
		Bool("auth", authMiddleware != nil).
		Bool("postgres", cfg.DatabaseURL != "").
		Msg("Server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server failed to start")
	}

	log.Info().Msg("Server stopped")
}

func newStore(cfg *config.Config) (state.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, keeping state in memory")
		return state.NewInMemoryStore(), nil
	}
	return state.NewPostgresStore(cfg.DatabaseURL)
}

func newAuthMiddleware(cfg *config.Config) (*auth.Middleware, func(), error) {
	switch {
	case cfg.JWKSURL != "":
		verifier, err := auth.NewJWKSVerifier(cfg.JWKSURL)
		if err != nil {
			return nil, func() {}, err
		}
		return auth.NewMiddleware(verifier), verifier.Close, nil
	case cfg.JWTSecret != "":
		verifier := auth.NewHMACVerifier([]byte(cfg.JWTSecret))
		return auth.NewMiddleware(verifier), verifier.Close, nil
	default:
		log.Warn().Msg("No JWT_SECRET or JWKS_URL configured, API is unauthenticated")
		return nil, func() {}, nil
	}
}
