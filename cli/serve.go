package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicalai/apiv1/assistant"
	"github.com/clinicalai/apiv1/config"
	"github.com/clinicalai/apiv1/dbhelper"
	"github.com/clinicalai/apiv1/logging"
	"github.com/clinicalai/apiv1/mailer"
	"github.com/clinicalai/apiv1/routes"
	"github.com/clinicalai/apiv1/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	mailTimeout     = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Env, cfg.LogFile)
		if err != nil {
			return fmt.Errorf("setting up logs: %w", err)
		}
		defer logger.Sync()

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := session.NewStore(cfg.VaultSessionTTL)
		if err != nil {
			return err
		}

		baseURL := cfg.PublicBaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
		}
		router := routes.NewRouter(routes.Deps{
			Store:               store,
			Sessions:            sessions,
			Assistant:           assistant.New(assistantOptions(cfg), store, logger),
			Mailer:              mailer.New(cfg.SendgridAPIKey, cfg.SendgridFromEmail, cfg.SendgridBaseURL, mailTimeout, logger),
			Logger:              logger,
			JWTSecret:           []byte(cfg.JWTSecretKey),
			AccessTokenDuration: cfg.AccessTokenDuration,
			AuthRateLimit:       cfg.AuthRateLimit,
			PublicBaseURL:       baseURL,
		})

		srv := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		serveErr := make(chan error, 1)
		go func() {
			logger.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
			serveErr <- srv.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and print the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Read(configFile)
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		version, dirty, err := store.SchemaVersion()
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d (dirty=%t)\n", cfg.DBPath, version, dirty)
		return nil
	},
}

func openStore(cfg *config.Config) (*dbhelper.Store, error) {
	store, err := dbhelper.OpenDB(cfg.DBPath, dbhelper.WithMaxLoginAttempts(cfg.MaxLoginAttempts))
	if err != nil {
		return nil, err
	}
	if err := store.InitDB(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return store, nil
}

func assistantOptions(cfg *config.Config) assistant.Options {
	return assistant.Options{
		HFAPIKey:         cfg.HFAPIKey,
		HFModel:          cfg.HFModel,
		HFBaseURL:        cfg.HFBaseURL,
		Timeout:          cfg.AssistantTimeout,
		WebSearchEnabled: cfg.WebSearchEnabled,
		WebSearchURL:     cfg.WebSearchURL,
	}
}
