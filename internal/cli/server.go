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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cohort-portal-service/internal/config"
	"cohort-portal-service/internal/identity"
	transport "cohort-portal-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the portal API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, logger, b, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer b.Close()

	if cfg.Auth.TokenSecret == "" {
		return errors.New("TOKEN_SECRET is required to verify sign-in tokens")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	cookieSecret := cfg.Auth.CookieSecret
	if cookieSecret == "" {
		logger.Warn("COOKIE_SECRET not set, deriving cookie keys from TOKEN_SECRET")
		cookieSecret = cfg.Auth.TokenSecret
	}

	api := transport.NewServer(
		b.services(cfg, logger),
		identity.NewTokenVerifier(cfg.Auth.TokenSecret, cfg.Auth.Issuer),
		transport.Options{
			CookieSecret: cookieSecret,
			SecureCookie: cfg.Auth.SecureCookie,
			CookieMaxAge: config.TTLDuration(cfg.Auth.TokenTTL, time.Hour),
		},
		logger,
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting cohort portal", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("listen: %w", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		return err
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
