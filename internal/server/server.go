// Copyright 2025 ActiveMemb
// Licensed under the EUPL-1.2

// Package server wires the gate together and runs the HTTP server.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/activememb/membergate/internal/activecampaign"
	"github.com/activememb/membergate/internal/config"
	"github.com/activememb/membergate/internal/database"
	"github.com/activememb/membergate/internal/handlers"
	"github.com/activememb/membergate/internal/i18n"
	"github.com/activememb/membergate/internal/repository"
	"github.com/activememb/membergate/internal/services/access"
	"github.com/activememb/membergate/internal/services/email"
	"github.com/activememb/membergate/internal/sessions"
	"github.com/activememb/membergate/internal/token"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database (migrations run on open)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// Repository and services
	repo := repository.New(db)

	mailer, err := email.NewService(&cfg.SMTP, cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to init mail service: %w", err)
	}

	crm := activecampaign.NewClient(cfg.ActiveCampaign.URL, cfg.ActiveCampaign.APIKey,
		time.Duration(cfg.ActiveCampaign.Timeout)*time.Second)

	window := time.Duration(cfg.Gating.VerificationWindow) * time.Minute
	tokens := token.NewStore(repo, mailer, window)

	secure := cfg.TLS.Mode != "off" && !config.IsLocalhost(cfg.Server.Host)
	sess, err := sessions.NewManager(&cfg.Session, repo, secure)
	if err != nil {
		return fmt.Errorf("failed to init sessions: %w", err)
	}

	acc := access.NewService(repo, tokens, sess, crm)

	// Background sweep of expired verification tokens
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	startTokenSweep(sweepCtx, repo, time.Duration(cfg.Gating.SweepInterval)*time.Minute)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	setupMiddleware(e, cfg, sess)

	// Routes
	setupRoutes(e, cfg, repo, sess, acc, crm)

	// Start server
	return startWithGracefulShutdown(e, cfg)
}

func setupRoutes(e *echo.Echo, cfg *config.Config, repo *repository.Repository,
	sess *sessions.Manager, acc *access.Service, crm *activecampaign.Client,
) {
	h := handlers.New(cfg, repo, sess, acc, crm)

	e.GET("/health", h.Health)

	e.GET("/p/:slug", h.Gate)
	e.POST("/identify", h.Identify)
	e.POST("/logout", h.Logout)
	e.GET("/checkout/prefill", h.CheckoutPrefill)

	admin := e.Group("/admin", adminAuth(cfg))
	admin.GET("/pages", h.AdminListPages)
	admin.POST("/pages", h.AdminCreatePage)
	admin.GET("/pages/:slug", h.AdminGetPage)
	admin.PUT("/pages/:slug", h.AdminUpdatePage)
	admin.DELETE("/pages/:slug", h.AdminDeletePage)
	admin.GET("/logs", h.AdminListLogs)
	admin.GET("/tags", h.AdminListTags)
	admin.GET("/connection", h.AdminCheckConnection)
}

// startTokenSweep periodically deletes expired verification tokens. An
// interval of zero disables the sweep; expired tokens then only stop
// working, they are never removed.
func startTokenSweep(ctx context.Context, repo *repository.Repository, interval time.Duration) {
	if interval <= 0 {
		slog.Info("token sweep disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := repo.DeleteExpiredVerificationTokens(ctx, time.Now())
				if err != nil {
					slog.Error("token sweep failed", "error", err)
					continue
				}
				if n > 0 {
					slog.Info("swept expired verification tokens", "count", n)
				}
			}
		}
	}()
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	// Setup TLS
	tlsResult, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	// Channel for server errors
	errChan := make(chan error, 2)

	// HTTP redirect server for ACME mode
	var httpServer *http.Server

	switch tlsResult.Mode {
	case TLSModeOff:
		// Plain HTTP on configured port
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeACME:
		// HTTPS on :443
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, ":443", tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		// HTTP redirect server on :80
		httpServer = &http.Server{
			Addr:              ":80",
			Handler:           tlsResult.HTTPHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("HTTP→HTTPS redirect active", "addr", ":80")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeSelfSigned, TLSModeManual:
		// HTTPS on configured port
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, addr, tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown main server
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown main server", "error", err)
	}

	// Shutdown HTTP redirect server if running
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown HTTP redirect server", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}

// startTLSServer starts the Echo server with a custom TLS configuration.
func startTLSServer(e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	e.TLSServer.TLSConfig = tlsConfig
	return e.Server.Serve(e.TLSListener)
}
