// Package main runs the GitHub PR assistant webhook server.
//
// Configuration via environment variables:
//
//	GITHUB_TOKEN            - personal access token for the repository host
//	GITHUB_APP_ID           - GitHub App ID (App auth, alternative to token)
//	GITHUB_INSTALLATION_ID  - GitHub App installation ID
//	GITHUB_PRIVATE_KEY      - GitHub App private key in PEM format
//	GITHUB_WEBHOOK_SECRET   - webhook signature verification secret
//	ANTHROPIC_API_KEY       - API key for the analysis model
//	ANALYSIS_MODEL          - model identifier (optional)
//	MAX_FILES_TO_ANALYZE    - changed-file cap per PR (default: 15)
//	MAX_DIFF_CHARS_PER_FILE - patch length cap per file (default: 3000)
//	ENVIRONMENT             - "production" or "development" (default)
//	PORT                    - HTTP server port (default: 8080)
//
// Usage:
//
//	go run cmd/server/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prassist/prassist/ai"
	"github.com/prassist/prassist/analysis"
	"github.com/prassist/prassist/config"
	"github.com/prassist/prassist/github"
	"github.com/prassist/prassist/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	settings, err := config.FromEnv()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	githubClient := settings.NewGitHubClient()
	aiClient := ai.NewClient(settings.AnthropicAPIKey, settings.Model, logger)
	analyzer := analysis.NewAnalyzer(githubClient, aiClient, logger)
	verifier := github.NewVerifier(settings.WebhookSecret, settings.IsProduction(), logger)

	srv := server.New(verifier, analyzer, settings, logger)

	httpServer := &http.Server{
		Addr:         ":" + settings.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server",
			"port", settings.Port,
			"environment", settings.Environment,
			"model", settings.Model,
			"app_auth", settings.UseAppAuth(),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	// Let in-flight analyses finish: an acknowledged delivery is never retried
	// by this process.
	srv.Wait()
}
