// Package server provides the HTTP surface of the PR assistant.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prassist/prassist/config"
	"github.com/prassist/prassist/github"
)

// analysisTimeout bounds one background analysis so an abandoned event cannot
// leak its goroutine forever.
const analysisTimeout = 5 * time.Minute

// EventAnalyzer processes one verified pull-request event.
type EventAnalyzer interface {
	Analyze(ctx context.Context, event *github.WebhookEvent) error
}

// webhookResponse is the JSON body returned for webhook deliveries.
type webhookResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Event    string `json:"event,omitempty"`
	Delivery string `json:"delivery,omitempty"`
}

// Server routes webhook deliveries to the analyzer.
//
// Deliveries are acknowledged with 202 before the expensive work runs; the
// analysis itself happens in a background goroutine. This targets a long-lived
// server process where background work survives the response flush (a
// serverless host would need the synchronous variant instead).
type Server struct {
	verifier *github.Verifier
	analyzer EventAnalyzer
	settings *config.Settings
	logger   *slog.Logger

	// wg tracks in-flight background analyses so shutdown (and tests) can
	// wait for them.
	wg sync.WaitGroup
}

// New creates a Server.
func New(verifier *github.Verifier, analyzer EventAnalyzer, settings *config.Settings, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		verifier: verifier,
		analyzer: analyzer,
		settings: settings,
		logger:   logger,
	}
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/webhook/github", s.handleWebhook)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// Wait blocks until all in-flight background analyses complete.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.jsonResponse(w, http.StatusNotFound, webhookResponse{
			Success: false,
			Message: "route " + r.Method + " " + r.URL.Path + " not found",
		})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"name":   "GitHub PR Assistant",
		"status": "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":     true,
		"service":     "GitHub PR Assistant",
		"status":      "healthy",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": s.settings.Environment,
		"config": map[string]any{
			"model":             s.settings.Model,
			"maxFilesToAnalyze": s.settings.MaxFiles,
			"githubAuthSet":     s.settings.GitHubToken != "" || s.settings.UseAppAuth(),
			"anthropicKeySet":   s.settings.AnthropicAPIKey != "",
			"webhookSecretSet":  s.settings.WebhookSecret != "",
		},
	})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error("failed to read body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	eventType := r.Header.Get("X-GitHub-Event")
	delivery := r.Header.Get("X-GitHub-Delivery")
	logger := s.logger.With("event", eventType, "delivery", delivery)
	logger.Info("received webhook", "size", len(payload))

	// Signature verification runs on the raw bytes, before any JSON parsing.
	if err := s.verifier.Verify(payload, r.Header.Get("X-Hub-Signature-256")); err != nil {
		switch {
		case errors.Is(err, github.ErrNoSecret):
			logger.Error("webhook secret not configured in production")
			s.jsonResponse(w, http.StatusInternalServerError, webhookResponse{
				Success: false,
				Message: "GITHUB_WEBHOOK_SECRET is not configured",
			})
		default:
			logger.Warn("signature verification failed", "error", err)
			s.jsonResponse(w, http.StatusUnauthorized, webhookResponse{
				Success: false,
				Message: "invalid webhook signature",
			})
		}
		return
	}

	if eventType == "ping" {
		s.jsonResponse(w, http.StatusOK, webhookResponse{Success: true, Message: "pong", Event: eventType, Delivery: delivery})
		return
	}

	if eventType != "pull_request" {
		logger.Info("no handler for event")
		s.acknowledge(w, "event ignored", eventType, delivery)
		return
	}

	event, err := github.ParsePullRequestEvent(payload)
	if err != nil {
		logger.Error("failed to parse event", "error", err)
		http.Error(w, "failed to parse event", http.StatusBadRequest)
		return
	}

	if !github.ShouldProcess(eventType, event.Action) {
		logger.Info("skipping event", "action", event.Action)
		s.acknowledge(w, "event skipped", eventType, delivery)
		return
	}

	logger.Info("starting analysis",
		"repo", event.Repository.FullName,
		"pr", event.PullRequest.Number,
		"action", event.Action,
	)

	// Acknowledge before the expensive work; GitHub does not wait for results.
	s.acknowledge(w, "analysis started", eventType, delivery)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
		defer cancel()

		if err := s.analyzer.Analyze(ctx, event); err != nil {
			logger.Error("analysis failed", "error", err)
		}
	}()
}

func (s *Server) acknowledge(w http.ResponseWriter, message, eventType, delivery string) {
	s.jsonResponse(w, http.StatusAccepted, webhookResponse{
		Success:  true,
		Message:  message,
		Event:    eventType,
		Delivery: delivery,
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
