// Package config handles environment settings and per-repository configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/prassist/prassist/ai"
	"github.com/prassist/prassist/github"
)

// Settings holds the process configuration, read once at startup. Credentials
// are not validated here; each client fails at the first operation that needs
// a missing one.
type Settings struct {
	// GitHubToken is a personal access token. Used when the App credentials
	// below are not set.
	GitHubToken string
	// GitHubAppID, GitHubInstallationID and GitHubPrivateKey select GitHub App
	// installation auth when all three are present.
	GitHubAppID          int64
	GitHubInstallationID int64
	GitHubPrivateKey     []byte

	WebhookSecret   string
	AnthropicAPIKey string
	Model           string

	MaxFiles     int
	MaxDiffChars int

	Environment string
	Port        string
}

// FromEnv reads settings from the environment. There is no hot-reload; the
// returned struct is the configuration for the lifetime of the process.
func FromEnv() (*Settings, error) {
	s := &Settings{
		GitHubToken:      os.Getenv("GITHUB_TOKEN"),
		GitHubPrivateKey: []byte(os.Getenv("GITHUB_PRIVATE_KEY")),
		WebhookSecret:    os.Getenv("GITHUB_WEBHOOK_SECRET"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		Model:            os.Getenv("ANALYSIS_MODEL"),
		Environment:      os.Getenv("ENVIRONMENT"),
		Port:             os.Getenv("PORT"),
	}

	if s.Model == "" {
		s.Model = ai.DefaultModel
	}
	if s.Environment == "" {
		s.Environment = "development"
	}
	if s.Port == "" {
		s.Port = "8080"
	}

	var err error
	if s.GitHubAppID, err = envInt64("GITHUB_APP_ID"); err != nil {
		return nil, err
	}
	if s.GitHubInstallationID, err = envInt64("GITHUB_INSTALLATION_ID"); err != nil {
		return nil, err
	}

	if s.MaxFiles, err = envInt("MAX_FILES_TO_ANALYZE", github.DefaultMaxFiles); err != nil {
		return nil, err
	}
	if s.MaxDiffChars, err = envInt("MAX_DIFF_CHARS_PER_FILE", github.DefaultMaxDiffChars); err != nil {
		return nil, err
	}

	return s, nil
}

// IsProduction reports whether the runtime environment is production.
func (s *Settings) IsProduction() bool {
	return s.Environment == "production"
}

// UseAppAuth reports whether GitHub App installation auth is configured.
func (s *Settings) UseAppAuth() bool {
	return s.GitHubAppID != 0 && s.GitHubInstallationID != 0 && len(s.GitHubPrivateKey) > 0
}

// NewGitHubClient builds the repository client for these settings.
func (s *Settings) NewGitHubClient() *github.Client {
	opts := github.Options{MaxFiles: s.MaxFiles, MaxDiffChars: s.MaxDiffChars}
	if s.UseAppAuth() {
		return github.NewAppClient(s.GitHubAppID, s.GitHubInstallationID, s.GitHubPrivateKey, opts)
	}
	return github.NewTokenClient(s.GitHubToken, opts)
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func envInt64(key string) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
