package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/prassist/prassist/github"
	"gopkg.in/yaml.v3"
)

// RepoConfigPath is the path of the per-repository config file.
const RepoConfigPath = ".github/pr-assistant.yml"

// RepoParseError indicates the config file exists but contains invalid
// content. This is distinct from "file not found", which yields defaults.
type RepoParseError struct {
	Path string
	Err  error
}

func (e *RepoParseError) Error() string {
	return fmt.Sprintf("invalid config at %s: %v", e.Path, e.Err)
}

func (e *RepoParseError) Unwrap() error {
	return e.Err
}

// RepoConfig is the per-repository configuration for the assistant.
type RepoConfig struct {
	// Enabled determines if analysis runs for this repository.
	Enabled bool `yaml:"enabled"`
	// Exclude is a list of glob patterns for files to drop from the prompt.
	// Example: ["vendor/**", "*.gen.go", "docs/**"]
	Exclude []string `yaml:"exclude"`
	// Instructions provides custom guidance appended to the system prompt.
	Instructions string `yaml:"instructions"`
}

// DefaultRepoConfig returns the configuration used when a repository carries
// no config file.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{Enabled: true}
}

// ParseRepoConfig parses a repo config from YAML content.
func ParseRepoConfig(content []byte) (*RepoConfig, error) {
	cfg := DefaultRepoConfig()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// ShouldExcludeFile returns true if the file path matches any exclude pattern.
func (c *RepoConfig) ShouldExcludeFile(path string) bool {
	for _, pattern := range c.Exclude {
		if strings.Contains(pattern, "**") {
			prefix, suffix, _ := strings.Cut(pattern, "**")
			if prefix != "" && strings.HasPrefix(path, prefix) {
				if suffix == "" || strings.HasSuffix(path, strings.TrimPrefix(suffix, "/")) {
					return true
				}
			}
			// "vendor/**" also hides the directory entry itself.
			if prefix != "" && path == strings.TrimSuffix(prefix, "/") {
				return true
			}
		}

		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}

		// Match the bare filename too, for patterns like "*.gen.go".
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}
	return false
}

// Loader fetches per-repository configuration through the GitHub API.
type Loader struct {
	client *github.Client
}

// NewLoader creates a repo config loader.
func NewLoader(client *github.Client) *Loader {
	return &Loader{client: client}
}

// Load fetches and parses the config file from a repository. A missing file
// yields the defaults; an invalid file yields a RepoParseError so callers can
// distinguish user error from fetch failure.
func (l *Loader) Load(ctx context.Context, owner, repo, ref string) (*RepoConfig, error) {
	content, err := l.client.FetchFileContent(ctx, owner, repo, RepoConfigPath, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch config: %w", err)
	}
	if content == "" {
		return DefaultRepoConfig(), nil
	}

	cfg, err := ParseRepoConfig([]byte(content))
	if err != nil {
		return nil, &RepoParseError{Path: RepoConfigPath, Err: err}
	}
	return cfg, nil
}
