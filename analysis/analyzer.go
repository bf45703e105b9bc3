package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prassist/prassist/ai"
	"github.com/prassist/prassist/config"
	"github.com/prassist/prassist/github"
	"golang.org/x/sync/errgroup"
)

// Completer is the language-model surface the analyzer depends on.
type Completer interface {
	Analyze(ctx context.Context, systemPrompt, userPrompt string, opts ai.Options) (string, error)
	Model() string
}

// Analyzer orchestrates one pull-request analysis: fetch context, call the
// model, parse, publish. It holds no per-event state; concurrent events are
// independent flows sharing only the read-only client handles.
type Analyzer struct {
	githubClient *github.Client
	completer    Completer
	configLoader *config.Loader
	logger       *slog.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(githubClient *github.Client, completer Completer, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		githubClient: githubClient,
		completer:    completer,
		configLoader: config.NewLoader(githubClient),
		logger:       logger,
	}
}

// Analyze processes one verified pull_request event end to end. AI and parse
// failures degrade to a published failure comment and count as handled; only
// failures to fetch context or publish the comment are returned as errors.
// Nothing is retried; GitHub's own redelivery is the only retry path.
func (a *Analyzer) Analyze(ctx context.Context, event *github.WebhookEvent) error {
	pr := event.PullRequest
	owner := event.Repository.Owner.Login
	repo := event.Repository.Name

	logger := a.logger.With("repo", owner+"/"+repo, "pr", pr.Number)
	logger.Info("analyzing pull request",
		"title", pr.Title,
		"action", event.Action,
		"additions", pr.Additions,
		"deletions", pr.Deletions,
		"changed_files", pr.ChangedFiles,
	)

	cfg, err := a.loadConfig(ctx, event, logger)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil // disabled by repo config
	}

	files, commits, err := a.fetchContext(ctx, owner, repo, pr.Number, cfg)
	if err != nil {
		return err
	}
	logger.Info("fetched PR context", "files", len(files), "commits", len(commits))

	systemPrompt := BuildSystemPrompt(cfg.Instructions)
	userPrompt := BuildUserPrompt(pr, event.Repository.FullName, files, commits)

	raw, err := a.completer.Analyze(ctx, systemPrompt, userPrompt, ai.Options{})
	if err != nil {
		// The PR author still gets feedback: publish the failure and stop.
		logger.Error("AI call failed", "error", err)
		return a.publish(ctx, owner, repo, pr.Number, FormatFailureComment(err.Error()))
	}

	report, err := ParseReport(raw)
	if err != nil {
		if !errors.Is(err, ai.ErrNoStructuredResult) {
			return fmt.Errorf("unexpected parse failure: %w", err)
		}
		logger.Error("could not parse model response", "raw_preview", preview(raw, 200))
		return a.publish(ctx, owner, repo, pr.Number, FormatUnparsableComment(raw))
	}

	logger.Info("parsed analysis report",
		"risk_level", report.OverallRiskLevel,
		"production_risks", len(report.ProductionRisks),
		"breaking_changes", len(report.BreakingChanges),
		"labels", len(report.Labels),
	)

	body := FormatComment(report, a.completer.Model())
	if err := a.publish(ctx, owner, repo, pr.Number, body); err != nil {
		return err
	}

	// Labels are cosmetic relative to the comment: failures (for example a
	// label that does not exist in the repository) are logged and swallowed.
	if len(report.Labels) > 0 {
		if err := a.githubClient.AddLabels(ctx, owner, repo, pr.Number, report.Labels); err != nil {
			logger.Warn("could not apply labels", "labels", report.Labels, "error", err)
		} else {
			logger.Info("applied labels", "labels", report.Labels)
		}
	}

	logger.Info("analysis complete")
	return nil
}

// loadConfig loads the repo config. Returns (nil, nil) when analysis is
// disabled, and an error only for invalid config content.
func (a *Analyzer) loadConfig(ctx context.Context, event *github.WebhookEvent, logger *slog.Logger) (*config.RepoConfig, error) {
	ref := event.Repository.DefaultBranch
	cfg, err := a.configLoader.Load(ctx, event.Repository.Owner.Login, event.Repository.Name, ref)
	if err != nil {
		var parseErr *config.RepoParseError
		if errors.As(err, &parseErr) {
			logger.Error("invalid repo config, skipping analysis", "path", parseErr.Path, "error", parseErr.Err)
			return nil, parseErr
		}
		logger.Warn("failed to load repo config, using defaults", "error", err)
		cfg = config.DefaultRepoConfig()
	}

	if !cfg.Enabled {
		logger.Info("analysis disabled by repo config")
		return nil, nil
	}
	return cfg, nil
}

// fetchContext obtains changed files and commits. The two calls have no
// ordering dependency and run concurrently; both must succeed. Exclude globs
// are applied inside the file fetch, ahead of the MaxFiles cap.
func (a *Analyzer) fetchContext(ctx context.Context, owner, repo string, prNumber int, cfg *config.RepoConfig) ([]github.ChangedFile, []github.CommitSummary, error) {
	var exclude func(string) bool
	if len(cfg.Exclude) > 0 {
		exclude = cfg.ShouldExcludeFile
	}

	var (
		files   []github.ChangedFile
		commits []github.CommitSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		files, err = a.githubClient.ListPullRequestFiles(gctx, owner, repo, prNumber, exclude)
		return err
	})
	g.Go(func() error {
		var err error
		commits, err = a.githubClient.ListPullRequestCommits(gctx, owner, repo, prNumber)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch PR context: %w", err)
	}

	return files, commits, nil
}

func (a *Analyzer) publish(ctx context.Context, owner, repo string, prNumber int, body string) error {
	if err := a.githubClient.UpsertComment(ctx, owner, repo, prNumber, body); err != nil {
		return fmt.Errorf("failed to publish comment: %w", err)
	}
	return nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return truncateToRuneBoundary(s, n) + "..."
}
