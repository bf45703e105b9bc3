package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
)

const defaultBaseURL = "https://api.github.com"

// CommentMarker is the hidden token prefixed to every bot-authored comment.
// It is the sole mechanism for idempotent comment upsert and must never change:
// previously posted comments are located by it.
const CommentMarker = "<!-- github-pr-assistant -->"

// PatchPlaceholder replaces the patch text for binary files and other files
// GitHub returns no diff for.
const PatchPlaceholder = "(binary or no diff available)"

const (
	// DefaultMaxFiles is the maximum number of changed files sent for analysis.
	DefaultMaxFiles = 15
	// DefaultMaxDiffChars is the maximum patch length kept per file.
	DefaultMaxDiffChars = 3000
)

// Options configures a Client.
type Options struct {
	// MaxFiles caps how many changed files ListPullRequestFiles returns.
	// Zero means DefaultMaxFiles.
	MaxFiles int
	// MaxDiffChars caps the patch length per file. Zero means DefaultMaxDiffChars.
	MaxDiffChars int
	// BaseURL overrides the GitHub API base URL. Used in tests.
	BaseURL string
}

// Client provides methods to interact with the GitHub REST API.
//
// The underlying HTTP client is constructed lazily on first use and shared for
// the lifetime of the process; it is safe for concurrent use.
type Client struct {
	baseURL      string
	maxFiles     int
	maxDiffChars int

	token          string
	appID          int64
	installationID int64
	privateKey     []byte

	initOnce   sync.Once
	httpClient *http.Client
	initErr    error
}

// NewTokenClient creates a client authenticated with a personal access token.
func NewTokenClient(token string, opts Options) *Client {
	c := newClient(opts)
	c.token = token
	return c
}

// NewAppClient creates a client authenticated as a GitHub App installation.
// The privateKey is the PEM-encoded private key of the GitHub App.
func NewAppClient(appID, installationID int64, privateKey []byte, opts Options) *Client {
	c := newClient(opts)
	c.appID = appID
	c.installationID = installationID
	c.privateKey = privateKey
	return c
}

func newClient(opts Options) *Client {
	c := &Client{
		baseURL:      opts.BaseURL,
		maxFiles:     opts.MaxFiles,
		maxDiffChars: opts.MaxDiffChars,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.maxFiles <= 0 {
		c.maxFiles = DefaultMaxFiles
	}
	if c.maxDiffChars <= 0 {
		c.maxDiffChars = DefaultMaxDiffChars
	}
	return c
}

// client returns the shared HTTP client, constructing it on first use.
func (c *Client) client() (*http.Client, error) {
	c.initOnce.Do(func() {
		if c.appID != 0 {
			transport, err := ghinstallation.New(http.DefaultTransport, c.appID, c.installationID, c.privateKey)
			if err != nil {
				c.initErr = fmt.Errorf("failed to create installation transport: %w", err)
				return
			}
			c.httpClient = &http.Client{Transport: transport, Timeout: 30 * time.Second}
			return
		}
		if c.token == "" {
			c.initErr = errors.New("no GitHub credentials configured")
			return
		}
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	})
	return c.httpClient, c.initErr
}

// do issues a request and decodes the JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	client, err := c.client()
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api: status %d, body: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 API response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// ListPullRequestFiles fetches the files changed in a pull request, prepared
// for analysis: only the first page (up to 100 files) is fetched, files matching
// the exclude predicate (nil for none) are dropped, the remainder is truncated
// to MaxFiles preserving API order, and each patch is truncated to MaxDiffChars.
// Exclusion runs before the cap so excluded files never consume the budget.
func (c *Client) ListPullRequestFiles(ctx context.Context, owner, repo string, prNumber int, exclude func(path string) bool) ([]ChangedFile, error) {
	var files []pullRequestFile
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files?per_page=100", owner, repo, prNumber)
	if err := c.do(ctx, http.MethodGet, path, nil, &files); err != nil {
		return nil, fmt.Errorf("failed to fetch files: %w", err)
	}

	changed := make([]ChangedFile, 0, min(len(files), c.maxFiles))
	for _, f := range files {
		if exclude != nil && exclude(f.Filename) {
			continue
		}
		if len(changed) == c.maxFiles {
			break
		}
		patch := f.Patch
		if patch == "" {
			patch = PatchPlaceholder
		} else if len(patch) > c.maxDiffChars {
			patch = patch[:c.maxDiffChars]
		}
		changed = append(changed, ChangedFile{
			Filename:  f.Filename,
			Status:    f.Status,
			Additions: f.Additions,
			Deletions: f.Deletions,
			Changes:   f.Changes,
			Patch:     patch,
		})
	}

	return changed, nil
}

// ListPullRequestCommits fetches the commits of a pull request (up to 100) and
// summarizes them: SHAs shortened to 7 characters, "Unknown" when the commit
// carries no author name.
func (c *Client) ListPullRequestCommits(ctx context.Context, owner, repo string, prNumber int) ([]CommitSummary, error) {
	var commits []commit
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/commits?per_page=100", owner, repo, prNumber)
	if err := c.do(ctx, http.MethodGet, path, nil, &commits); err != nil {
		return nil, fmt.Errorf("failed to fetch commits: %w", err)
	}

	summaries := make([]CommitSummary, len(commits))
	for i, cm := range commits {
		sha := cm.SHA
		if len(sha) > 7 {
			sha = sha[:7]
		}
		summary := CommitSummary{SHA: sha, Author: "Unknown"}
		if cm.Commit != nil {
			summary.Message = cm.Commit.Message
			if cm.Commit.Author != nil {
				if cm.Commit.Author.Name != "" {
					summary.Author = cm.Commit.Author.Name
				}
				summary.Date = cm.Commit.Author.Date
			}
		}
		summaries[i] = summary
	}

	return summaries, nil
}

// commentRequest is the body for creating or updating an issue comment.
type commentRequest struct {
	Body string `json:"body"`
}

// UpsertComment creates or updates the bot's comment on a pull request.
// Existing comments are scanned for CommentMarker; a match is updated in place,
// otherwise a new comment is created. The marker is prefixed to the posted
// body, guaranteeing at most one bot comment per PR however many times the
// event fires.
func (c *Client) UpsertComment(ctx context.Context, owner, repo string, prNumber int, body string) error {
	var existing []IssueComment
	listPath := fmt.Sprintf("/repos/%s/%s/issues/%d/comments?per_page=100", owner, repo, prNumber)
	if err := c.do(ctx, http.MethodGet, listPath, nil, &existing); err != nil {
		return fmt.Errorf("failed to list comments: %w", err)
	}

	fullBody := CommentMarker + "\n" + body

	for _, comment := range existing {
		if !strings.Contains(comment.Body, CommentMarker) {
			continue
		}
		updatePath := fmt.Sprintf("/repos/%s/%s/issues/comments/%d", owner, repo, comment.ID)
		if err := c.do(ctx, http.MethodPatch, updatePath, commentRequest{Body: fullBody}, nil); err != nil {
			return fmt.Errorf("failed to update comment %d: %w", comment.ID, err)
		}
		return nil
	}

	createPath := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, prNumber)
	if err := c.do(ctx, http.MethodPost, createPath, commentRequest{Body: fullBody}, nil); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// labelsRequest is the body for adding labels to an issue.
type labelsRequest struct {
	Labels []string `json:"labels"`
}

// AddLabels adds labels to a pull request. Labels that do not exist in the
// repository cause an API error; callers treat label application as
// best-effort.
func (c *Client) AddLabels(ctx context.Context, owner, repo string, prNumber int, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/labels", owner, repo, prNumber)
	if err := c.do(ctx, http.MethodPost, path, labelsRequest{Labels: labels}, nil); err != nil {
		return fmt.Errorf("failed to add labels: %w", err)
	}
	return nil
}

// FetchFileContent fetches a file from a repository via the contents API.
// Returns "" without error when the file does not exist.
func (c *Client) FetchFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	var content fileContent
	apiPath := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", owner, repo, path, ref)
	if err := c.do(ctx, http.MethodGet, apiPath, nil, &content); err != nil {
		if IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to fetch file: %w", err)
	}

	if content.Encoding != "base64" {
		return "", fmt.Errorf("unsupported encoding: %s", content.Encoding)
	}

	// The contents API wraps base64 at 60 columns.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 content: %w", err)
	}

	return string(decoded), nil
}
