// Package github provides GitHub API access and webhook handling for the PR assistant.
package github

// WebhookEvent represents a pull_request webhook payload.
type WebhookEvent struct {
	Action      string       `json:"action"`
	Number      int          `json:"number"`
	PullRequest *PullRequest `json:"pull_request,omitempty"`
	Repository  *Repository  `json:"repository"`
	Sender      *User        `json:"sender"`
}

// PullRequest represents a GitHub pull request.
type PullRequest struct {
	ID           int64  `json:"id"`
	Number       int    `json:"number"`
	State        string `json:"state"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	Head         *Ref   `json:"head"`
	Base         *Ref   `json:"base"`
	User         *User  `json:"user"`
	HTMLURL      string `json:"html_url"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	ChangedFiles int    `json:"changed_files"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// Ref represents a git reference (branch/commit).
type Ref struct {
	Ref  string      `json:"ref"`
	SHA  string      `json:"sha"`
	Repo *Repository `json:"repo,omitempty"`
}

// Repository represents a GitHub repository.
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Owner         *User  `json:"owner"`
	Private       bool   `json:"private"`
	DefaultBranch string `json:"default_branch"`
	HTMLURL       string `json:"html_url"`
}

// User represents a GitHub user or organization.
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Type  string `json:"type"`
}

// pullRequestFile is the wire form of a changed file from the pulls API.
type pullRequestFile struct {
	SHA       string `json:"sha"`
	Filename  string `json:"filename"`
	Status    string `json:"status"` // added, removed, modified, renamed, copied, changed, unchanged
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Patch     string `json:"patch,omitempty"`
}

// ChangedFile is a changed file prepared for analysis. The patch text is
// truncated to the configured limit; binary files carry a placeholder.
type ChangedFile struct {
	Filename  string
	Status    string
	Additions int
	Deletions int
	Changes   int
	Patch     string
}

// commit is the wire form of a PR commit from the pulls API.
type commit struct {
	SHA    string        `json:"sha"`
	Commit *commitDetail `json:"commit"`
	Author *User         `json:"author,omitempty"` // GitHub user (may be nil for non-users)
}

type commitDetail struct {
	Message string        `json:"message"`
	Author  *commitAuthor `json:"author,omitempty"`
}

type commitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

// CommitSummary is a PR commit prepared for analysis (7-char SHA).
type CommitSummary struct {
	SHA     string
	Message string
	Author  string
	Date    string
}

// IssueComment represents a comment on an issue or PR.
type IssueComment struct {
	ID        int64  `json:"id"`
	NodeID    string `json:"node_id"`
	User      *User  `json:"user"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	HTMLURL   string `json:"html_url"`
}

// fileContent represents a file from the contents API.
type fileContent struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Size     int    `json:"size"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
}
