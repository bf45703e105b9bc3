package github

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"testing"
)

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestVerify(t *testing.T) {
	secret := "test-secret"
	verifier := NewVerifier(secret, true, discardLogger())

	payload := []byte(`{"action": "opened"}`)
	validSignature := signPayload(secret, payload)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		wantErr   error
	}{
		{
			name:      "valid signature",
			payload:   payload,
			signature: validSignature,
			wantErr:   nil,
		},
		{
			name:      "missing signature",
			payload:   payload,
			signature: "",
			wantErr:   ErrMissingSignature,
		},
		{
			name:      "invalid format",
			payload:   payload,
			signature: "invalid",
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "wrong algorithm",
			payload:   payload,
			signature: "sha1=abc123",
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "signature for different payload",
			payload:   payload,
			signature: signPayload(secret, []byte(`{"action": "closed"}`)),
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "signature with wrong secret",
			payload:   payload,
			signature: signPayload("other-secret", payload),
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "truncated signature",
			payload:   payload,
			signature: validSignature[:len(validSignature)-2],
			wantErr:   ErrInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifier.Verify(tt.payload, tt.signature)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("flipped payload byte", func(t *testing.T) {
		mutated := append([]byte(nil), payload...)
		mutated[3] ^= 0x01
		if err := verifier.Verify(mutated, validSignature); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("Verify() = %v, want ErrInvalidSignature", err)
		}
	})

	t.Run("flipped signature hex digit", func(t *testing.T) {
		sig := []byte(validSignature)
		last := sig[len(sig)-1]
		if last == 'a' {
			sig[len(sig)-1] = 'b'
		} else {
			sig[len(sig)-1] = 'a'
		}
		if err := verifier.Verify(payload, string(sig)); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("Verify() = %v, want ErrInvalidSignature", err)
		}
	})

	t.Run("invalid hex", func(t *testing.T) {
		if err := verifier.Verify(payload, "sha256=zzzz"); err == nil {
			t.Error("Verify() expected error for invalid hex")
		}
	})
}

func TestVerifyNoSecret(t *testing.T) {
	payload := []byte(`{"action": "opened"}`)

	t.Run("production fails closed", func(t *testing.T) {
		verifier := NewVerifier("", true, discardLogger())
		if err := verifier.Verify(payload, ""); !errors.Is(err, ErrNoSecret) {
			t.Errorf("Verify() = %v, want ErrNoSecret", err)
		}
	})

	t.Run("development allows with warning", func(t *testing.T) {
		verifier := NewVerifier("", false, discardLogger())
		if err := verifier.Verify(payload, ""); err != nil {
			t.Errorf("Verify() unexpected error = %v", err)
		}
		// Even a garbage signature is allowed when no secret is configured.
		if err := verifier.Verify(payload, "sha256=bogus"); err != nil {
			t.Errorf("Verify() unexpected error = %v", err)
		}
	})
}

func TestShouldProcess(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		action    string
		want      bool
	}{
		{"pull_request opened", "pull_request", "opened", true},
		{"pull_request reopened", "pull_request", "reopened", true},
		{"pull_request synchronize", "pull_request", "synchronize", true},
		{"pull_request closed", "pull_request", "closed", false},
		{"pull_request labeled", "pull_request", "labeled", false},
		{"push event", "push", "", false},
		{"issue_comment event", "issue_comment", "created", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldProcess(tt.eventType, tt.action); got != tt.want {
				t.Errorf("ShouldProcess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePullRequestEvent(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		payload := []byte(`{
			"action": "opened",
			"number": 42,
			"pull_request": {
				"id": 123,
				"number": 42,
				"title": "Add rate limiter",
				"body": "Implements a token bucket.",
				"additions": 120,
				"deletions": 4,
				"changed_files": 3,
				"user": {"login": "octocat"},
				"head": {"sha": "abc123", "ref": "feature/limiter"},
				"base": {"sha": "def456", "ref": "main"}
			},
			"repository": {
				"id": 789,
				"name": "widgets",
				"full_name": "acme/widgets",
				"default_branch": "main",
				"owner": {"login": "acme"}
			}
		}`)

		event, err := ParsePullRequestEvent(payload)
		if err != nil {
			t.Fatalf("ParsePullRequestEvent() error = %v", err)
		}

		if event.Action != "opened" {
			t.Errorf("Action = %v, want opened", event.Action)
		}
		if event.PullRequest.Number != 42 {
			t.Errorf("Number = %v, want 42", event.PullRequest.Number)
		}
		if event.PullRequest.ChangedFiles != 3 {
			t.Errorf("ChangedFiles = %v, want 3", event.PullRequest.ChangedFiles)
		}
		if event.Repository.Owner.Login != "acme" {
			t.Errorf("Owner = %v, want acme", event.Repository.Owner.Login)
		}
		if event.PullRequest.Base.Ref != "main" {
			t.Errorf("Base.Ref = %v, want main", event.PullRequest.Base.Ref)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		if _, err := ParsePullRequestEvent([]byte(`{invalid`)); err == nil {
			t.Error("ParsePullRequestEvent() expected error for invalid JSON")
		}
	})

	t.Run("missing pull_request", func(t *testing.T) {
		if _, err := ParsePullRequestEvent([]byte(`{"action": "opened", "repository": {"owner": {"login": "acme"}}}`)); err == nil {
			t.Error("ParsePullRequestEvent() expected error for missing pull_request")
		}
	})

	t.Run("missing repository owner", func(t *testing.T) {
		if _, err := ParsePullRequestEvent([]byte(`{"action": "opened", "pull_request": {"number": 1}}`)); err == nil {
			t.Error("ParsePullRequestEvent() expected error for missing repository")
		}
	})
}
