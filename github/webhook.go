package github

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrInvalidSignature indicates the webhook signature verification failed.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMissingSignature indicates the webhook signature header is missing.
	ErrMissingSignature = errors.New("missing webhook signature")
	// ErrNoSecret indicates no webhook secret is configured in an environment
	// that requires one.
	ErrNoSecret = errors.New("webhook secret is not configured")
)

// Verifier authenticates inbound webhook deliveries against a shared secret.
//
// Verification operates on the exact raw request bytes and must run before the
// payload is parsed: re-serializing parsed JSON would change the byte content
// and break the signature.
type Verifier struct {
	secret     []byte
	production bool
	logger     *slog.Logger
}

// NewVerifier creates a verifier for the given shared secret. In production an
// empty secret fails closed; in development it allows all deliveries with a
// logged warning.
func NewVerifier(secret string, production bool, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		secret:     []byte(secret),
		production: production,
		logger:     logger,
	}
}

// Verify checks the X-Hub-Signature-256 header against the raw payload bytes.
// The header format is "sha256=<hex-encoded HMAC-SHA256>".
func (v *Verifier) Verify(payload []byte, signatureHeader string) error {
	if len(v.secret) == 0 {
		if v.production {
			return ErrNoSecret
		}
		v.logger.Warn("webhook secret not set, skipping signature check (dev mode)")
		return nil
	}

	if signatureHeader == "" {
		return ErrMissingSignature
	}

	parts := strings.SplitN(signatureHeader, "=", 2)
	if len(parts) != 2 || parts[0] != "sha256" {
		return ErrInvalidSignature
	}

	signature, err := hex.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	expected := mac.Sum(nil)

	// hmac.Equal is constant-time and rejects length mismatches without
	// reading past the shorter buffer.
	if !hmac.Equal(signature, expected) {
		return ErrInvalidSignature
	}

	return nil
}

// ParsePullRequestEvent parses a pull_request webhook payload.
func ParsePullRequestEvent(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	if event.PullRequest == nil {
		return nil, errors.New("payload is not a pull request event")
	}
	if event.Repository == nil || event.Repository.Owner == nil {
		return nil, errors.New("payload is missing repository owner")
	}

	return &event, nil
}

// ShouldProcess determines if an event should trigger an analysis.
// Returns true for pull_request events with actions: opened, reopened, synchronize.
func ShouldProcess(eventType, action string) bool {
	if eventType != "pull_request" {
		return false
	}

	switch action {
	case "opened", "reopened", "synchronize":
		return true
	default:
		return false
	}
}
