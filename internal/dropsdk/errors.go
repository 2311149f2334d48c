package dropsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/imroc/req/v3"
)

var (
	// ErrNoCredentials means neither a static token nor a refresh triple is set.
	ErrNoCredentials = errors.New("dropsdk: no credentials configured")

	// ErrAuth marks expired or invalid credentials.
	ErrAuth = errors.New("dropsdk: authentication failed")

	// ErrInsufficientSpace is terminal: retrying cannot succeed until the
	// remote account frees space.
	ErrInsufficientSpace = errors.New("dropsdk: insufficient space in remote account")
)

// APIError is a remote rejection that is neither an auth nor a space
// problem. The server's error_summary is preserved.
type APIError struct {
	StatusCode int
	Summary    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dropsdk: api error (http %d): %s", e.StatusCode, e.Summary)
}

// TransportError wraps a network-level failure (connect, timeout). The
// caller may retry the operation on a later pass.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("dropsdk: %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// apiError classifies a finished request. Returns nil on success.
func apiError(op string, resp *req.Response, reqErr error) error {
	if reqErr != nil {
		return &TransportError{Op: op, Err: reqErr}
	}
	if !resp.IsErrorState() {
		return nil
	}

	summary := errorSummary(resp)
	switch {
	case resp.StatusCode == 401:
		return fmt.Errorf("%s: %w: %s", op, ErrAuth, summary)
	case strings.Contains(summary, "insufficient_space"):
		return fmt.Errorf("%s: %w", op, ErrInsufficientSpace)
	}

	return fmt.Errorf("%s: %w", op, &APIError{StatusCode: resp.StatusCode, Summary: summary})
}

// errorSummary pulls error_summary out of a Dropbox error body, falling back
// to the raw body when the payload isn't the usual JSON shape.
func errorSummary(resp *req.Response) string {
	body := resp.String()

	var payload struct {
		ErrorSummary string `json:"error_summary"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil && payload.ErrorSummary != "" {
		return payload.ErrorSummary
	}

	body = strings.TrimSpace(body)
	if len(body) > 300 {
		body = body[:300]
	}
	return body
}
