// Package dropsdk is a thin client for the Dropbox HTTP API, covering the
// calls the mirror needs: folder management, file transfer (single-shot and
// session-chunked), revision history and restore, and the OAuth refresh flow.
package dropsdk

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/imroc/req/v3"

	"github.com/boxmirror/boxmirror/internal/version"
)

const (
	DefaultAPIBaseURL     = "https://api.dropboxapi.com/2"
	DefaultContentBaseURL = "https://content.dropboxapi.com/2"
	DefaultTokenURL       = "https://api.dropbox.com/oauth2/token"

	// UploadChunkSize is the session-upload threshold and chunk size.
	UploadChunkSize = int64(4 * 1024 * 1024)

	headerAPIArg      = "Dropbox-API-Arg"
	headerAPIResult   = "Dropbox-API-Result"
	headerSelectAdmin = "Dropbox-API-Select-Admin"
	headerRetryAfter  = "Retry-After"

	// 5 attempts total for paged RPC calls, per the retry policy.
	rpcRetryCount   = 4
	retryBackoffMin = 1 * time.Second
	retryBackoffMax = 16 * time.Second
)

var userAgent = fmt.Sprintf("%s/%s (%s; %s)", version.AppName, version.Version, runtime.GOOS, runtime.GOARCH)

// Config carries credentials and endpoint overrides. The zero base URLs mean
// production Dropbox; tests point them at local servers.
type Config struct {
	AccessToken  string
	RefreshToken string
	AppKey       string
	AppSecret    string
	// SelectAdmin, when set, is sent as the team admin header on RPC calls.
	SelectAdmin string

	APIBaseURL     string
	ContentBaseURL string
	TokenURL       string
}

// Client talks to the Dropbox API. RPC calls (JSON in/out) retry on 429/5xx
// honoring Retry-After with capped exponential backoff; content calls
// (uploads/downloads) never retry internally; that policy belongs to the
// sync pass.
type Client struct {
	cfg     *Config
	rpc     *req.Client
	content *req.Client
	token   string
}

func New(cfg *Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.ContentBaseURL == "" {
		cfg.ContentBaseURL = DefaultContentBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}

	rpc := req.C().
		SetBaseURL(cfg.APIBaseURL).
		SetUserAgent(userAgent).
		SetTimeout(1 * time.Minute).
		SetCommonRetryCount(rpcRetryCount).
		SetCommonRetryCondition(shouldRetry).
		SetCommonRetryInterval(retryInterval)

	if cfg.SelectAdmin != "" {
		rpc.SetCommonHeader(headerSelectAdmin, cfg.SelectAdmin)
	}

	content := req.C().
		SetBaseURL(cfg.ContentBaseURL).
		SetUserAgent(userAgent).
		SetTimeout(10 * time.Minute)

	return &Client{
		cfg:     cfg,
		rpc:     rpc,
		content: content,
	}
}

// shouldRetry keeps transport errors out of the retry loop: only rate limits
// and server errors are retried here.
func shouldRetry(resp *req.Response, err error) bool {
	if err != nil || resp.Response == nil {
		return false
	}
	return resp.StatusCode == 429 || resp.StatusCode >= 500
}

// retryInterval honors Retry-After when the server sends one, else backs off
// exponentially from 1s to a 16s cap.
func retryInterval(resp *req.Response, attempt int) time.Duration {
	if resp != nil && resp.Response != nil {
		if ra := resp.Header.Get(headerRetryAfter); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs >= 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}

	backoff := retryBackoffMin
	for i := 1; i < attempt && backoff < retryBackoffMax; i++ {
		backoff *= 2
	}
	return min(backoff, retryBackoffMax)
}

func (c *Client) setToken(token string) {
	c.token = token
	c.rpc.SetCommonBearerAuthToken(token)
	c.content.SetCommonBearerAuthToken(token)
}

// WhoAmI validates the credentials by fetching the account behind the token.
func (c *Client) WhoAmI(ctx context.Context) (*Account, error) {
	var account Account

	resp, err := c.rpc.R().
		SetContext(ctx).
		SetBodyJsonString("null").
		SetSuccessResult(&account).
		Post("/users/get_current_account")

	if err := apiError("get current account", resp, err); err != nil {
		return nil, err
	}
	return &account, nil
}
