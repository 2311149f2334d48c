package dropsdk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/boxmirror/boxmirror/internal/utils"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Authenticate obtains a bearer token and arms both HTTP clients with it.
// The refresh-token flow is preferred; a static access token is the
// fallback. Missing both is ErrNoCredentials.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.cfg.RefreshToken != "" && c.cfg.AppKey != "" && c.cfg.AppSecret != "" {
		token, err := c.refreshAccessToken(ctx)
		if err != nil {
			return err
		}
		slog.Debug("authenticated via refresh token", "token", utils.MaskSecret(token))
		c.setToken(token)
		return nil
	}

	if c.cfg.AccessToken != "" {
		slog.Debug("using static access token", "token", utils.MaskSecret(c.cfg.AccessToken))
		c.setToken(c.cfg.AccessToken)
		return nil
	}

	return ErrNoCredentials
}

// Reauthenticate refreshes the bearer token after an auth failure. Without
// refresh credentials the original auth error is terminal.
func (c *Client) Reauthenticate(ctx context.Context, cause error) error {
	if c.cfg.RefreshToken == "" || c.cfg.AppKey == "" || c.cfg.AppSecret == "" {
		return cause
	}

	token, err := c.refreshAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("token refresh after auth failure: %w", err)
	}
	c.setToken(token)
	return nil
}

func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	var tokens tokenResponse

	resp, err := c.rpc.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.AppKey, c.cfg.AppSecret).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": c.cfg.RefreshToken,
		}).
		SetSuccessResult(&tokens).
		Post(c.cfg.TokenURL)

	if err := apiError("oauth token refresh", resp, err); err != nil {
		return "", err
	}
	if tokens.AccessToken == "" {
		return "", fmt.Errorf("oauth token refresh: %w: response missing access_token", ErrAuth)
	}

	return tokens.AccessToken, nil
}
