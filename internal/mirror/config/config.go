// Package config holds the explicit runtime configuration. It is built once
// at startup (the CLI binds flags, env and an optional .env file) and passed
// into components; nothing below the CLI reads the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boxmirror/boxmirror/internal/utils"
)

// Direction selects which of the two symmetric pipelines a pass runs.
type Direction string

const (
	// DirectionBackup mirrors local changes up to the remote folder.
	DirectionBackup Direction = "backup"
	// DirectionRestore mirrors the remote folder down to the local tree.
	DirectionRestore Direction = "restore"
)

// DefaultInterval is the sleep between passes when running as a daemon.
const DefaultInterval = 60 * time.Second

var (
	ErrNoWatchDir    = errors.New("config: watch dir is required")
	ErrNoRemoteDir   = errors.New("config: remote dir is required")
	ErrNoCredentials = errors.New("config: set ACCESS_TOKEN, or REFRESH_TOKEN with APP_KEY and APP_SECRET")
)

type Config struct {
	// WatchDir is the local root that gets mirrored.
	WatchDir string
	// RemoteDir is the remote root folder, e.g. "/Apps/MyBackup".
	RemoteDir string

	// AccessToken is a static bearer token. Used when no refresh triple is set.
	AccessToken string
	// RefreshToken with AppKey/AppSecret enables the OAuth refresh flow.
	RefreshToken string
	AppKey       string
	AppSecret    string
	// SelectAdmin optionally sets the team admin header on API calls.
	SelectAdmin string

	Direction Direction
	Interval  time.Duration
}

// Validate normalizes the config in place and reports the first fatal
// problem. Paths are resolved, the remote root gets a leading slash with no
// trailing slash, and defaults are filled in.
func (c *Config) Validate() error {
	if c.WatchDir == "" {
		return ErrNoWatchDir
	}
	watchDir, err := utils.ResolvePath(c.WatchDir)
	if err != nil {
		return fmt.Errorf("config: resolve watch dir: %w", err)
	}
	c.WatchDir = watchDir

	if c.RemoteDir == "" {
		return ErrNoRemoteDir
	}
	c.RemoteDir = "/" + strings.Trim(c.RemoteDir, "/")

	if !c.HasRefreshCredentials() && c.AccessToken == "" {
		return ErrNoCredentials
	}

	switch c.Direction {
	case DirectionBackup, DirectionRestore:
	case "":
		c.Direction = DirectionBackup
	default:
		return fmt.Errorf("config: invalid direction %q (want %q or %q)", c.Direction, DirectionBackup, DirectionRestore)
	}

	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}

	return nil
}

// HasRefreshCredentials reports whether the full refresh-token triple is set.
func (c *Config) HasRefreshCredentials() bool {
	return c.RefreshToken != "" && c.AppKey != "" && c.AppSecret != ""
}
