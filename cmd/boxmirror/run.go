package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/boxmirror/boxmirror/internal/dropsdk"
	"github.com/boxmirror/boxmirror/internal/mirror/config"
	"github.com/boxmirror/boxmirror/internal/mirror/engine"
	"github.com/boxmirror/boxmirror/internal/mirror/workspace"
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	var noLock bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the mirror daemon, syncing every interval until stopped",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig()
			if err != nil {
				return err
			}
			return runDaemon(cmd.Context(), cfg, noLock)
		},
	}

	cmd.Flags().BoolVar(&noLock, "no-lock", false, "Skip the single-instance workspace lock")
	return cmd
}

func runDaemon(ctx context.Context, cfg *config.Config, noLock bool) error {
	ws, client, err := setup(ctx, cfg, noLock)
	if err != nil {
		return err
	}
	defer func() {
		if err := ws.Unlock(); err != nil {
			slog.Warn("release workspace lock", "error", err)
		}
	}()

	eng := engine.New(ws, client, cfg.RemoteDir)
	slog.Info("daemon started",
		"watchDir", ws.Root,
		"remoteDir", cfg.RemoteDir,
		"direction", cfg.Direction,
		"interval", cfg.Interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("daemon stopped")
			return nil
		case <-timer.C:
		}

		if err := runPass(ctx, client, eng, cfg.Direction); err != nil {
			if ctx.Err() != nil {
				slog.Info("daemon stopped")
				return nil
			}
			// A failed pass is retried on the next tick, not fatal.
			slog.Error("sync pass failed", "error", err)
		}

		timer.Reset(cfg.Interval)
	}
}

// runPass executes one pass in the configured direction, refreshing the
// bearer token once if the remote rejects it mid-run.
func runPass(ctx context.Context, client *dropsdk.Client, eng *engine.Engine, dir config.Direction) error {
	err := onePass(ctx, eng, dir)
	if !errors.Is(err, dropsdk.ErrAuth) {
		return err
	}

	slog.Info("access token rejected, refreshing")
	if err := client.Reauthenticate(ctx, err); err != nil {
		return err
	}
	return onePass(ctx, eng, dir)
}

func onePass(ctx context.Context, eng *engine.Engine, dir config.Direction) error {
	var (
		stats *engine.PassStats
		err   error
	)

	start := time.Now()
	switch dir {
	case config.DirectionRestore:
		stats, err = eng.DownloadPass(ctx)
	default:
		stats, err = eng.UploadPass(ctx)
	}
	if err != nil {
		return err
	}

	slog.Debug("pass finished", "direction", dir, "took", time.Since(start), "failed", stats.Failed)
	return nil
}

// setup resolves the workspace, takes the instance lock and authenticates
// against the remote, validating the credentials with an account lookup.
func setup(ctx context.Context, cfg *config.Config, noLock bool) (*workspace.Workspace, *dropsdk.Client, error) {
	ws, err := workspace.New(cfg.WatchDir)
	if err != nil {
		return nil, nil, err
	}
	if !noLock {
		if err := ws.Lock(); err != nil {
			return nil, nil, err
		}
	}

	client := dropsdk.New(&dropsdk.Config{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		AppKey:       cfg.AppKey,
		AppSecret:    cfg.AppSecret,
		SelectAdmin:  cfg.SelectAdmin,
	})

	if err := client.Authenticate(ctx); err != nil {
		unlockOnError(ws)
		return nil, nil, fmt.Errorf("authenticate: %w", err)
	}

	account, err := client.WhoAmI(ctx)
	if err != nil {
		unlockOnError(ws)
		return nil, nil, fmt.Errorf("validate credentials: %w", err)
	}
	slog.Info("authenticated", "account", account.Email, "name", account.Name.DisplayName)

	return ws, client, nil
}

func unlockOnError(ws *workspace.Workspace) {
	if err := ws.Unlock(); err != nil {
		slog.Warn("release workspace lock", "error", err)
	}
}
