package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/boxmirror/boxmirror/internal/mirror/config"
	"github.com/boxmirror/boxmirror/internal/mirror/engine"
)

func init() {
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newRestoreCmd())
}

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Run a single backup pass (local to remote) and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return singlePass(cmd.Context(), config.DirectionBackup)
		},
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Run a single restore pass (remote to local) and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return singlePass(cmd.Context(), config.DirectionRestore)
		},
	}
}

// singlePass runs one pass in the given direction, overriding whatever
// direction the daemon config carries. One-shot runs skip the instance lock.
func singlePass(ctx context.Context, dir config.Direction) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Direction = dir

	ws, client, err := setup(ctx, cfg, true)
	if err != nil {
		return err
	}

	eng := engine.New(ws, client, cfg.RemoteDir)
	if err := runPass(ctx, client, eng, dir); err != nil {
		return err
	}

	slog.Info("pass complete", "direction", dir)
	return nil
}
