package main

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/boxmirror/boxmirror/internal/mirror/config"
	"github.com/boxmirror/boxmirror/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "boxmirror",
	Short:   "Mirror a local directory to Dropbox and back",
	Version: version.Detailed(),
	Long: `BoxMirror incrementally mirrors a watched directory to a Dropbox folder,
using MD5 checksums to transfer only what changed. Run in reverse it
restores the remote folder to the local tree, and the timetravel command
rolls a single remote file back to a historical revision.

Ignore patterns (ignore.txt at the watched root) use plain shell-glob
matching against the relative path: '*' never crosses a '/' and '**' has
no special recursive meaning, so 'cache/**' matches 'cache/a' but not
'cache/a/b'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().String("env-file", "", "Path to a .env file with credentials (default: ./.env if present)")
	rootCmd.PersistentFlags().StringP("watch-dir", "w", "", "Local directory to mirror")
	rootCmd.PersistentFlags().StringP("remote-dir", "r", "", "Remote folder, e.g. /Apps/MyBackup")
	rootCmd.PersistentFlags().String("direction", "", "Sync direction: backup or restore")
	rootCmd.PersistentFlags().Duration("interval", config.DefaultInterval, "Sleep between passes in daemon mode")
}

// loadConfig merges flags, environment and an optional .env file. Secrets
// (ACCESS_TOKEN, REFRESH_TOKEN, APP_KEY, APP_SECRET, SELECT_ADMIN) come from
// the environment only.
func loadConfig(cmd *cobra.Command) error {
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		// Best effort: a local .env is optional.
		_ = godotenv.Load()
	}

	viper.AutomaticEnv()

	_ = viper.BindPFlag("watch_dir", cmd.Flags().Lookup("watch-dir"))
	_ = viper.BindPFlag("remote_dir", cmd.Flags().Lookup("remote-dir"))
	_ = viper.BindPFlag("direction", cmd.Flags().Lookup("direction"))
	_ = viper.BindPFlag("interval", cmd.Flags().Lookup("interval"))

	return nil
}

// buildConfig materializes the validated runtime config.
func buildConfig() (*config.Config, error) {
	interval := viper.GetDuration("interval")
	if secs := viper.GetInt64("sync_interval"); secs > 0 && interval == config.DefaultInterval {
		// SYNC_INTERVAL is plain seconds, for .env compatibility.
		interval = time.Duration(secs) * time.Second
	}

	direction := viper.GetString("direction")
	if direction == "" {
		direction = viper.GetString("sync_direction")
	}

	cfg := &config.Config{
		WatchDir:     viper.GetString("watch_dir"),
		RemoteDir:    viper.GetString("remote_dir"),
		AccessToken:  viper.GetString("access_token"),
		RefreshToken: viper.GetString("refresh_token"),
		AppKey:       viper.GetString("app_key"),
		AppSecret:    viper.GetString("app_secret"),
		SelectAdmin:  viper.GetString("select_admin"),
		Direction:    config.Direction(direction),
		Interval:     interval,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
