package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/boxmirror/boxmirror/internal/dropsdk"
	"github.com/boxmirror/boxmirror/internal/mirror/timetravel"
)

func init() {
	rootCmd.AddCommand(newTimetravelCmd())
}

func newTimetravelCmd() *cobra.Command {
	var (
		date     string
		size     int64
		nth      int
		perPage  int
		maxPages int
		listN    int
		execute  bool
	)

	cmd := &cobra.Command{
		Use:   "timetravel <remote-path>",
		Short: "Roll a remote file back to a historical revision",
		Long: `Timetravel scans a remote file's revision history newest to oldest and
picks the Nth revision at or before the target date, optionally filtered
by exact size. By default it only reports what it would do; pass
--execute to actually restore the chosen revision on the remote, or
--list to just print the qualifying revisions and stop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cutoff, err := timetravel.ParseCutoff(date)
			if err != nil {
				return err
			}

			// Only credentials matter here; the watched dir does not.
			client := dropsdk.New(&dropsdk.Config{
				AccessToken:  viper.GetString("access_token"),
				RefreshToken: viper.GetString("refresh_token"),
				AppKey:       viper.GetString("app_key"),
				AppSecret:    viper.GetString("app_secret"),
				SelectAdmin:  viper.GetString("select_admin"),
			})
			if err := client.Authenticate(cmd.Context()); err != nil {
				return fmt.Errorf("authenticate: %w", err)
			}

			q := timetravel.Query{
				Path:     args[0],
				Cutoff:   cutoff,
				Size:     size,
				Nth:      nth,
				PerPage:  perPage,
				MaxPages: maxPages,
			}

			return timetravelRun(cmd.Context(), cmd.OutOrStdout(), client, q, timetravelOpts{
				listN:    listN,
				listOnly: cmd.Flags().Changed("list"),
				execute:  execute,
			})
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVar(&date, "date", "", "Target date: YYYY-MM-DD (end of day UTC) or ISO-8601")
	cmd.Flags().Int64Var(&size, "size", -1, "Only match revisions with this exact byte size")
	cmd.Flags().IntVar(&nth, "nth", 1, "Pick the Nth match, counting newest to oldest")
	cmd.Flags().IntVar(&perPage, "per-page", dropsdk.MaxRevisionPageSize, "Revisions fetched per listing call (max 100)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Stop after this many pages (0 = scan all history)")
	cmd.Flags().IntVar(&listN, "list", 10, "Print up to N matching revisions and exit without restoring")
	cmd.Flags().BoolVar(&execute, "execute", false, "Actually restore the chosen revision (default is dry run)")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

type timetravelOpts struct {
	listN    int
	listOnly bool
	execute  bool
}

// timetravelRun drives one selection scan. List mode is strictly read-only:
// it prints the qualifying revisions and stops, with no restore and no
// error when the Nth match does not exist.
func timetravelRun(ctx context.Context, out io.Writer, h timetravel.History, q timetravel.Query, opts timetravelOpts) error {
	res, err := timetravel.FindByDate(ctx, h, q)
	if err != nil {
		return err
	}

	if opts.listOnly {
		timetravel.WriteSummary(out, q, res, false)
		timetravel.WriteMatches(out, res, opts.listN)
		return nil
	}

	timetravel.WriteSummary(out, q, res, opts.execute)
	if res.Chosen == nil {
		timetravel.WriteNoMatch(out, res)
		return fmt.Errorf("no revision of %s matches the given criteria", q.Path)
	}
	timetravel.WriteChosen(out, res.Chosen)

	if !opts.execute {
		fmt.Fprintln(out, "\nDry run only. Re-run with --execute to restore this revision.")
		return nil
	}

	meta, err := timetravel.Restore(ctx, h, q.Path, res.Chosen.Rev)
	if err != nil {
		return err
	}
	slog.Info("revision restored", "path", q.Path, "rev", meta.Rev)
	return nil
}
