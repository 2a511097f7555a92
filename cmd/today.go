package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

func newTodayCmd() *cobra.Command {
	var (
		client   clientFlags
		timezone string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print tasks due today across all projects",
		Long: `Print every task whose due date (or start date, when no due date is set)
falls on today's date in the given timezone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &client)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("timezone") {
				timezone = cfg.DefaultTimezone
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger := setupLogging(cmd.ErrOrStderr(), cfg)
			c, err := newTickTickClient(ctx, cfg, nil, logger)
			if err != nil {
				return err
			}

			agg := ticktick.NewTodayAggregator(c, ticktick.WithFanOutLimit(cfg.FanOutLimit))
			tasks, err := agg.TodayTasks(ctx, timezone)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tasks)
			}
			return printTasks(cmd.OutOrStdout(), tasks, timezone)
		},
	}

	addClientFlags(cmd, &client)
	cmd.Flags().StringVar(&timezone, "timezone", ticktick.DefaultTimezone, "IANA timezone that defines today (default: --default-timezone)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tasks as JSON")

	return cmd
}

// printTasks writes one line per task: local due time, project and title.
func printTasks(w io.Writer, tasks []ticktick.Task, timezone string) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks due today.")
		return err
	}

	loc, err := ticktick.LoadTimezone(timezone)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DUE\tPROJECT\tTITLE")
	for _, t := range tasks {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", dueLabel(t, loc), t.ProjectName(), t.Title())
	}
	return tw.Flush()
}

func dueLabel(t ticktick.Task, loc *time.Location) string {
	raw := t.DueDate()
	if raw == "" {
		raw = t.StartDate()
	}
	due, err := ticktick.ParseDate(raw)
	if err != nil {
		return "-"
	}
	return due.In(loc).Format("15:04")
}
