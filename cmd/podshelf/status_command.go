package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"podshelf/internal/config"
	"podshelf/internal/queue"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue summary and episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				summary, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderSummary(summary, colorize))

				if showMetrics {
					return renderPhaseSummaries(cmd, store)
				}

				var filters []queue.Status
				if trimmed := strings.TrimSpace(statusFilter); trimmed != "" {
					status, ok := queue.ParseStatus(trimmed)
					if !ok {
						return fmt.Errorf("unknown status %q", trimmed)
					}
					filters = append(filters, status)
				}
				episodes, err := store.List(cmd.Context(), filters...)
				if err != nil {
					return err
				}
				if len(episodes) == 0 {
					fmt.Fprintln(out, "No episodes queued")
					return nil
				}

				rows := make([][]string, 0, len(episodes))
				for _, episode := range episodes {
					rows = append(rows, []string{
						strconv.FormatInt(episode.ID, 10),
						episode.VideoID,
						truncate(episode.Title, 48),
						string(episode.Status),
						strconv.Itoa(episode.RetryCount),
						truncate(episode.ErrorMessage, 40),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Video", "Title", "Status", "Retries", "Error"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Only list episodes in this state")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Show per-phase processing metrics instead of episodes")
	return cmd
}

func renderPhaseSummaries(cmd *cobra.Command, store *queue.Store) error {
	summaries, err := store.PhaseSummaries(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No processing metrics recorded")
		return nil
	}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Phase,
			strconv.Itoa(s.Runs),
			strconv.Itoa(s.Episodes),
			fmt.Sprintf("$%.4f", s.TotalCostUSD),
			fmt.Sprintf("$%.4f", s.AvgCostUSD),
			fmt.Sprintf("%.1fs", s.AvgTimeSeconds),
			fmt.Sprintf("%.0f%%", s.CompleteRate*100),
			fmt.Sprintf("%.0f%%", s.ErrorRate*100),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Phase", "Runs", "Episodes", "Total Cost", "Avg Cost", "Avg Time", "Complete", "Errors"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}

func renderSummary(summary queue.HealthSummary, colorize bool) string {
	paint := func(color, text string) string {
		if !colorize || color == "" {
			return text
		}
		return color + text + ansiReset
	}
	return fmt.Sprintf("%d total: %s pending, %s processing, %s completed, %s failed",
		summary.Total,
		paint(ansiBlue, strconv.Itoa(summary.Pending)),
		paint(ansiYellow, strconv.Itoa(summary.Processing)),
		paint(ansiGreen, strconv.Itoa(summary.Completed)),
		paint(ansiRed, strconv.Itoa(summary.Failed)),
	)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
