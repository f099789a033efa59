package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"podshelf/internal/config"
	"podshelf/internal/logging"
	"podshelf/internal/queue"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [episode-id...]",
		Short: "Process queued episodes",
		Long:  "Process the named episodes, or drain every pending episode when no IDs are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return err
				}
				pipeline := buildPipeline(cfg, store, logger)
				out := cmd.OutOrStdout()

				if len(args) == 0 {
					processed, err := pipeline.ProcessPending(cmd.Context(), 0)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Processed %d episode(s)\n", processed)
					return nil
				}

				for _, arg := range args {
					id, err := strconv.ParseInt(arg, 10, 64)
					if err != nil {
						return fmt.Errorf("invalid episode id %q", arg)
					}
					result, err := pipeline.Process(cmd.Context(), id)
					if err != nil {
						return err
					}
					switch {
					case !result.Claimed:
						fmt.Fprintf(out, "Episode %d is not pending; skipped\n", id)
					case result.Status == queue.StatusFailed:
						fmt.Fprintf(out, "Episode %d failed: %s\n", id, result.FailureReason)
					default:
						fmt.Fprintf(out, "Episode %d completed: %d recommendation(s), %d display-eligible\n",
							id, result.Recommendations, result.Eligible)
					}
				}
				return nil
			})
		},
	}
	return cmd
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Move failed episodes with retry budget back to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				moved, err := store.RetryFailed(cmd.Context(), cfg.Workflow.MaxRetries)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %d episode(s) back to pending\n", moved)
				return nil
			})
		},
	}
}
