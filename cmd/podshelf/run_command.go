package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"podshelf/internal/config"
	"podshelf/internal/daemon"
	"podshelf/internal/logging"
	"podshelf/internal/queue"
	"podshelf/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler until interrupted",
		Long:  "Run the processing loop as a foreground daemon: poll for pending episodes, sweep eligible failed episodes back in, and stop on SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return err
				}

				pipeline := buildPipeline(cfg, store, logger)
				scheduler := workflow.NewScheduler(cfg, store, pipeline, logger)
				d, err := daemon.New(cfg, store, scheduler, logger)
				if err != nil {
					return err
				}

				runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()

				if err := d.Start(runCtx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "podshelf running (lock %s); press Ctrl-C to stop\n", d.LockPath())

				<-runCtx.Done()
				d.Stop()
				return nil
			})
		},
	}
}
