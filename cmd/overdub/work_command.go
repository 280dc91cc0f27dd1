package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"overdub/internal/preflight"
	"overdub/internal/worker"
)

func newWorkCommand(ctx *commandContext) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "work",
		Short: "Process queued jobs until the queue drains",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				if !status.Optional && !status.Available {
					return fmt.Errorf("missing required tool %s: %s (run 'overdub status')", status.Name, status.Detail)
				}
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			adjuster, err := ctx.newAdjuster()
			if err != nil {
				return err
			}
			downloader, err := ctx.newDownloader()
			if err != nil {
				return err
			}
			separator, err := ctx.newSeparator()
			if err != nil {
				return err
			}

			w, err := worker.New(store, downloader, adjuster, separator, worker.Options{
				LockPath:     filepath.Join(cfg.Paths.WorkDir, "worker.lock"),
				PollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
				Watch:        watch,
			}, ctx.ensureLogger())
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return w.Run(runCtx)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep polling for new jobs after the queue drains")
	return cmd
}
