package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"overdub/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the job queue",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var output string

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Enqueue a job for the worker",
	}

	downloadCmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Enqueue an audio download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return addJob(ctx, cmd, queue.Job{Kind: queue.KindDownload, Source: args[0], Output: output})
		},
	}

	stretchCmd := &cobra.Command{
		Use:   "stretch <input> <target_seconds>",
		Short: "Enqueue a tempo adjustment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("parse target duration %q: %w", args[1], err)
			}
			return addJob(ctx, cmd, queue.Job{
				Kind:          queue.KindStretch,
				Source:        args[0],
				Output:        output,
				TargetSeconds: target,
			})
		},
	}

	separateCmd := &cobra.Command{
		Use:   "separate <input>",
		Short: "Enqueue a vocal separation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return addJob(ctx, cmd, queue.Job{Kind: queue.KindSeparate, Source: args[0], Output: output})
		},
	}

	addCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output path (or directory for separations)")
	addCmd.AddCommand(downloadCmd)
	addCmd.AddCommand(stretchCmd)
	addCmd.AddCommand(separateCmd)
	return addCmd
}

func addJob(ctx *commandContext, cmd *cobra.Command, job queue.Job) error {
	store, err := ctx.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	added, err := store.Add(cmd.Context(), job)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Queued %s job %d for %s\n", added.Kind, added.ID, added.Source)
	return nil
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var statuses []queue.Status
			for _, statusStr := range listStatuses {
				statuses = append(statuses, queue.Status(statusStr))
			}

			jobs, err := store.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}

			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				detail := job.ErrorMessage
				if detail == "" {
					detail = job.Output
				}
				rows = append(rows, []string{
					strconv.FormatInt(job.ID, 10),
					string(job.Kind),
					job.Source,
					string(job.Status),
					job.CreatedAt.Local().Format(time.RFC3339),
					detail,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Kind", "Source", "Status", "Created", "Detail"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completedOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove jobs from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var removed int64
			if completedOnly {
				removed, err = store.ClearCompleted(cmd.Context())
			} else {
				removed, err = store.Clear(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&completedOnly, "completed", false, "Only remove completed jobs")
	return cmd
}
