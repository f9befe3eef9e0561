// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/netwatch/netwatch/cmd/netwatch/internal/bind"
	"github.com/netwatch/netwatch/cmd/netwatch/internal/format"
	"github.com/netwatch/netwatch/cmd/netwatch/internal/tui"
	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/config"
	"github.com/netwatch/netwatch/pkg/logging"
	"github.com/netwatch/netwatch/pkg/output"
	"github.com/netwatch/netwatch/pkg/output/subscribers"
	"github.com/netwatch/netwatch/pkg/render"
	"github.com/netwatch/netwatch/pkg/source"
	"github.com/netwatch/netwatch/pkg/watch"
)

func newWatchCommand() *cobra.Command {
	var (
		useTUI bool
		full   bool
	)

	cmd := &cobra.Command{
		Use:     "watch [FILE]",
		Short:   "Re-analyze the socket table continuously",
		GroupID: "analysis",
		Long: `Analyze the socket table every --interval and print a one-line delta
against the previous pass. The full report is printed on the first pass and
whenever the score or findings change.

When reading from a file, writes to that file also trigger a pass.`,
		Example: `  netwatch watch
  netwatch watch --interval 2s
  netwatch watch capture.txt
  netwatch watch --tui`,
		Args: maximumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := format.FromCommand(cmd)

			env, err := envFromCommand(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("watch", err)
			}

			opts := bind.SourceOptions(env.cfg.Analysis, args, nil)
			if opts.Kind == source.KindFile && opts.Input == source.StdinPath {
				return formatter.PrintTotalFailureSummary("watch",
					invalidInput(errors.New("standard input cannot be watched; save the listing to a file")))
			}

			svc, err := newRunner(env, opts)
			if err != nil {
				return formatter.PrintTotalFailureSummary("watch", err)
			}

			mon := watch.NewMonitor(svc, env.cfg.Watch.Interval, logging.Component("watch"))
			if opts.Kind == source.KindFile {
				mon.WatchFile(opts.Input)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if useTUI {
				out, ok := cmd.OutOrStdout().(*os.File)
				if !ok || !isatty.IsTerminal(out.Fd()) {
					return formatter.PrintTotalFailureSummary("watch",
						invalidInput(errors.New("--tui requires an interactive terminal")))
				}
				if err := tui.Run(ctx, mon, svc.SourceName(), cmd.InOrStdin(), out); err != nil {
					return formatter.PrintTotalFailureSummary("watch", err)
				}
				return nil
			}

			stream := setupOutputPipeline(cmd, formatter)
			svc.WithProgressSink(output.ProgressAdapter{Stream: stream})
			stream.Subscribe(subscribers.NewReportSubscriber(cmd.OutOrStdout(), render.Options{Color: formatter.Color()}))

			var previous *analysis.SecurityReport
			err = mon.Run(ctx, func(snap watch.Snapshot) {
				if snap.Err != nil {
					stream.Emit(output.OutputEvent{
						Type:      output.EventError,
						Timestamp: snap.At,
						Err:       snap.Err,
					})
					return
				}
				emitLineErrors(stream, snap.Result)

				current := snap.Report()
				if previous != nil {
					stream.Emit(output.OutputEvent{
						Type:      output.EventDelta,
						Timestamp: snap.At,
						Report:    current,
						Previous:  previous,
						Metadata:  map[string]any{"seq": snap.Seq, "trigger": string(snap.Trigger)},
					})
				}
				if previous == nil || full || reportChanged(*previous, *current) {
					stream.Emit(output.OutputEvent{
						Type:      output.EventReport,
						Timestamp: snap.At,
						Report:    current,
					})
				}
				previous = current
			})
			if err != nil {
				return formatter.PrintTotalFailureSummary("watch", err)
			}
			return nil
		},
	}

	config.BindAnalysisFlags(cmd.Flags())
	cmd.Flags().Duration("interval", config.DefaultConfig().Watch.Interval, "Time between passes (minimum 100ms)")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "Show an interactive dashboard instead of scrolling output")
	cmd.Flags().BoolVar(&full, "full", false, "Print the full report on every pass")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	return cmd
}

// reportChanged reports whether cur differs from prev in anything the
// terminal report shows prominently.
func reportChanged(prev, cur analysis.SecurityReport) bool {
	return prev.Score != cur.Score ||
		prev.TierCounts != cur.TierCounts ||
		len(prev.Findings) != len(cur.Findings) ||
		len(prev.ExternalConnections) != len(cur.ExternalConnections) ||
		prev.Summary.Listening != cur.Summary.Listening
}
