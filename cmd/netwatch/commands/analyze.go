// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/netwatch/netwatch/cmd/netwatch/internal/bind"
	"github.com/netwatch/netwatch/cmd/netwatch/internal/format"
	"github.com/netwatch/netwatch/pkg/analysis"
	"github.com/netwatch/netwatch/pkg/config"
	"github.com/netwatch/netwatch/pkg/export"
	"github.com/netwatch/netwatch/pkg/output"
	"github.com/netwatch/netwatch/pkg/render"
	"github.com/netwatch/netwatch/pkg/workspace"
)

func newAnalyzeCommand() *cobra.Command {
	var (
		exportPath string
		save       bool
	)

	cmd := &cobra.Command{
		Use:     "analyze [FILE]",
		Short:   "Analyze the socket table and print a security report",
		GroupID: "analysis",
		Long: `Collect the socket listing, classify every process, flag risky exposures
and print a scored security report.

The listing comes from lsof by default. Pass a file (or - for stdin)
containing saved "lsof -i -n -P" output to analyze it instead.`,
		Example: `  netwatch analyze
  netwatch analyze sample.txt
  lsof -i -n -P | netwatch analyze -
  netwatch analyze --source native -o json
  netwatch analyze --export report.yaml
  netwatch analyze --save --export-format json`,
		Args: maximumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFlag(cmd); err != nil {
				return err
			}
			formatter := format.FromCommand(cmd)

			env, err := envFromCommand(cmd)
			if err != nil {
				return formatter.PrintTotalFailureSummary("analyze", err)
			}

			svc, err := newRunner(env, bind.SourceOptions(env.cfg.Analysis, args, cmd.InOrStdin()))
			if err != nil {
				return formatter.PrintTotalFailureSummary("analyze", err)
			}

			stream := setupOutputPipeline(cmd, formatter)
			svc.WithProgressSink(output.ProgressAdapter{Stream: stream})

			res, err := svc.Run(cmd.Context())
			if err != nil {
				return formatter.PrintTotalFailureSummary("analyze", err)
			}
			emitLineErrors(stream, res)

			doc := export.NewDocument(res.Report, res.Source, res.StartedAt)
			if !formatter.Quiet() {
				if err := printReport(formatter, doc); err != nil {
					return err
				}
			}

			if exportPath == "" && !save {
				return nil
			}
			path, exportFormat, err := resolveExport(cmd, env.cfg.Export, exportPath, res.StartedAt)
			if err != nil {
				return formatter.PrintTotalFailureSummary("export report", err)
			}
			if err := export.WriteFile(cmd.Context(), path, doc, exportFormat); err != nil {
				return formatter.PrintTotalFailureSummary("export report", err)
			}
			return formatter.PrintSummary(fmt.Sprintf("✓ Exported report to %s", path))
		},
	}

	config.BindAnalysisFlags(cmd.Flags())
	addOutputFlags(cmd, format.ModeText)
	cmd.Flags().StringVar(&exportPath, "export", "", "Also write the report to this file")
	cmd.Flags().BoolVar(&save, "save", false, "Also write the report into the workspace reports directory")
	cmd.Flags().String("export-format", config.DefaultConfig().Export.Format, "Export format: text, json or yaml (default: from the file extension)")

	return cmd
}

// printReport writes the report to stdout in the formatter's mode.
func printReport(f format.Formatter, doc export.Document) error {
	switch f.Mode() {
	case format.ModeJSON:
		return export.Encode(f.Stdout(), doc, export.FormatJSON)
	case format.ModeYAML:
		return export.Encode(f.Stdout(), doc, export.FormatYAML)
	default:
		return render.Text(f.Stdout(), doc.Report, render.Options{Color: f.Color()})
	}
}

// resolveExport picks the export destination and format. An explicit
// --export-format wins; otherwise the extension of path decides, falling
// back to the configured format. With --save and no path the report goes
// into the workspace reports directory under a timestamped name.
func resolveExport(cmd *cobra.Command, cfg config.ExportConfig, path string, now time.Time) (string, export.Format, error) {
	configured, err := export.ParseFormat(cfg.Format)
	if err != nil {
		return "", "", err
	}

	f := configured
	if path != "" && !cmd.Flags().Changed("export-format") {
		f = export.FormatFromPath(path, configured)
	}
	if path != "" {
		return path, f, nil
	}

	root, ok := workspace.FromContext(cmd.Context())
	if !ok {
		return "", "", fmt.Errorf("%w: --save needs a workspace; drop --no-workspace or use --export PATH", analysis.ErrInvalidInput)
	}
	return workspace.ReportPath(root, export.DefaultFileName(now, f)), f, nil
}
