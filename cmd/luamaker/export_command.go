package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"luamaker/internal/exporter"
	"luamaker/internal/history"
	"luamaker/internal/logging"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var appInfoFile string
	var outputDir string
	var noSteamCmd bool

	cmd := &cobra.Command{
		Use:   "export <appid>",
		Short: "Export manifests and keys for an app as a Lua plugin script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := parseAppID(args[0])
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if noSteamCmd {
				cfg.SteamCmd.Enabled = false
			}

			logger := ctx.newLogger(cmd.ErrOrStderr())

			var source exporter.MetadataSource
			if appInfoFile == "" {
				source, err = exporter.NewSource(cfg, logger)
				if err != nil {
					return err
				}
			}

			store, err := history.Open(cfg)
			if err != nil {
				logger.Warn("export history unavailable", logging.Error(err))
				store = nil
			} else {
				defer store.Close()
			}

			exp := exporter.New(cfg, logger, source, store)
			result, err := exp.Export(cmd.Context(), appID, exporter.Options{
				AppInfoFile: appInfoFile,
				OutputDir:   outputDir,
			})
			if err != nil {
				return err
			}

			renderExportSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&appInfoFile, "appinfo-file", "", "Read app metadata from a local VDF file instead of querying")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Override the configured output directory")
	cmd.Flags().BoolVar(&noSteamCmd, "no-steamcmd", false, "Skip steamcmd and query the appinfo service directly")
	return cmd
}

func parseAppID(arg string) (uint32, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid app id %q: expected a positive number", arg)
	}
	return uint32(id), nil
}

func renderExportSummary(out io.Writer, result *exporter.Result) {
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "\n%s (%d)\n", result.AppName, result.AppID)
	fmt.Fprintln(out, renderStatusLine("Output", statusInfo, result.OutputDir, colorize))
	if result.PluginMode {
		fmt.Fprintln(out, renderStatusLine("Mode", statusInfo, "existing plugin script reused", colorize))
	}

	if len(result.Depots) > 0 {
		rows := make([][]string, 0, len(result.Depots))
		for _, depot := range result.Depots {
			rows = append(rows, []string{
				strconv.FormatUint(uint64(depot.ID), 10),
				depot.ManifestGID,
				depot.DecryptionKey,
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			[]string{"Depot", "Manifest", "Key"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft},
		))
	}

	if len(result.Skipped) > 0 {
		rows := make([][]string, 0, len(result.Skipped))
		for _, skip := range result.Skipped {
			rows = append(rows, []string{
				strconv.FormatUint(uint64(skip.ID), 10),
				skip.Name,
				displayReason(skip.Reason),
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			[]string{"Skipped Depot", "Name", "Reason"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft},
		))
	}

	copied := result.Copied()
	failed := result.FailedCopies()
	kind := statusOK
	if len(failed) > 0 {
		kind = statusWarn
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderStatusLine("Manifests", kind,
		fmt.Sprintf("%d copied, %d failed", copied, len(failed)), colorize))
	for _, failure := range failed {
		fmt.Fprintln(out, renderStatusLine("Copy failed", statusError, failure.Source, colorize))
	}

	if result.ScriptPath != "" {
		fmt.Fprintln(out, renderStatusLine("Script", statusOK, result.ScriptPath, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Script", statusWarn, "not written (no depots with keys)", colorize))
	}
}
