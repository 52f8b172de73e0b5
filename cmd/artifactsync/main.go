// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/services/transfer"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/utils"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitUnstable = 2
)

// errUnstable reports a run that finished with some failed objects.
var errUnstable = errors.New("finished with failures")

func main() {
	v := viper.New()
	utils.BindEnvFromStruct(v, utils.EnvPrefix)
	os.Exit(exitCode(newRootCommand(v).ExecuteContext(newContext())))
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "artifactsync COMMAND",
		Short:         "Upload and download build artifacts to blob or file share storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	verbose := cmd.PersistentFlags().Bool("verbose", false, "turn on verbose logging")
	noColor := cmd.PersistentFlags().Bool("no-color", false, "disable colorized output")

	flags := cmd.PersistentFlags()
	flags.String("accounts-file", "", "INI file with one section per storage account")
	flags.String("account", "", "storage account section to use")
	flags.Int("workers", 0, "parallel downloads")
	flags.Int("max-retries", 0, "attempts per storage request")
	flags.Int("concurrent-requests", 0, "part concurrency for large objects (default: CPU count)")
	flags.String("manifest-dir", "", "keep run manifests in this directory instead of the core API")
	flags.String("project", "", "project owning the run manifest")
	flags.String("run-id", "", "run the artifacts are recorded for")
	for key, flag := range map[string]string{
		utils.AccountsFile:       "accounts-file",
		utils.StorageAccount:     "account",
		utils.Workers:            "workers",
		utils.MaxRetries:         "max-retries",
		utils.ConcurrentRequests: "concurrent-requests",
		utils.ManifestDir:        "manifest-dir",
		utils.Project:            "project",
		utils.RunId:              "run-id",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		setupLogging(*verbose, *noColor, v.GetString(utils.LogLevel))
	}

	cmd.AddCommand(uploadCommand(v), downloadCommand(v))
	return cmd
}

func setupLogging(verbose, noColor bool, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	timeFormat := "15:04:05"
	if verbose {
		lvl = zerolog.DebugLevel
		timeFormat = "15:04:05.000"
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().In(time.Local)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: timeFormat, NoColor: noColor})
}

// exitCode hard-fails configuration and credential problems and reports
// transfer problems as unstable.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUnstable), errors.Is(err, transfer.ErrTransfer):
		log.Warn().Err(err).Msg("build step unstable")
		return exitUnstable
	default:
		log.Error().Err(err).Msg("build step failed")
		return exitFailure
	}
}

// newContext returns a new context that is canceled when a SIGINT is received.
func newContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	go func() {
		for range signals {
			if ctx.Err() != nil {
				os.Exit(exitFailure)
			}
			println("\nWaiting for in-progress transfers to stop... (press Ctrl-c again to exit without waiting)\n")
			cancel()
		}
	}()

	return ctx
}
