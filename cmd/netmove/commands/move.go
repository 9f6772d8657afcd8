// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/walteh/netmove/cmd/netmove/opts"
	"github.com/walteh/netmove/pkg/batch"
	"github.com/walteh/netmove/pkg/config"
	"github.com/walteh/netmove/pkg/fsys"
	"github.com/walteh/netmove/pkg/log"
	"github.com/walteh/netmove/pkg/metrics"
	"github.com/walteh/netmove/pkg/status"
	"github.com/walteh/netmove/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

// ErrFolderFailures is returned by move when --fail-on-error is set and at
// least one folder failed. The summary has already been printed.
var ErrFolderFailures = errors.Base("one or more folders failed")

type moveFlags struct {
	dest        string
	retries     int
	delay       float64
	backoff     string
	workers     int
	exclude     []string
	pruneEmpty  bool
	metricsFile string
	failOnError bool
	noProgress  bool
}

// NewMoveCmd creates the move command
func NewMoveCmd(rootOpts *opts.RootOpts) *cobra.Command {
	flags := &moveFlags{}

	cmd := &cobra.Command{
		Use:   "move [source...]",
		Short: "Move source folders into the destination root",
		Long: `Move transfers each source folder into <destination>/<folder name>.
It will:
1. Rename the folder in one step when the destination does not exist yet
2. Otherwise merge file by file, deleting same-size duplicates and leaving
   size mismatches in place for review
3. Retry transient network errors with a fixed or linear delay
4. Print a summary with one row per folder`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, rootOpts, flags, args)
			if err != nil {
				return err
			}
			return runMove(cmd, rootOpts, cfg, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.dest, "dest", "", "destination root folder")
	f.IntVar(&flags.retries, "retries", config.DefaultMaxRetries, "maximum retries per operation after a transient error")
	f.Float64Var(&flags.delay, "delay", config.DefaultRetryDelay, "base delay between retries, in seconds")
	f.StringVar(&flags.backoff, "backoff", "fixed", "retry delay growth: fixed or linear")
	f.IntVar(&flags.workers, "workers", config.DefaultWorkers, "folders transferred at once")
	f.StringArrayVar(&flags.exclude, "exclude", nil, "glob of source paths to leave in place (repeatable)")
	f.BoolVar(&flags.pruneEmpty, "prune-empty", false, "remove source directories emptied by a merge")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "write prometheus metrics to this textfile")
	f.BoolVar(&flags.failOnError, "fail-on-error", false, "exit non-zero when any folder fails")
	f.BoolVar(&flags.noProgress, "no-progress", false, "disable the folder progress bar")

	return cmd
}

// resolveConfig layers defaults, the config file, and explicitly set flags
func resolveConfig(cmd *cobra.Command, rootOpts *opts.RootOpts, flags *moveFlags, args []string) (*config.Config, error) {
	ctx := cmd.Context()

	cfg := config.Default()
	if rootOpts.ConfigFile != "" {
		loaded, err := config.LoadConfig(ctx, rootOpts.ConfigFile)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("dest") {
		cfg.Destination = flags.dest
	}
	if f.Changed("retries") {
		cfg.MaxRetries = flags.retries
	}
	if f.Changed("delay") {
		cfg.RetryDelay = flags.delay
	}
	if f.Changed("backoff") {
		cfg.Backoff = flags.backoff
	}
	if f.Changed("workers") {
		cfg.Workers = flags.workers
	}
	if f.Changed("prune-empty") {
		cfg.PruneEmpty = flags.pruneEmpty
	}
	if f.Changed("metrics-file") {
		cfg.MetricsFile = flags.metricsFile
	}
	cfg.Exclude = append(cfg.Exclude, flags.exclude...)
	cfg.Sources = append(cfg.Sources, args...)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	if err := cfg.RequireTargets(); err != nil {
		return nil, err
	}

	for i, s := range cfg.Sources {
		abs, err := filepath.Abs(s)
		if err != nil {
			return nil, errors.Errorf("resolving source %s: %w", s, err)
		}
		cfg.Sources[i] = abs
	}
	abs, err := filepath.Abs(cfg.Destination)
	if err != nil {
		return nil, errors.Errorf("resolving destination: %w", err)
	}
	cfg.Destination = abs

	zerolog.Ctx(ctx).Debug().Str("config", cfg.String()).Msg("resolved configuration")
	return cfg, nil
}

func runMove(cmd *cobra.Command, rootOpts *opts.RootOpts, cfg *config.Config, flags *moveFlags) error {
	ctx := cmd.Context()
	zlog := zerolog.Ctx(ctx).With().Str("command", "move").Logger()
	ctx = zlog.WithContext(ctx)

	var console io.Writer = cmd.OutOrStdout()
	if rootOpts.Console != nil {
		console = rootOpts.Console
	}
	userLog := log.New(console, zlog)

	sinks := []status.Sink{userLog}
	var collector *metrics.Collector
	if cfg.MetricsFile != "" {
		collector = metrics.New()
		sinks = append(sinks, collector)
	}

	var bar *progressbar.ProgressBar
	if !flags.noProgress {
		bar = progressbar.NewOptions(len(cfg.Sources),
			progressbar.OptionSetDescription("folders"),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(cmd.ErrOrStderr(), "\n")
			}),
		)
	}

	coord, err := batch.New(batch.Options{
		Transfer: transfer.Options{
			FS:         fsys.OS{},
			Policy:     cfg.RetryPolicy(),
			Sink:       status.Multi(sinks...),
			Excludes:   cfg.Exclude,
			PruneEmpty: cfg.PruneEmpty,
		},
		Workers: cfg.Workers,
		Progress: func(done, total int, entry batch.Entry) {
			if bar == nil {
				userLog.Progress(done, total)
				return
			}
			bar.Describe(filepath.Base(entry.Source))
			_ = bar.Add(1)
		},
	})
	if err != nil {
		return errors.Errorf("creating batch: %w", err)
	}

	summary := coord.Run(ctx, cfg.Sources, cfg.Destination)
	if bar != nil {
		_ = bar.Finish()
	}

	table, err := summary.Table()
	if err != nil {
		return err
	}
	userLog.LogNewline()
	userLog.Print(table)

	totals := summary.Totals()
	userLog.Infof("%d files moved (%d bytes), %d duplicates removed, %d conflicts left in place in %s",
		totals.Moved, totals.Bytes, totals.Duplicates, totals.Conflicts, summary.Duration.Round(time.Millisecond))

	if ctx.Err() != nil {
		userLog.Warning("interrupted: folders not yet started were skipped")
	}

	if collector != nil {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			userLog.Errorf("writing metrics: %v", err)
		}
	}

	if !summary.HasFailures() {
		userLog.Successf("all %d folders processed", len(summary.Entries))
		return nil
	}

	userLog.Warningf("%d folder(s) failed; re-run to resume", summary.Counts().Failed)
	if flags.failOnError {
		return ErrFolderFailures
	}
	return nil
}
