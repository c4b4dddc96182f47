package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/recsum/internal/config"
	"github.com/bamsammich/recsum/internal/engine"
	"github.com/bamsammich/recsum/internal/event"
	"github.com/bamsammich/recsum/internal/hasher"
	"github.com/bamsammich/recsum/internal/stats"
	"github.com/bamsammich/recsum/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: main CLI entry point orchestrates all flag parsing
func run() int {
	var (
		workers      int
		walkers      int
		queueFactor  int
		digestLength int
		algorithmStr string
		separatorStr string
		compatible   bool
		quiet        bool
		noProgress   bool
		verbose      bool
		logFile      string
		bwLimitStr   string
		showVersion  bool
	)

	rootCmd := &cobra.Command{
		Use:   "recsum [flags] <directory | file... | ->",
		Short: "Hash many files in parallel, output in deterministic order",
		Long: `recsum hashes files concurrently and prints one record per file to
stdout, always in the order the files were discovered: depth-first for a
directory tree, argument order for explicit files, line order for a path
list on stdin (use "-").`,
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "recsum %s\n", version)
				return nil
			}

			// Load optional config file.
			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults,
				&workers, &walkers, &queueFactor, &algorithmStr, &quiet)
			if !cmd.Flags().Changed("bwlimit") && cfg.Defaults.BWLimit != nil {
				bwLimitStr = *cfg.Defaults.BWLimit
			}

			algorithm, err := hasher.Parse(algorithmStr)
			if err != nil {
				return err
			}

			var bwLimit int64
			if bwLimitStr != "" {
				bwLimit, err = config.ParseSize(bwLimitStr)
				if err != nil {
					return fmt.Errorf("invalid --bwlimit: %w", err)
				}
			}

			separator := config.ResolveSeparator(separatorStr, compatible)

			// Configure logging. Records go to stdout, so all logging
			// stays on stderr.
			logLevel := slog.LevelWarn
			if verbose {
				logLevel = slog.LevelDebug
			} else if !quiet {
				logLevel = slog.LevelInfo
			}
			textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			var logHandler slog.Handler = textHandler
			if logFile != "" {
				lf, lfErr := os.Create(logFile)
				if lfErr != nil {
					return fmt.Errorf("open log file: %w", lfErr)
				}
				defer lf.Close()
				jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})
				logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
			}
			slog.SetDefault(slog.New(logHandler))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			events := make(chan event.Event, 256)

			// When --log is set, tee events through a logging goroutine
			// that writes structured records before forwarding to the presenter.
			presenterEvents := (<-chan event.Event)(events)
			if logFile != "" {
				teed := make(chan event.Event, 256)
				go func() {
					for ev := range events {
						attrs := []slog.Attr{
							slog.String("type", ev.Type.String()),
							slog.String("path", ev.Path),
							slog.Int64("size", ev.Size),
							slog.Int("worker", ev.WorkerID),
						}
						if ev.Error != nil {
							attrs = append(attrs, slog.String("error", ev.Error.Error()))
						}
						slog.LogAttrs(context.Background(), slog.LevelInfo, "recsum.event", attrs...)
						teed <- ev
					}
					close(teed)
				}()
				presenterEvents = teed
			}

			// Progress renders on stderr; stdout carries only records.
			presenter := ui.NewPresenter(ui.Config{
				ErrWriter:  os.Stderr,
				Stats:      collector,
				Workers:    workers,
				IsTTY:      ui.IsTTY(os.Stderr.Fd()),
				Quiet:      quiet,
				NoProgress: noProgress,
			})

			var presenterWg sync.WaitGroup
			presenterWg.Add(1)
			go func() {
				defer presenterWg.Done()
				presenter.Run(presenterEvents)
			}()

			slog.Debug("starting run",
				"inputs", args,
				"workers", workers,
				"algorithm", algorithm,
			)

			result := engine.Run(ctx, engine.Config{
				Inputs:       args,
				Workers:      workers,
				Walkers:      walkers,
				QueueFactor:  queueFactor,
				Algorithm:    algorithm,
				DigestLength: digestLength,
				BWLimit:      bwLimit,
				Separator:    separator,
				HashFirst:    compatible,
				Output:       os.Stdout,
				Stats:        collector,
				Events:       events,
			})
			stop()
			close(events)
			presenterWg.Wait()

			if !quiet {
				if summary := presenter.Summary(); summary != "" {
					fmt.Fprintln(os.Stderr, summary)
				}
			}

			if result.Err != nil {
				slog.Error("run failed", "error", result.Err)
				if result.Emitted > 0 {
					return &exitError{code: 1} // partial output was produced
				}
				return &exitError{code: 2}
			}

			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.Flags().
		IntVarP(&workers, "workers", "n", 0, "number of hashing workers (default: NumCPU)")
	rootCmd.Flags().
		IntVarP(&walkers, "walkers", "w", 0, "number of parallel directory listers (default: min(NumCPU, 8))")
	rootCmd.Flags().
		IntVar(&queueFactor, "queue-factor", engine.DefaultQueueFactor, "dispatch queue capacity as a multiple of workers (directory walks)")
	rootCmd.Flags().
		IntVarP(&digestLength, "digest-length", "d", 0, "truncate digests to this many hex characters")
	rootCmd.Flags().
		StringVarP(&algorithmStr, "algorithm", "a", "", "hash algorithm: blake3, md5, sha1, sha256, sha512 (default: blake3)")
	rootCmd.Flags().
		StringVarP(&separatorStr, "separator", "s", "", `field separator ("\t" and "\0" are recognized; default: tab)`)
	rootCmd.Flags().
		BoolVarP(&compatible, "compatible", "c", false, "md5sum-style output: digest first, two-space separator")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress and summary")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable progress display")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.Flags().StringVar(&logFile, "log", "", "write structured JSON log to FILE")
	rootCmd.Flags().
		StringVar(&bwLimitStr, "bwlimit", "", "read bandwidth limit (e.g. 100M, 1G)")

	rootCmd.AddCommand(docsCmd)

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	workers *int,
	walkers *int,
	queueFactor *int,
	algorithm *string,
	quiet *bool,
) {
	if !cmd.Flags().Changed("workers") && defaults.Workers != nil {
		*workers = *defaults.Workers
	}
	if !cmd.Flags().Changed("walkers") && defaults.Walkers != nil {
		*walkers = *defaults.Walkers
	}
	if !cmd.Flags().Changed("queue-factor") && defaults.QueueFactor != nil {
		*queueFactor = *defaults.QueueFactor
	}
	if !cmd.Flags().Changed("algorithm") && defaults.Algorithm != nil {
		*algorithm = *defaults.Algorithm
	}
	if !cmd.Flags().Changed("quiet") && defaults.Quiet != nil {
		*quiet = *defaults.Quiet
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
