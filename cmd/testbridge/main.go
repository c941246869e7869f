// Package main is the entry point for the testbridge CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"testbridge/internal/abort"
	"testbridge/internal/config"
	"testbridge/internal/history"
	"testbridge/internal/job"
	"testbridge/internal/model"
	"testbridge/internal/report"
	"testbridge/internal/runner"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "testbridge",
		Short:        "Normalize device and browser test runner output into one canonical JSON report",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")

	root.AddCommand(newAndroidCmd(&configPath))
	root.AddCommand(newWebCmd(&configPath))
	root.AddCommand(newHistoryCmd(&configPath))
	return root
}

// bridgeRunner is what both runner orchestrations look like to the CLI.
type bridgeRunner interface {
	Run(ctx context.Context, tok *abort.Token, j *job.Job) (*model.CanonicalReport, error)
}

func newAndroidCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "android '<json metadata>'",
		Short: "Run the Android instrumentation suite and emit a canonical report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBridge(*configPath, args[0], func(cfg *config.Config, launcher runner.Launcher) bridgeRunner {
				return runner.NewAndroid(cfg.Android, launcher)
			})
		},
	}
}

func newWebCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "web '<json metadata>'",
		Short: "Run the browser end-to-end suite and emit a canonical report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBridge(*configPath, args[0], func(cfg *config.Config, launcher runner.Launcher) bridgeRunner {
				return runner.NewWeb(cfg.Web, launcher)
			})
		},
	}
}

func newHistoryCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.Output.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			entries, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "JOB\tSUITE\tSTATUS\tPASSRATE\tDURATION\tFINGERPRINT\tCREATED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.3fs\t%s\t%s\n",
					e.JobID, e.Suite, e.Status, e.Passrate, e.DurationSeconds,
					shortFingerprint(e.Fingerprint), e.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

// runBridge is the shared flow of the android and web subcommands:
// parse the metadata argument, supervise the run with abort handling,
// then emit the report. A produced report always means exit code 0,
// ABORTED and FAILED included.
func runBridge(configPath, metadata string, build func(*config.Config, runner.Launcher) bridgeRunner) error {
	j, err := job.Parse(metadata)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	tok := abort.NewToken()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		// First signal wins. The handler only flags and forwards; the
		// abort-path report is built in the main flow after the child
		// has exited.
		tok.Trigger()
		cancel()
	}()

	br := build(cfg, runner.ExecLauncher{})
	rep, err := br.Run(ctx, tok, j)
	if err != nil {
		return err
	}

	return emit(cfg, rep)
}

// emit serializes the report, mirrors it to the fixed-name artifact
// and stdout, and records it in the history index. Only a failed
// serialization prevents emission; everything else degrades to a
// stderr warning.
func emit(cfg *config.Config, rep *model.CanonicalReport) error {
	data, err := report.Marshal(rep)
	if err != nil {
		return err
	}

	if err := report.Validate(data); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if err := report.WriteFile(cfg.Output.File, data); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	fmt.Println(string(data))

	fingerprint, err := report.Fingerprint(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return nil
	}
	fmt.Fprintf(os.Stderr, "report %s fingerprint %s\n", rep.JobID, fingerprint)

	recordHistory(cfg, rep, fingerprint)
	return nil
}

func recordHistory(cfg *config.Config, rep *model.CanonicalReport, fingerprint string) {
	store, err := history.Open(cfg.Output.HistoryDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.Record(ctx, rep, fingerprint); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
