package runner

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"testbridge/internal/abort"
	"testbridge/internal/adapters/instrumentation"
	"testbridge/internal/config"
	"testbridge/internal/job"
	"testbridge/internal/model"
)

// Android drives one instrumentation run end to end: clear logcat,
// supervise `am instrument -w`, gather device artifacts, and hand the
// captured output to the instrumentation adapter.
type Android struct {
	Config   config.Android
	Launcher Launcher
	Env      EnvironmentDescriber
	Shots    ArtifactCollector
	Logs     LogWriter
	// Settle gives logcat a moment to flush the final events before
	// the verbose dump is taken.
	Settle time.Duration
}

// NewAndroid wires an Android runner with its adb-backed collaborators.
func NewAndroid(cfg config.Android, launcher Launcher) *Android {
	return &Android{
		Config:   cfg,
		Launcher: launcher,
		Env:      AdbEnvironment{Launcher: launcher},
		Shots: AdbScreenshots{
			Launcher:   launcher,
			AppPackage: cfg.AppPackage,
			PullDir:    cfg.ScreenshotDir,
		},
		Logs:   FileLogWriter{Path: cfg.LogFile},
		Settle: 2 * time.Second,
	}
}

// Run supervises the instrumentation process and returns the canonical
// report. When tok was triggered before the process exited normally, a
// best-effort ABORTED report is returned instead.
func (a *Android) Run(ctx context.Context, tok *abort.Token, j *job.Job) (*model.CanonicalReport, error) {
	suite := j.SuiteName("Unknown Test Suite")

	// Start from a clean buffer so the verbose dump covers this run only.
	if _, err := a.Launcher.Run(ctx, Command{Name: "adb", Args: []string{"logcat", "-c"}}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: clear logcat: %v\n", err)
	}

	out, err := a.Launcher.Run(ctx, Command{
		Name: "adb",
		Args: []string{"shell", "am", "instrument", "-w", a.Config.RunnerComponent},
	})
	if err != nil && !tok.Triggered() {
		return nil, err
	}

	if tok.Triggered() {
		return a.abortReport(ctx, j), nil
	}

	summary := out.Stdout
	if !strings.Contains(summary, "FAILURES!!!") && !strings.Contains(summary, "OK") {
		return nil, &UpstreamError{
			Runner: "instrumentation",
			Reason: fmt.Sprintf("summary has neither success nor failure markers; stderr: %s", strings.TrimSpace(out.Stderr)),
		}
	}

	if a.Settle > 0 {
		time.Sleep(a.Settle)
	}

	env := a.Env.Describe(ctx)
	shots := a.Shots.Collect(ctx)

	verbose, err := a.Launcher.Run(ctx, Command{Name: "adb", Args: []string{"logcat", "-d", "-s", "TestRunner"}})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: dump verbose log: %v\n", err)
	}

	logPath, err := a.Logs.Write([]LogSection{
		{Title: "Summary Report (from am instrument)", Body: summary},
		{Title: "Verbose Log (from logcat)", Body: verbose.Stdout},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	report := instrumentation.Transform(instrumentation.Input{
		Summary:   summary,
		Verbose:   verbose.Stdout,
		SuiteName: suite,
	})
	report.JobID = j.ID
	report.Project = j.Field("project", "")
	report.Details = j.Details
	report.Logs = logPath
	report.EnvironmentSnapshot = env
	report.Screenshots = shots
	return report, nil
}

// abortReport force-stops the test package on-device and builds the
// ABORTED report from whatever can still be gathered. The cancelled
// context must not poison the cleanup calls.
func (a *Android) abortReport(ctx context.Context, j *job.Job) *model.CanonicalReport {
	ctx = context.WithoutCancel(ctx)

	if _, err := a.Launcher.Run(ctx, Command{
		Name: "adb",
		Args: []string{"shell", "am", "force-stop", a.Config.TestPackage},
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: force-stop %s: %v\n", a.Config.TestPackage, err)
	}

	report := model.NewReport()
	report.JobID = j.ID
	report.Project = j.Field("project", "")
	report.Details = j.Details
	report.EnvironmentSnapshot = a.Env.Describe(ctx)
	report.Screenshots = a.Shots.Collect(ctx)
	report.OverlayAbort()
	return report
}
