package runner

import (
	"context"
	"fmt"
	"os"
	"strings"

	"testbridge/internal/abort"
	"testbridge/internal/adapters/playwright"
	"testbridge/internal/config"
	"testbridge/internal/job"
	"testbridge/internal/model"
)

// Web drives one browser end-to-end run: supervise the Playwright
// command, persist its streams, and hand the JSON reporter output to
// the playwright adapter.
type Web struct {
	Config   config.Web
	Launcher Launcher
	Env      EnvironmentDescriber
	Shots    ArtifactCollector
	Logs     LogWriter
}

// NewWeb wires a Web runner with its host-side collaborators.
func NewWeb(cfg config.Web, launcher Launcher) *Web {
	return &Web{
		Config:   cfg,
		Launcher: launcher,
		Env:      HostEnvironment{},
		Shots:    DirScreenshots{Dir: cfg.ScreenshotsDir},
		Logs:     FileLogWriter{Path: cfg.LogFile},
	}
}

// Run supervises the Playwright process and returns the canonical
// report. The process receives an interrupt rather than a hard kill on
// cancellation so it can still emit a final report; whatever it
// produced is transformed normally and then overlaid as ABORTED.
func (w *Web) Run(ctx context.Context, tok *abort.Token, j *job.Job) (*model.CanonicalReport, error) {
	suite := j.SuiteName("UnknownSuite")

	out, err := w.Launcher.Run(ctx, Command{
		Name:      w.Config.Command[0],
		Args:      w.Config.Command[1:],
		Dir:       w.Config.WorkDir,
		Interrupt: true,
	})
	if err != nil && !tok.Triggered() {
		return nil, err
	}

	logPath, lerr := w.Logs.Write([]LogSection{
		{Title: "Playwright stdout", Body: out.Stdout},
		{Title: "Playwright stderr", Body: out.Stderr},
	})
	if lerr != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", lerr)
	}

	if out.ExitCode != 0 && strings.TrimSpace(out.Stdout) == "" && !tok.Triggered() {
		return nil, &UpstreamError{
			Runner: "playwright",
			Reason: fmt.Sprintf("exited with code %d and produced no report output", out.ExitCode),
		}
	}

	report, terr := playwright.Transform([]byte(out.Stdout), suite)
	if terr != nil {
		if !tok.Triggered() {
			return nil, terr
		}
		// Interrupted before the runner could flush a report; fall
		// back to an empty aborted report.
		report = model.NewReport()
	}

	ctx = context.WithoutCancel(ctx)
	report.JobID = j.ID
	report.Project = j.Field("platform", "Unknown")
	report.Details = j.Details
	report.Logs = logPath
	report.EnvironmentSnapshot = w.Env.Describe(ctx)
	report.Screenshots = w.Shots.Collect(ctx)

	if tok.Triggered() {
		report.OverlayAbort()
	}
	return report, nil
}
