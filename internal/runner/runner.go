// Package runner supervises the external test runner processes and
// provides the collaborator interfaces the orchestration consumes:
// process launcher, environment describer, artifact collector, and
// log writer.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"testbridge/internal/model"
)

// Command describes one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Interrupt requests SIGINT delivery to the whole process group on
	// cancellation instead of a hard kill, giving the runner a chance
	// to flush its final report.
	Interrupt bool
}

// Output captures a finished process's streams and exit code.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Launcher starts an external command and blocks until it exits.
// A non-zero exit code is not an error; failing tests exit non-zero.
type Launcher interface {
	Run(ctx context.Context, c Command) (Output, error)
}

// EnvironmentDescriber reports what the tests ran on.
type EnvironmentDescriber interface {
	Describe(ctx context.Context) model.EnvironmentSnapshot
}

// ArtifactCollector returns collected screenshot paths, in order,
// empty when none were found.
type ArtifactCollector interface {
	Collect(ctx context.Context) []string
}

// LogSection is one titled chunk of raw runner output.
type LogSection struct {
	Title string
	Body  string
}

// LogWriter persists raw runner output to a named artifact whose path
// goes into the report.
type LogWriter interface {
	Write(sections []LogSection) (string, error)
}

// UpstreamError reports runner output that carried no usable result
// signal at all. Execution aborts without emitting a report.
type UpstreamError struct {
	Runner string
	Reason string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s runner: %s", e.Runner, e.Reason)
}

// ExecLauncher runs commands via os/exec.
type ExecLauncher struct{}

// Run executes the command and blocks until it exits. When the context
// is cancelled mid-run the partial output captured so far is returned
// without an error; the caller decides what an aborted run means.
func (ExecLauncher) Run(ctx context.Context, c Command) (Output, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if c.Interrupt {
		// The runner may own child processes of its own; put it in its
		// own group so the interrupt reaches all of them.
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		cmd.Cancel = func() error {
			return syscall.Kill(-cmd.Process.Pid, syscall.SIGINT)
		}
		cmd.WaitDelay = 10 * time.Second
	}

	err := cmd.Run()

	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if ctx.Err() != nil {
			return out, nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, nil
		}
		return out, fmt.Errorf("run %s: %w", c.Name, err)
	}
	return out, nil
}
