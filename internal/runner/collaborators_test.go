package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"testbridge/internal/model"
)

func TestFileLogWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug_log.txt")
	w := FileLogWriter{Path: path}

	got, err := w.Write([]LogSection{
		{Title: "Summary Report (from am instrument)", Body: "OK (3 tests)"},
		{Title: "Verbose Log (from logcat)", Body: "lines here"},
	})
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if got != path {
		t.Errorf("Write() path = %q, want %q", got, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	want := "--- Summary Report (from am instrument) ---\nOK (3 tests)\n\n--- Verbose Log (from logcat) ---\nlines here"
	if string(data) != want {
		t.Errorf("artifact = %q, want %q", string(data), want)
	}
}

func TestFileLogWriterBadPath(t *testing.T) {
	w := FileLogWriter{Path: filepath.Join(t.TempDir(), "missing", "log.txt")}
	if _, err := w.Write([]LogSection{{Title: "t", Body: "b"}}); err == nil {
		t.Fatal("Write() expected error for unwritable path")
	}
}

func TestDirScreenshots(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.PNG", "notes.txt", "c.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got := DirScreenshots{Dir: dir}.Collect(context.Background())

	// Directory order, PNGs only, case-insensitive extension match.
	want := []string{
		filepath.ToSlash(filepath.Join(dir, "a.PNG")),
		filepath.ToSlash(filepath.Join(dir, "b.png")),
	}
	if len(got) != len(want) {
		t.Fatalf("Collect() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Collect()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDirScreenshotsMissingDir(t *testing.T) {
	got := DirScreenshots{Dir: filepath.Join(t.TempDir(), "nope")}.Collect(context.Background())
	if got == nil || len(got) != 0 {
		t.Errorf("Collect() = %v, want empty non-nil slice", got)
	}
}

func TestAdbEnvironment(t *testing.T) {
	fl := &fakeLauncher{outputs: map[string]Output{
		"adb shell getprop ro.product.model":         {Stdout: "Pixel 8\n"},
		"adb shell getprop ro.build.version.release": {Stdout: "14\n"},
	}}

	got := AdbEnvironment{Launcher: fl}.Describe(context.Background())
	want := model.EnvironmentSnapshot{DeviceType: "Pixel 8", OS: "Android 14"}
	if got != want {
		t.Errorf("Describe() = %+v, want %+v", got, want)
	}
}

func TestAdbEnvironmentFallbacks(t *testing.T) {
	fl := &fakeLauncher{}

	got := AdbEnvironment{Launcher: fl}.Describe(context.Background())
	want := model.EnvironmentSnapshot{DeviceType: "Unknown", OS: "Unknown OS"}
	if got != want {
		t.Errorf("Describe() = %+v, want %+v", got, want)
	}
}

func TestHostEnvironment(t *testing.T) {
	got := HostEnvironment{}.Describe(context.Background())
	if got.DeviceType != "Desktop" || got.OS == "" {
		t.Errorf("Describe() = %+v", got)
	}
}

func TestExecLauncher(t *testing.T) {
	out, err := ExecLauncher{}.Run(context.Background(), Command{
		Name: "sh", Args: []string{"-c", "echo out; echo err 1>&2"},
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out.Stdout != "out\n" {
		t.Errorf("Stdout = %q, want out\\n", out.Stdout)
	}
	if out.Stderr != "err\n" {
		t.Errorf("Stderr = %q, want err\\n", out.Stderr)
	}
	if out.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", out.ExitCode)
	}
}

func TestExecLauncherNonZeroExit(t *testing.T) {
	// Failing tests exit non-zero; that is data, not an error.
	out, err := ExecLauncher{}.Run(context.Background(), Command{
		Name: "sh", Args: []string{"-c", "exit 3"},
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", out.ExitCode)
	}
}

func TestExecLauncherMissingBinary(t *testing.T) {
	if _, err := (ExecLauncher{}).Run(context.Background(), Command{Name: "definitely-not-a-binary-xyz"}); err == nil {
		t.Fatal("Run() expected error for missing binary")
	}
}
