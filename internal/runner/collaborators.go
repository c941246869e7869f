package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"testbridge/internal/model"
)

// AdbEnvironment describes the connected device via adb getprop.
// Lookup failures degrade to placeholder values.
type AdbEnvironment struct {
	Launcher Launcher
}

func (e AdbEnvironment) Describe(ctx context.Context) model.EnvironmentSnapshot {
	snap := model.EnvironmentSnapshot{DeviceType: "Unknown", OS: "Unknown OS"}

	if out, err := e.Launcher.Run(ctx, Command{Name: "adb", Args: []string{"shell", "getprop", "ro.product.model"}}); err == nil {
		if v := strings.TrimSpace(out.Stdout); v != "" {
			snap.DeviceType = v
		}
	}
	if out, err := e.Launcher.Run(ctx, Command{Name: "adb", Args: []string{"shell", "getprop", "ro.build.version.release"}}); err == nil {
		if v := strings.TrimSpace(out.Stdout); v != "" {
			snap.OS = "Android " + v
		}
	}
	return snap
}

// HostEnvironment describes the machine the browser tests ran on.
type HostEnvironment struct{}

func (HostEnvironment) Describe(ctx context.Context) model.EnvironmentSnapshot {
	return model.EnvironmentSnapshot{DeviceType: "Desktop", OS: runtime.GOOS}
}

// AdbScreenshots pulls the test app's files directory off the device
// and lists the PNG files that landed in the local pull directory.
type AdbScreenshots struct {
	Launcher   Launcher
	AppPackage string
	PullDir    string
}

func (s AdbScreenshots) Collect(ctx context.Context) []string {
	if err := os.MkdirAll(s.PullDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "warning: create screenshot dir %s: %v\n", s.PullDir, err)
		return []string{}
	}

	remote := fmt.Sprintf("/sdcard/android/data/%s/files/.", s.AppPackage)
	if _, err := s.Launcher.Run(ctx, Command{Name: "adb", Args: []string{"pull", remote, s.PullDir}}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: pull screenshots: %v\n", err)
	}

	return listPNGs(s.PullDir)
}

// DirScreenshots lists PNG files already present in a local directory.
type DirScreenshots struct {
	Dir string
}

func (s DirScreenshots) Collect(ctx context.Context) []string {
	return listPNGs(s.Dir)
}

func listPNGs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []string{}
	}

	paths := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".png") {
			paths = append(paths, filepath.ToSlash(filepath.Join(dir, entry.Name())))
		}
	}
	return paths
}

// FileLogWriter concatenates titled sections into a single log
// artifact at a fixed path.
type FileLogWriter struct {
	Path string
}

func (w FileLogWriter) Write(sections []LogSection) (string, error) {
	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("--- " + s.Title + " ---\n")
		b.WriteString(s.Body)
	}

	if err := os.WriteFile(w.Path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("write log artifact %s: %w", w.Path, err)
	}
	return w.Path, nil
}
