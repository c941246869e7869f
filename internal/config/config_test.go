package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Android.TestPackage != "com.example.settingsautomator.test" {
		t.Errorf("TestPackage = %q", cfg.Android.TestPackage)
	}
	if cfg.Android.RunnerComponent != "com.example.settingsautomator.test/androidx.test.runner.AndroidJUnitRunner" {
		t.Errorf("RunnerComponent = %q", cfg.Android.RunnerComponent)
	}
	if cfg.Web.WorkDir != "web_scripts" {
		t.Errorf("WorkDir = %q", cfg.Web.WorkDir)
	}
	if len(cfg.Web.Command) == 0 || cfg.Web.Command[0] != "npx" {
		t.Errorf("Command = %v", cfg.Web.Command)
	}
	if cfg.Output.File != "result.json" {
		t.Errorf("Output.File = %q", cfg.Output.File)
	}
	if cfg.Output.HistoryDB != "testbridge.db" {
		t.Errorf("Output.HistoryDB = %q", cfg.Output.HistoryDB)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Android.LogFile != "debug_log.txt" {
		t.Errorf("LogFile = %q", cfg.Android.LogFile)
	}
}

func TestLoadOverridesAndDerives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testbridge.yaml")
	content := `
android:
  test_package: com.acme.app.test
  screenshot_dir: /tmp/shots
web:
  command: ["npx", "playwright", "test", "--reporter=json"]
output:
  file: out.json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Android.TestPackage != "com.acme.app.test" {
		t.Errorf("TestPackage = %q", cfg.Android.TestPackage)
	}
	// The runner component derives from the overridden test package.
	if cfg.Android.RunnerComponent != "com.acme.app.test/androidx.test.runner.AndroidJUnitRunner" {
		t.Errorf("RunnerComponent = %q", cfg.Android.RunnerComponent)
	}
	if cfg.Android.ScreenshotDir != "/tmp/shots" {
		t.Errorf("ScreenshotDir = %q", cfg.Android.ScreenshotDir)
	}
	if len(cfg.Web.Command) != 4 {
		t.Errorf("Command = %v", cfg.Web.Command)
	}
	if cfg.Output.File != "out.json" {
		t.Errorf("Output.File = %q", cfg.Output.File)
	}
	// Untouched fields keep their defaults.
	if cfg.Web.LogFile != "playwright_output.log" {
		t.Errorf("Web.LogFile = %q", cfg.Web.LogFile)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("android: ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
}
