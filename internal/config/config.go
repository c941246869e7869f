// Package config loads the runner configuration. Every field has a
// default mirroring the canonical deployment, so zero-config operation
// works out of the box.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for testbridge.
type Config struct {
	Android Android `yaml:"android"`
	Web     Web     `yaml:"web"`
	Output  Output  `yaml:"output"`
}

// Android configures the instrumentation runner invocation.
type Android struct {
	TestPackage     string `yaml:"test_package"`
	AppPackage      string `yaml:"app_package"`
	RunnerComponent string `yaml:"runner_component"`
	ScreenshotDir   string `yaml:"screenshot_dir"`
	LogFile         string `yaml:"log_file"`
}

// Web configures the browser end-to-end runner invocation.
type Web struct {
	Command        []string `yaml:"command"`
	WorkDir        string   `yaml:"work_dir"`
	ScreenshotsDir string   `yaml:"screenshots_dir"`
	LogFile        string   `yaml:"log_file"`
}

// Output configures where reports and the run-history index go.
type Output struct {
	File      string `yaml:"file"`
	HistoryDB string `yaml:"history_db"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML configuration file and fills unset fields with
// defaults. An empty path yields the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Android.TestPackage == "" {
		c.Android.TestPackage = "com.example.settingsautomator.test"
	}
	if c.Android.AppPackage == "" {
		c.Android.AppPackage = "com.example.settingsautomator"
	}
	if c.Android.RunnerComponent == "" {
		c.Android.RunnerComponent = c.Android.TestPackage + "/androidx.test.runner.AndroidJUnitRunner"
	}
	if c.Android.ScreenshotDir == "" {
		c.Android.ScreenshotDir = "./screenshots"
	}
	if c.Android.LogFile == "" {
		c.Android.LogFile = "debug_log.txt"
	}

	if len(c.Web.Command) == 0 {
		c.Web.Command = []string{"npx", "playwright", "test", "chrome-settings.spec.ts", "--reporter=json"}
	}
	if c.Web.WorkDir == "" {
		c.Web.WorkDir = "web_scripts"
	}
	if c.Web.ScreenshotsDir == "" {
		c.Web.ScreenshotsDir = "web_scripts/screenshots_web"
	}
	if c.Web.LogFile == "" {
		c.Web.LogFile = "playwright_output.log"
	}

	if c.Output.File == "" {
		c.Output.File = "result.json"
	}
	if c.Output.HistoryDB == "" {
		c.Output.HistoryDB = "testbridge.db"
	}
}
