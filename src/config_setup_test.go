package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Source != "" || cfg.QualityCheck != nil {
		t.Errorf("cfg = %+v, want empty", cfg)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tidy.yaml")
	config := &Config{
		SourcePath:          "/photos/inbox",
		DestPath:            "/photos/library",
		OpenCageKey:         "secret",
		QualityCheck:        false,
		BrightnessThreshold: 30,
	}

	if err := saveConfig(path, configFileFrom(config)); err != nil {
		t.Fatalf("saveConfig: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	cf, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	got := &Config{QualityCheck: true, BrightnessThreshold: defaultBrightnessThreshold}
	cf.apply(got, func(string) bool { return false })
	if *got != *config {
		t.Errorf("config = %+v, want %+v", got, config)
	}
}

func TestApplyKeepsCommandLineValues(t *testing.T) {
	quality := false
	cf := &ConfigFile{
		Source:              "/from/file",
		Destination:         "/dest/file",
		QualityCheck:        &quality,
		BrightnessThreshold: 40,
	}

	config := &Config{SourcePath: "/from/flag", QualityCheck: true, BrightnessThreshold: 25}
	cf.apply(config, func(name string) bool { return name == "source" || name == "no-quality" })

	if config.SourcePath != "/from/flag" {
		t.Errorf("source = %q, want the flag value", config.SourcePath)
	}
	if config.DestPath != "/dest/file" {
		t.Errorf("dest = %q, want the file value", config.DestPath)
	}
	if !config.QualityCheck {
		t.Error("quality check overridden despite --no-quality being set")
	}
	if config.BrightnessThreshold != 40 {
		t.Errorf("threshold = %v, want 40", config.BrightnessThreshold)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("source: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}
