package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFile represents the YAML configuration
type ConfigFile struct {
	Source              string  `yaml:"source,omitempty"`
	Destination         string  `yaml:"destination,omitempty"`
	OpenCageAPIKey      string  `yaml:"opencage_api_key,omitempty"`
	ReportDB            string  `yaml:"report_db,omitempty"`
	QualityCheck        *bool   `yaml:"quality_check,omitempty"`
	BrightnessThreshold float64 `yaml:"brightness_threshold,omitempty"`
}

// getConfigPath returns the path to the config file
func getConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tidy-media.yaml"
	}
	return filepath.Join(home, ".tidy-media.yaml")
}

// loadConfig loads configuration from a YAML file; a missing file yields
// an empty configuration
func loadConfig(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &ConfigFile{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// saveConfig saves configuration to a YAML file
func saveConfig(path string, cfg *ConfigFile) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// apply fills the fields of config that were not set on the command line
func (cf *ConfigFile) apply(config *Config, set func(flag string) bool) {
	if !set("source") && cf.Source != "" {
		config.SourcePath = cf.Source
	}
	if !set("dest") && cf.Destination != "" {
		config.DestPath = cf.Destination
	}
	if !set("opencage-key") && cf.OpenCageAPIKey != "" {
		config.OpenCageKey = cf.OpenCageAPIKey
	}
	if !set("report-db") && cf.ReportDB != "" {
		config.ReportDB = cf.ReportDB
	}
	if !set("no-quality") && cf.QualityCheck != nil {
		config.QualityCheck = *cf.QualityCheck
	}
	if !set("brightness-threshold") && cf.BrightnessThreshold > 0 {
		config.BrightnessThreshold = cf.BrightnessThreshold
	}
}

// configFileFrom captures the persistent parts of config
func configFileFrom(config *Config) *ConfigFile {
	quality := config.QualityCheck
	return &ConfigFile{
		Source:              config.SourcePath,
		Destination:         config.DestPath,
		OpenCageAPIKey:      config.OpenCageKey,
		ReportDB:            config.ReportDB,
		QualityCheck:        &quality,
		BrightnessThreshold: config.BrightnessThreshold,
	}
}
