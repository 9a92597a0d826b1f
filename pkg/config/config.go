// Package config loads oracle settings from a YAML file, applies
// ORACLE_* environment overrides, and validates the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"digital.vasic.oracle/pkg/env"
)

// Config holds the runtime settings of an oracle run. The input
// and output paths are positional CLI arguments and not part of
// the file.
type Config struct {
	// LogLevel is the minimum level written.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects JSON Lines or coloured console output.
	LogFormat string `yaml:"log_format" validate:"oneof=json console"`

	// LogFile receives the log instead of stderr when set.
	LogFile string `yaml:"log_file" validate:"omitempty,filepath"`

	// IgnoredLog receives one JSON line per record excluded from
	// evaluation when set.
	IgnoredLog string `yaml:"ignored_log" validate:"omitempty,filepath"`

	// Verbose forces debug output.
	Verbose bool `yaml:"verbose"`

	// TolerateMissingDeclarations reports undeclared ids instead
	// of failing the run.
	TolerateMissingDeclarations bool `yaml:"tolerate_missing_declarations"`

	// SummaryDir receives JSON and Markdown run summaries.
	SummaryDir string `yaml:"summary_dir" validate:"omitempty,dirpath|filepath"`

	// HistoryFile gets one JSON line appended per run.
	HistoryFile string `yaml:"history_file" validate:"omitempty,filepath"`

	// HTMLReport is written as a standalone HTML verdict report.
	HTMLReport string `yaml:"html_report" validate:"omitempty,filepath"`

	// JSONReport is written as an indented JSON run summary.
	JSONReport string `yaml:"json_report" validate:"omitempty,filepath"`

	// MetricsFile is written in the Prometheus text format.
	MetricsFile string `yaml:"metrics_file" validate:"omitempty,filepath"`

	// MonitorAddr starts the live monitor server when set.
	MonitorAddr string `yaml:"monitor_addr" validate:"omitempty,hostname_port"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load reads path on top of the defaults and applies environment
// overrides from loader. An empty path skips the file.
func Load(path string, loader env.Loader) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if loader != nil {
		if err := cfg.ApplyEnv(loader); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields with ORACLE_* variables that are set.
func (c *Config) ApplyEnv(loader env.Loader) error {
	strs := map[string]*string{
		"log_level":    &c.LogLevel,
		"log_format":   &c.LogFormat,
		"log_file":     &c.LogFile,
		"ignored_log":  &c.IgnoredLog,
		"summary_dir":  &c.SummaryDir,
		"history_file": &c.HistoryFile,
		"html_report":  &c.HTMLReport,
		"json_report":  &c.JSONReport,
		"metrics_file": &c.MetricsFile,
		"monitor_addr": &c.MonitorAddr,
	}
	for key, field := range strs {
		if v, ok := loader.Lookup(key); ok {
			*field = strings.TrimSpace(v)
		}
	}

	bools := map[string]*bool{
		"verbose":                       &c.Verbose,
		"tolerate_missing_declarations": &c.TolerateMissingDeclarations,
	}
	for key, field := range bools {
		v, set, err := loader.GetBool(key)
		if err != nil {
			return fmt.Errorf("environment override: %w", err)
		}
		if set {
			*field = v
		}
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf(
					"%s fails %q (got %v)", fe.Field(), fe.Tag(), fe.Value(),
				))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
