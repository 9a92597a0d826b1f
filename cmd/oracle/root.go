package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"digital.vasic.oracle/pkg/assertion"
	"digital.vasic.oracle/pkg/config"
	"digital.vasic.oracle/pkg/env"
	"digital.vasic.oracle/pkg/logging"
	"digital.vasic.oracle/pkg/metrics"
	"digital.vasic.oracle/pkg/monitor"
	"digital.vasic.oracle/pkg/oracle"
	"digital.vasic.oracle/pkg/report"
)

// cliFlags holds flag values. Config fields are only overridden by
// flags that were set explicitly.
type cliFlags struct {
	configPath string
	envFile    string
	canonical  bool

	logLevel    string
	logFormat   string
	logFile     string
	ignoredLog  string
	verbose     bool
	tolerate    bool
	summaryDir  string
	historyFile string
	htmlReport  string
	jsonReport  string
	metricsFile string
	monitorAddr string
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	cmd := &cobra.Command{
		Use:   "oracle <input.jsonl> <output.jsonl>",
		Short: "Evaluate assertion records into pass/fail verdicts",
		Long: `oracle reads a JSON Lines log written by an instrumentation SDK,
groups the assertion records by id, and writes one verdict per declared
assertion to the output file as JSON Lines.

Settings are read from an optional YAML file, then ORACLE_* environment
variables (optionally loaded from an .env file), then flags.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runOracle(cmd, flags, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	f.StringVar(&flags.envFile, "env-file", "", "load ORACLE_* variables from this .env file")
	f.BoolVar(&flags.canonical, "canonical", false, "write verdicts in RFC 8785 canonical JSON")
	f.StringVar(&flags.logLevel, "log-level", "", "minimum log level (debug, info, warn, error)")
	f.StringVar(&flags.logFormat, "log-format", "", "log format (json, console)")
	f.StringVar(&flags.logFile, "log-file", "", "write the log to this file instead of stderr")
	f.StringVar(&flags.ignoredLog, "ignored-log", "", "write ignored records to this JSON Lines file")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug output")
	f.BoolVar(&flags.tolerate, "tolerate-missing-declarations", false,
		"report observed but undeclared ids instead of failing")
	f.StringVar(&flags.summaryDir, "summary-dir", "", "write JSON and Markdown run summaries here")
	f.StringVar(&flags.historyFile, "history-file", "", "append one JSON line per run to this file")
	f.StringVar(&flags.htmlReport, "html-report", "", "write an HTML run report to this file")
	f.StringVar(&flags.jsonReport, "json-report", "", "write an indented JSON run summary to this file")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	f.StringVar(&flags.monitorAddr, "monitor-addr", "", "serve the live monitor on this address")

	return cmd
}

func loadConfig(cmd *cobra.Command, flags *cliFlags) (*config.Config, error) {
	loader := env.NewLoader()
	if flags.envFile != "" {
		if err := loader.Load(flags.envFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(flags.configPath, loader)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	overrideString := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	overrideString("log-level", &cfg.LogLevel, flags.logLevel)
	overrideString("log-format", &cfg.LogFormat, flags.logFormat)
	overrideString("log-file", &cfg.LogFile, flags.logFile)
	overrideString("ignored-log", &cfg.IgnoredLog, flags.ignoredLog)
	overrideString("summary-dir", &cfg.SummaryDir, flags.summaryDir)
	overrideString("history-file", &cfg.HistoryFile, flags.historyFile)
	overrideString("html-report", &cfg.HTMLReport, flags.htmlReport)
	overrideString("json-report", &cfg.JSONReport, flags.jsonReport)
	overrideString("metrics-file", &cfg.MetricsFile, flags.metricsFile)
	overrideString("monitor-addr", &cfg.MonitorAddr, flags.monitorAddr)
	if changed("verbose") {
		cfg.Verbose = flags.verbose
	}
	if changed("tolerate-missing-declarations") {
		cfg.TolerateMissingDeclarations = flags.tolerate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, stderr io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		level = logging.LevelDebug
	}

	if cfg.LogFormat == "json" {
		return logging.NewJSONLogger(logging.LoggerConfig{
			OutputPath: cfg.LogFile,
			Output:     stderr,
			IgnoredLog: cfg.IgnoredLog,
			Level:      level,
			Verbose:    level == logging.LevelDebug,
		})
	}

	console := logging.NewConsoleLoggerTo(stderr, level == logging.LevelDebug)
	console.SetLevel(level)
	if cfg.LogFile == "" && cfg.IgnoredLog == "" {
		return console, nil
	}

	// Console output stays on stderr; the files get JSON Lines.
	fileLogger, err := logging.NewJSONLogger(logging.LoggerConfig{
		OutputPath: cfg.LogFile,
		Output:     io.Discard,
		IgnoredLog: cfg.IgnoredLog,
		Level:      level,
		Verbose:    level == logging.LevelDebug,
	})
	if err != nil {
		return nil, err
	}
	return logging.NewMultiLogger(console, fileLogger), nil
}

// reportHook writes the optional run artefacts after verdicts were
// written.
func reportHook(cfg *config.Config) oracle.Hook {
	return func(_ context.Context, res *oracle.RunResult) error {
		if cfg.SummaryDir == "" && cfg.HistoryFile == "" &&
			cfg.HTMLReport == "" && cfg.JSONReport == "" {
			return nil
		}

		summary := report.BuildSummary(res.RunID, res.Results)
		summary.GeneratedAt = res.EndTime
		summary.Duration = res.Duration
		summary.Missing = res.Missing

		if cfg.SummaryDir != "" {
			if err := report.SaveSummary(summary, cfg.SummaryDir); err != nil {
				return err
			}
		}
		if cfg.HistoryFile != "" {
			if err := report.AppendToHistory(cfg.HistoryFile, summary, res.Output); err != nil {
				return err
			}
		}
		if cfg.HTMLReport != "" {
			if err := writeSummaryReport(report.NewHTMLReporter(), summary, cfg.HTMLReport); err != nil {
				return err
			}
		}
		if cfg.JSONReport != "" {
			if err := writeSummaryReport(report.NewJSONReporter(true), summary, cfg.JSONReport); err != nil {
				return err
			}
		}
		return nil
	}
}

func writeSummaryReport(r report.Reporter, summary *report.Summary, path string) error {
	data, err := r.GenerateSummary(summary)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func runOracle(
	cmd *cobra.Command,
	flags *cliFlags,
	inputPath, outputPath string,
) (err error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logger.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	promMetrics := metrics.NewPrometheusMetrics()
	collector := monitor.NewEventCollector()

	runner, err := oracle.NewRunner(
		oracle.WithLogger(logger),
		oracle.WithMetrics(promMetrics),
		oracle.WithCollector(collector),
		oracle.WithEngine(assertion.NewEngine(
			assertion.WithTolerateMissingDeclarations(cfg.TolerateMissingDeclarations),
		)),
		oracle.WithCanonicalOutput(flags.canonical),
		oracle.WithPostHook(reportHook(cfg)),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.MonitorAddr != "" {
		server := monitor.NewServer(
			cfg.MonitorAddr,
			collector,
			monitor.BuildDashboardData(collector),
			monitor.WithMetricsHandler(promMetrics.Handler()),
		)
		logger.Info("monitor listening",
			logging.StringField("addr", cfg.MonitorAddr))
		g.Go(func() error {
			return server.Start(gctx)
		})
	}

	g.Go(func() error {
		defer cancel()
		_, runErr := runner.RunFiles(gctx, inputPath, outputPath)
		return runErr
	})
	err = g.Wait()

	if cfg.MetricsFile != "" {
		if werr := promMetrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Error("failed to write metrics", logging.ErrorField(werr))
			if err == nil {
				err = werr
			}
		}
	}
	return err
}
