// Package oracle runs the batch pipeline that turns an SDK log into
// verdicts: read and classify every line, report the records that
// take no part in evaluation, reduce the assertion instances, and
// write one JSON line per verdict. Nothing is written when any
// step before the write fails.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"digital.vasic.oracle/pkg/assertion"
	"digital.vasic.oracle/pkg/logging"
	"digital.vasic.oracle/pkg/metrics"
	"digital.vasic.oracle/pkg/monitor"
	"digital.vasic.oracle/pkg/record"
	"digital.vasic.oracle/pkg/report"
)

const tracerName = "digital.vasic.oracle/pkg/oracle"

// Hook is invoked after verdicts were written. A hook error fails
// the run but does not remove the output.
type Hook func(ctx context.Context, result *RunResult) error

// Runner evaluates SDK logs. A Runner is safe for sequential reuse;
// each Run gets a fresh run id.
type Runner struct {
	classifier *record.Classifier
	engine     assertion.Engine
	logger     logging.Logger
	metrics    metrics.OracleMetrics
	collector  *monitor.EventCollector
	tracer     trace.Tracer
	canonical  bool
	postHooks  []Hook
	newRunID   func() string
}

// NewRunner creates a Runner with the supplied options. Defaults
// are the built-in engine, no logging, no metrics and the global
// tracer provider.
func NewRunner(opts ...RunnerOption) (*Runner, error) {
	classifier, err := record.NewClassifier()
	if err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}

	r := &Runner{
		classifier: classifier,
		engine:     assertion.NewEngine(),
		logger:     logging.NullLogger{},
		metrics:    metrics.NoopMetrics{},
		tracer:     otel.Tracer(tracerName),
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// outputFunc supplies the verdict destination once evaluation has
// succeeded. commit finalises it; abort discards it.
type outputFunc func() (w io.Writer, commit func() error, abort func(), err error)

// Run evaluates the log read from in and writes verdicts to out.
func (r *Runner) Run(
	ctx context.Context,
	in io.Reader,
	out io.Writer,
) (*RunResult, error) {
	return r.run(ctx, "", "", in, func() (io.Writer, func() error, func(), error) {
		return out, func() error { return nil }, func() {}, nil
	})
}

// RunFiles evaluates inputPath and writes verdicts to outputPath.
// The output file only appears once all verdicts were written; a
// failed run leaves any previous file untouched.
func (r *Runner) RunFiles(
	ctx context.Context,
	inputPath, outputPath string,
) (*RunResult, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = in.Close() }()

	return r.run(ctx, inputPath, outputPath, in, func() (io.Writer, func() error, func(), error) {
		return atomicFile(outputPath)
	})
}

// atomicFile writes to a temporary sibling of path and renames it
// into place on commit.
func atomicFile(path string) (io.Writer, func() error, func(), error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create output: %w", err)
	}

	abort := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	commit := func() error {
		if err := tmp.Chmod(0644); err != nil {
			abort()
			return fmt.Errorf("write output: %w", err)
		}
		if err := tmp.Close(); err != nil {
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("write output: %w", err)
		}
		if err := os.Rename(tmp.Name(), path); err != nil {
			_ = os.Remove(tmp.Name())
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}
	return tmp, commit, abort, nil
}

func (r *Runner) run(
	ctx context.Context,
	inputPath, outputPath string,
	in io.Reader,
	output outputFunc,
) (*RunResult, error) {
	res := &RunResult{
		RunID:     r.newRunID(),
		Input:     inputPath,
		Output:    outputPath,
		StartTime: time.Now(),
	}
	log := r.logger.WithFields(logging.RunIDField(res.RunID))

	ctx, span := r.tracer.Start(ctx, "oracle.Run",
		trace.WithAttributes(
			attribute.String("oracle.run_id", res.RunID),
			attribute.String("oracle.input", inputPath),
		),
	)
	defer span.End()

	log.Info("oracle run started", logging.StringField("input", inputPath))
	if r.collector != nil {
		r.collector.EmitRunStarted(res.RunID, inputPath)
	}

	fail := func(err error) (*RunResult, error) {
		r.finish(res)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("oracle run failed",
			logging.ErrorField(err),
			logging.DurationField("duration", res.Duration),
		)
		r.metrics.ObserveRun(StatusError, res.Duration)
		if r.collector != nil {
			r.collector.EmitRunFailed(res.RunID, err.Error())
		}
		return res, err
	}

	instances, err := r.classify(ctx, log, in, res)
	if err != nil {
		return fail(err)
	}

	eval, err := r.evaluate(ctx, log, instances, res)
	if err != nil {
		return fail(err)
	}
	res.Results = eval.Results
	res.Missing = eval.Missing

	if err := r.write(ctx, output, eval.Results); err != nil {
		return fail(err)
	}

	for _, v := range res.Results {
		r.metrics.RecordVerdict(string(v.AssertType), v.Passed)
		if r.collector != nil {
			r.collector.EmitVerdict(res.RunID, v)
		}
		if !v.Passed {
			log.Warn("assertion failed",
				logging.AssertionIDField(v.ID),
				logging.StringField("display_type", v.DisplayType),
				logging.StringField("reason", v.Reason),
			)
		} else {
			log.Debug("assertion passed", logging.AssertionIDField(v.ID))
		}
	}
	r.finish(res)

	for _, hook := range r.postHooks {
		if err := hook(ctx, res); err != nil {
			return fail(fmt.Errorf("post-run hook: %w", err))
		}
	}

	span.SetAttributes(
		attribute.Int("oracle.records", res.Records),
		attribute.Int("oracle.verdicts", len(res.Results)),
		attribute.Int("oracle.failed", res.Failed()),
	)
	log.Info("oracle run completed",
		logging.StringField("status", res.Status()),
		logging.IntField("verdicts", len(res.Results)),
		logging.IntField("passed", res.Passed()),
		logging.IntField("failed", res.Failed()),
		logging.IntField("ignored", res.Ignored),
		logging.DurationField("duration", res.Duration),
	)
	r.metrics.ObserveRun(res.Status(), res.Duration)
	if r.collector != nil {
		r.collector.EmitRunCompleted(res.RunID, res.Duration)
	}
	return res, nil
}

func (r *Runner) finish(res *RunResult) {
	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)
}

// classify decodes the stream and splits assertion instances from
// the records that are only reported.
func (r *Runner) classify(
	ctx context.Context,
	log logging.Logger,
	in io.Reader,
	res *RunResult,
) ([]record.AssertionInstance, error) {
	ctx, span := r.tracer.Start(ctx, "oracle.classify")
	defer span.End()

	var instances []record.AssertionInstance
	err := record.NewDecoder(r.classifier).Each(in, func(rec record.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Records++
		r.metrics.RecordClassified(rec.Kind.String())

		if rec.Kind == record.KindAssertion {
			instances = append(instances, *rec.Assertion)
			return nil
		}

		res.Ignored++
		r.reportIgnored(log, res.RunID, rec)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	res.Instances = len(instances)
	span.SetAttributes(
		attribute.Int("oracle.records", res.Records),
		attribute.Int("oracle.ignored", res.Ignored),
	)
	return instances, nil
}

func (r *Runner) reportIgnored(
	log logging.Logger,
	runID string,
	rec record.Record,
) {
	entry := logging.IgnoredRecordLog{
		RunID: runID,
		Line:  rec.Line,
		Kind:  rec.Kind.String(),
	}
	switch rec.Kind {
	case record.KindEvent:
		entry.Name = rec.Event.Name
		entry.Details = rec.Event.Details
	case record.KindSetup:
		entry.Name = rec.Setup.Status
		entry.Details = rec.Setup.Details
	case record.KindSDK:
		entry.Name = rec.SDK.Language
	}

	fields := []logging.Field{
		logging.LineField(rec.Line),
		logging.StringField("kind", entry.Kind),
	}
	if entry.Name != "" {
		fields = append(fields, logging.StringField("name", entry.Name))
	}
	log.Warn("IGNORE unclassified record", fields...)
	log.LogIgnored(entry)

	if r.collector != nil {
		r.collector.EmitRecordIgnored(runID, rec.Line, entry.Kind, entry.Name)
	}
}

func (r *Runner) evaluate(
	ctx context.Context,
	log logging.Logger,
	instances []record.AssertionInstance,
	res *RunResult,
) (*assertion.Evaluation, error) {
	_, span := r.tracer.Start(ctx, "oracle.evaluate",
		trace.WithAttributes(attribute.Int("oracle.instances", len(instances))),
	)
	defer span.End()

	eval, err := r.engine.Evaluate(instances)

	missing := MissingIDs(err)
	if eval != nil {
		missing = eval.Missing
	}
	for _, id := range missing {
		r.metrics.RecordMissingDeclaration()
		if r.collector != nil {
			r.collector.EmitMissingDeclaration(res.RunID, id)
		}
		log.Error("assertion observed without declaration",
			logging.AssertionIDField(id))
	}

	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return eval, nil
}

func (r *Runner) write(
	ctx context.Context,
	output outputFunc,
	results []assertion.Result,
) error {
	_, span := r.tracer.Start(ctx, "oracle.write",
		trace.WithAttributes(attribute.Int("oracle.verdicts", len(results))),
	)
	defer span.End()

	w, commit, abort, err := output()
	if err != nil {
		span.RecordError(err)
		return err
	}

	vw := report.NewVerdictWriter(w)
	vw.SetCanonical(r.canonical)
	if err := vw.WriteAll(results); err != nil {
		abort()
		err = fmt.Errorf("write verdicts: %w", err)
		span.RecordError(err)
		return err
	}
	if err := commit(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// MissingIDs extracts the ids of every MissingDeclarationError in
// err, including errors joined with errors.Join.
func MissingIDs(err error) []string {
	if err == nil {
		return nil
	}
	var ids []string
	var walk func(error)
	walk = func(e error) {
		var mde *assertion.MissingDeclarationError
		if m, ok := e.(*assertion.MissingDeclarationError); ok {
			ids = append(ids, m.ID)
			return
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		if errors.As(e, &mde) {
			ids = append(ids, mde.ID)
		}
	}
	walk(err)
	return ids
}
