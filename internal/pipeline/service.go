package pipeline

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/your-org/sciflow/internal/audit"
	"github.com/your-org/sciflow/internal/calibration"
	"github.com/your-org/sciflow/internal/metrics"
	"github.com/your-org/sciflow/internal/routing"
	"github.com/your-org/sciflow/internal/scifile"
	"github.com/your-org/sciflow/pkg/notify"
	"github.com/your-org/sciflow/pkg/storage/objectstore"
)

// Request is the immutable input to one pipeline run, created once per
// triggering storage event.
type Request struct {
	SourceBucket string
	ObjectKey    string
	Environment  routing.Environment
	DryRun       bool
	// CalibratedName substitutes the calibration output filename. Dry runs
	// skip calibration entirely, so callers supply a synthetic calibrated
	// name to keep destination addressing testable.
	CalibratedName string
}

// Result reports where one run landed its artifact.
type Result struct {
	RunID             string
	Instrument        string
	DestinationBucket string
	DestinationKey    string
	Published         bool
	SkippedExisting   bool
}

// Options tune a Service for offline and test execution.
type Options struct {
	// LocalFilePath bypasses both fetch and publish, running the transform
	// against a file already on disk.
	LocalFilePath string
	// FixturePath substitutes bundled fixture data for the fetched input
	// when UseFixture is set.
	UseFixture  bool
	FixturePath string
}

// Params collects the collaborators a Service needs.
type Params struct {
	Store      objectstore.Client
	Router     *routing.Router
	Dispatcher calibration.Dispatcher
	Audit      audit.Sink
	Notifier   notify.Notifier
	Metrics    metrics.Metrics
	Logger     *zap.Logger
	Options    Options
}

// Service runs the file-processing pipeline: parse, route, fetch,
// calibrate, publish, audit, notify. One file per invocation; concurrent
// invocations coordinate only through the destination existence check.
type Service struct {
	store      objectstore.Client
	router     *routing.Router
	dispatcher calibration.Dispatcher
	audit      audit.Sink
	notifier   notify.Notifier
	metrics    metrics.Metrics
	logger     *zap.Logger
	opts       Options
}

// NewService constructs a pipeline Service.
func NewService(p Params) *Service {
	if p.Audit == nil {
		p.Audit = audit.NopSink{}
	}
	if p.Notifier == nil {
		p.Notifier = notify.Noop{}
	}
	if p.Metrics == nil {
		p.Metrics = metrics.Noop{}
	}
	return &Service{
		store:      p.Store,
		router:     p.Router,
		dispatcher: p.Dispatcher,
		audit:      p.Audit,
		notifier:   p.Notifier,
		metrics:    p.Metrics,
		logger:     p.Logger,
		opts:       p.Options,
	}
}

var tracer = otel.Tracer("sciflow/pipeline")

// Process runs one file through the pipeline and returns the destination
// key it resolved. Fatal failures abort the run and propagate to the
// trigger; audit and notification failures are logged and swallowed.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "pipeline.process")
	defer span.End()

	runID := uuid.NewString()
	logger := s.logger.With(
		zap.String("run_id", runID),
		zap.String("source_bucket", req.SourceBucket),
		zap.String("object_key", req.ObjectKey),
		zap.Bool("dry_run", req.DryRun),
	)
	span.SetAttributes(
		attribute.String("pipeline.run_id", runID),
		attribute.String("pipeline.source_bucket", req.SourceBucket),
		attribute.String("pipeline.object_key", req.ObjectKey),
		attribute.Bool("pipeline.dry_run", req.DryRun),
	)

	fail := func(instrument, step string, err error) (*Result, error) {
		logger.Error("pipeline run failed", zap.String("step", step), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, step)
		s.metrics.IncRunsCompleted(instrument, metrics.StatusFailed)
		s.notifier.Notify(ctx, notify.Event{
			Message:   fmt.Sprintf("Error processing file %s at step %s: %v", req.ObjectKey, step, err),
			Severity:  notify.SeverityError,
			Timestamp: time.Now().UTC(),
		})
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	// RECEIVED -> PARSED. The object key's path is stripped; only the
	// filename carries metadata.
	filename := path.Base(req.ObjectKey)
	desc, err := scifile.Parse(filename)
	if err != nil {
		return fail("unknown", "parse", err)
	}
	instrument := desc.Instrument
	s.metrics.IncRunsStarted(instrument)
	logger = logger.With(zap.String("instrument", instrument))
	span.SetAttributes(attribute.String("pipeline.instrument", instrument))

	// Routing misses are configuration gaps and must never fall back to a
	// default bucket, so both lookups happen before any I/O.
	destBucket, err := s.router.ResolveBucket(instrument, req.Environment)
	if err != nil {
		return fail(instrument, "route", err)
	}
	calibrator, err := s.router.ResolveCalibration(instrument)
	if err != nil {
		return fail(instrument, "route", err)
	}

	// PARSED -> FETCHED.
	localPath, offline, err := s.materialize(ctx, req, logger)
	if err != nil {
		return fail(instrument, "fetch", err)
	}

	// FETCHED -> CALIBRATED. Dry runs skip calibration: without a real
	// input there is no deterministic output, so a dry run validates
	// routing and addressing only.
	var calibratedPath, calibratedName string
	if req.DryRun {
		if req.CalibratedName == "" {
			return fail(instrument, "calibrate", fmt.Errorf("dry run requires a synthetic calibrated filename"))
		}
		calibratedName = path.Base(req.CalibratedName)
	} else {
		calibratedPath, err = s.dispatcher.Dispatch(ctx, instrument, calibrator, localPath)
		if err != nil {
			return fail(instrument, "calibrate", err)
		}
		calibratedName = filepath.Base(calibratedPath)
	}

	// CALIBRATED -> KEY_BUILT. The key derives from the calibrated file's
	// descriptor: calibration may change level, timestamp, and version.
	calibratedDesc, err := scifile.Parse(calibratedName)
	if err != nil {
		return fail(instrument, "key", err)
	}
	destKey, err := scifile.BuildDestinationKey(calibratedDesc, calibratedName)
	if err != nil {
		return fail(instrument, "key", err)
	}
	logger = logger.With(zap.String("destination_bucket", destBucket), zap.String("destination_key", destKey))

	result := &Result{
		RunID:             runID,
		Instrument:        instrument,
		DestinationBucket: destBucket,
		DestinationKey:    destKey,
	}

	if req.DryRun {
		logger.Info("dry run resolved destination, no bytes moved")
		s.metrics.IncRunsCompleted(instrument, metrics.StatusDryRun)
		return result, nil
	}
	if offline {
		logger.Info("offline run resolved destination, publish bypassed")
		s.metrics.IncRunsCompleted(instrument, metrics.StatusOffline)
		return result, nil
	}

	// KEY_BUILT -> CHECKED_EXISTING. An existing destination key means a
	// previous run already published this artifact: succeed without
	// writing, which makes reprocessing identical inputs safe. Two
	// concurrent runs can both pass this check; the duplicate write is
	// benign because calibration is deterministic.
	exists, err := s.store.Exists(ctx, destBucket, destKey)
	if err != nil {
		return fail(instrument, "publish", err)
	}
	if exists {
		logger.Info("destination key already exists, skipping publish")
		s.metrics.IncPublishSkipped(instrument)
		s.metrics.IncRunsCompleted(instrument, metrics.StatusSkipped)
		result.SkippedExisting = true
		return result, nil
	}

	// CHECKED_EXISTING -> PUBLISHED.
	if _, err := s.store.Push(ctx, calibratedPath, destBucket, destKey); err != nil {
		return fail(instrument, "publish", err)
	}
	result.Published = true
	logger.Info("calibrated file published")

	// PUBLISHED -> AUDITED/NOTIFIED. The artifact is already safely
	// stored; losing the audit record or the notification degrades
	// observability, it never rolls back the publish.
	rec := audit.Record{
		Timestamp:         time.Now().UTC(),
		ActionType:        audit.ActionPut,
		SourceKey:         req.ObjectKey,
		DestinationKey:    destKey,
		SourceBucket:      req.SourceBucket,
		DestinationBucket: destBucket,
	}
	if err := s.audit.Append(ctx, rec); err != nil {
		logger.Error("audit append failed", zap.Error(err))
		s.metrics.IncAuditFailures()
	}
	s.notifier.Notify(ctx, notify.Event{
		Message:   fmt.Sprintf("File %s has been successfully processed and uploaded to %s.", calibratedName, destBucket),
		Severity:  notify.SeveritySuccess,
		Timestamp: time.Now().UTC(),
	})

	s.metrics.IncRunsCompleted(instrument, metrics.StatusPublished)
	return result, nil
}

// materialize resolves the local input file for a run. It returns the
// local path and whether the run is offline (publish bypassed). Dry runs
// touch neither the store nor the filesystem.
func (s *Service) materialize(ctx context.Context, req Request, logger *zap.Logger) (string, bool, error) {
	if req.DryRun {
		return "", false, nil
	}
	if s.opts.LocalFilePath != "" {
		logger.Info("using local file override", zap.String("path", s.opts.LocalFilePath))
		return s.opts.LocalFilePath, true, nil
	}
	if s.opts.UseFixture {
		logger.Info("substituting fixture data for input", zap.String("path", s.opts.FixturePath))
		return s.opts.FixturePath, false, nil
	}

	// Existence is checked explicitly so a mid-flight deletion surfaces
	// as a hard not-found, not a masked transport error.
	exists, err := s.store.Exists(ctx, req.SourceBucket, req.ObjectKey)
	if err != nil {
		return "", false, err
	}
	if !exists {
		return "", false, fmt.Errorf("source object s3://%s/%s: %w", req.SourceBucket, req.ObjectKey, objectstore.ErrNotFound)
	}

	localPath, err := s.store.Fetch(ctx, req.SourceBucket, req.ObjectKey)
	if err != nil {
		return "", false, err
	}
	return localPath, false, nil
}

// Close releases underlying resources.
func (s *Service) Close(ctx context.Context) error {
	return s.store.Close()
}
