package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/farmdesk/complyd/internal/storage"
	"github.com/farmdesk/complyd/internal/types"
)

const storageScopeName = "github.com/farmdesk/complyd/storage"

// InstrumentedStorage wraps storage.Storage with OTel tracing and metrics.
// Every method gets a span and is counted in complyd.storage.* metrics.
// Use WrapStorage to create one; it returns the original store unchanged
// when telemetry is disabled.
type InstrumentedStorage struct {
	inner  storage.Storage
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapStorage returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is with zero overhead.
func WrapStorage(s storage.Storage) storage.Storage {
	if !Enabled() {
		return s
	}
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("complyd.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("complyd.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("complyd.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	return &InstrumentedStorage{
		inner:  s,
		tracer: Tracer(storageScopeName),
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
}

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedStorage) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedStorage) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

func (s *InstrumentedStorage) CreateRequirement(ctx context.Context, req *types.Requirement) error {
	attrs := []attribute.KeyValue{attribute.String("complyd.template", req.TemplateID)}
	ctx, span, t := s.op(ctx, "CreateRequirement", attrs...)
	err := s.inner.CreateRequirement(ctx, req)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) ListRequirements(ctx context.Context, templateID string) ([]*types.Requirement, error) {
	attrs := []attribute.KeyValue{attribute.String("complyd.template", templateID)}
	ctx, span, t := s.op(ctx, "ListRequirements", attrs...)
	v, err := s.inner.ListRequirements(ctx, templateID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) PutDocument(ctx context.Context, doc *types.Document) error {
	ctx, span, t := s.op(ctx, "PutDocument")
	err := s.inner.PutDocument(ctx, doc)
	s.done(ctx, span, t, err)
	return err
}

func (s *InstrumentedStorage) GetDocument(ctx context.Context, tenantID, id string) (*types.Document, error) {
	ctx, span, t := s.op(ctx, "GetDocument")
	v, err := s.inner.GetDocument(ctx, tenantID, id)
	s.done(ctx, span, t, err)
	return v, err
}

func (s *InstrumentedStorage) GetDocuments(ctx context.Context, tenantID string, ids []string) (map[string]*types.Document, error) {
	attrs := []attribute.KeyValue{attribute.Int("complyd.document.count", len(ids))}
	ctx, span, t := s.op(ctx, "GetDocuments", attrs...)
	v, err := s.inner.GetDocuments(ctx, tenantID, ids)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) UpsertLink(ctx context.Context, link *types.Link) error {
	attrs := []attribute.KeyValue{attribute.String("complyd.requirement", link.RequirementID)}
	ctx, span, t := s.op(ctx, "UpsertLink", attrs...)
	err := s.inner.UpsertLink(ctx, link)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) DeleteLink(ctx context.Context, tenantID, requirementID string) error {
	attrs := []attribute.KeyValue{attribute.String("complyd.requirement", requirementID)}
	ctx, span, t := s.op(ctx, "DeleteLink", attrs...)
	err := s.inner.DeleteLink(ctx, tenantID, requirementID)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) GetLinks(ctx context.Context, tenantID string, requirementIDs []string) (map[string]*types.Link, error) {
	attrs := []attribute.KeyValue{attribute.Int("complyd.requirement.count", len(requirementIDs))}
	ctx, span, t := s.op(ctx, "GetLinks", attrs...)
	v, err := s.inner.GetLinks(ctx, tenantID, requirementIDs)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) CreateTask(ctx context.Context, task *types.Task) error {
	attrs := []attribute.KeyValue{attribute.String("complyd.task.source", string(task.Source))}
	ctx, span, t := s.op(ctx, "CreateTask", attrs...)
	err := s.inner.CreateTask(ctx, task)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) GetTask(ctx context.Context, id string) (*types.Task, error) {
	ctx, span, t := s.op(ctx, "GetTask")
	v, err := s.inner.GetTask(ctx, id)
	s.done(ctx, span, t, err)
	return v, err
}

func (s *InstrumentedStorage) UpdateTask(ctx context.Context, id string, updates map[string]interface{}) error {
	attrs := []attribute.KeyValue{attribute.Int("complyd.update.count", len(updates))}
	ctx, span, t := s.op(ctx, "UpdateTask", attrs...)
	err := s.inner.UpdateTask(ctx, id, updates)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) ListMachineTasks(ctx context.Context, tenantID, templateID string) ([]*types.Task, error) {
	attrs := []attribute.KeyValue{attribute.String("complyd.template", templateID)}
	ctx, span, t := s.op(ctx, "ListMachineTasks", attrs...)
	v, err := s.inner.ListMachineTasks(ctx, tenantID, templateID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListTasks(ctx context.Context, tenantID string) ([]*types.Task, error) {
	ctx, span, t := s.op(ctx, "ListTasks")
	v, err := s.inner.ListTasks(ctx, tenantID)
	s.done(ctx, span, t, err)
	return v, err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
