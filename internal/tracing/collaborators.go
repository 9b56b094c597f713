package tracing

import (
	"context"

	"github.com/MostProject/wslistener/internal/handlers"
	"github.com/MostProject/wslistener/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Store traces every RecordStore call
type Store struct {
	next   handlers.RecordStore
	tracer trace.Tracer
}

// WrapStore returns a RecordStore that opens a span around each call to next
func WrapStore(next handlers.RecordStore, tracer trace.Tracer) *Store {
	return &Store{next: next, tracer: tracer}
}

func (s *Store) Put(ctx context.Context, rec models.ConnectionRecord) (err error) {
	ctx, span := s.tracer.Start(ctx, "store_id", trace.WithAttributes(
		attribute.String("connection.id", rec.ID),
		attribute.Int64("connection.ttl", rec.TTL),
	))
	defer func() { finish(span, err) }()
	return s.next.Put(ctx, rec)
}

func (s *Store) Delete(ctx context.Context, connectionID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "delete_id", trace.WithAttributes(
		attribute.String("connection.id", connectionID),
	))
	defer func() { finish(span, err) }()
	return s.next.Delete(ctx, connectionID)
}

func (s *Store) ExistsAny(ctx context.Context) (exists bool, err error) {
	ctx, span := s.tracer.Start(ctx, "exists_any")
	defer func() {
		span.SetAttributes(attribute.Bool("connections.remaining", exists))
		finish(span, err)
	}()
	return s.next.ExistsAny(ctx)
}

// Rule traces every RuleToggle call
type Rule struct {
	next   handlers.RuleToggle
	tracer trace.Tracer
	ref    models.RuleRef
}

// WrapRule returns a RuleToggle that opens a span around each call to next
func WrapRule(next handlers.RuleToggle, ref models.RuleRef, tracer trace.Tracer) *Rule {
	return &Rule{next: next, tracer: tracer, ref: ref}
}

func (r *Rule) attrs() trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("rule.name", r.ref.Name),
		attribute.String("rule.event_bus", r.ref.EventBus),
	)
}

func (r *Rule) Enable(ctx context.Context) (err error) {
	ctx, span := r.tracer.Start(ctx, "enable_rule", r.attrs())
	defer func() { finish(span, err) }()
	return r.next.Enable(ctx)
}

func (r *Rule) Disable(ctx context.Context) (err error) {
	ctx, span := r.tracer.Start(ctx, "disable_rule", r.attrs())
	defer func() { finish(span, err) }()
	return r.next.Disable(ctx)
}
