package telemetry

import (
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	spanKey       = "echoes:span"
	spanStartKey  = "echoes:span_start"
	maxStatement  = 500
	pluginName    = "echoes:tracing"
	callbackScope = "echoes"
)

// GORMTracingPlugin returns a GORM plugin that wraps every statement in a
// span named after the operation, tagged with table and model.
func GORMTracingPlugin() gorm.Plugin {
	return &tracingPlugin{tracer: otel.Tracer("gorm")}
}

type tracingPlugin struct {
	tracer trace.Tracer
	system string
}

func (p *tracingPlugin) Name() string {
	return pluginName
}

type registerFunc func(name string, fn func(*gorm.DB)) error

func (p *tracingPlugin) Initialize(db *gorm.DB) error {
	p.system = db.Dialector.Name()
	if p.system == "postgres" {
		p.system = "postgresql"
	}

	cb := db.Callback()
	hooks := []struct {
		op            string
		before, after registerFunc
	}{
		{"select", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"insert", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
	}
	for _, h := range hooks {
		op := h.op
		if err := h.before(callbackScope+":before_"+op, func(tx *gorm.DB) { p.start(tx, op) }); err != nil {
			return fmt.Errorf("register before_%s: %w", op, err)
		}
		if err := h.after(callbackScope+":after_"+op, p.finish); err != nil {
			return fmt.Errorf("register after_%s: %w", op, err)
		}
	}
	return nil
}

func (p *tracingPlugin) start(tx *gorm.DB, op string) {
	ctx := tx.Statement.Context
	if ctx == nil || !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		// Statements outside a traced request (seeding, reconciliation) are skipped.
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("db.system", p.system),
		attribute.String("db.operation", op),
	}
	if table := tx.Statement.Table; table != "" {
		attrs = append(attrs, attribute.String("db.table", table))
	}
	if tx.Statement.Schema != nil {
		attrs = append(attrs, attribute.String("db.model", tx.Statement.Schema.Name))
	}

	_, span := p.tracer.Start(ctx, "db."+op, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
	tx.InstanceSet(spanKey, span)
	tx.InstanceSet(spanStartKey, time.Now())
}

func (p *tracingPlugin) finish(tx *gorm.DB) {
	raw, ok := tx.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := raw.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if started, ok := tx.InstanceGet(spanStartKey); ok {
		if t, ok := started.(time.Time); ok {
			span.SetAttributes(attribute.Int64("db.duration_ms", time.Since(t).Milliseconds()))
		}
	}
	if sql := tx.Statement.SQL.String(); sql != "" {
		if len(sql) > maxStatement {
			sql = sql[:maxStatement] + "..."
		}
		span.SetAttributes(attribute.String("db.statement", sql))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tx.RowsAffected))

	// Missing rows are answered as 404 by handlers, not a database failure.
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}
}
