// Package observability holds the tracing, metric and Server-Timing helpers
// used by the use cases and the HTTP layer. Only the OpenTelemetry API is
// used; without a registered SDK every call is a no-op.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "warehouse_service"

// StockMetrics counts units moved by issue and receive operations.
type StockMetrics struct {
	issued   metric.Int64Counter
	received metric.Int64Counter
}

func NewStockMetrics() (*StockMetrics, error) {
	meter := otel.Meter(instrumentationName)
	issued, err := meter.Int64Counter("inventory.stock.issued",
		metric.WithDescription("Units issued from the warehouse"),
		metric.WithUnit("{unit}"))
	if err != nil {
		return nil, err
	}
	received, err := meter.Int64Counter("inventory.stock.received",
		metric.WithDescription("Units received into the warehouse"),
		metric.WithUnit("{unit}"))
	if err != nil {
		return nil, err
	}
	return &StockMetrics{issued: issued, received: received}, nil
}

func (m *StockMetrics) Issued(ctx context.Context, productID, amount int) {
	if m == nil {
		return
	}
	m.issued.Add(ctx, int64(amount), metric.WithAttributes(attribute.Int("product.id", productID)))
}

func (m *StockMetrics) Received(ctx context.Context, productID, amount int) {
	if m == nil {
		return
	}
	m.received.Add(ctx, int64(amount), metric.WithAttributes(attribute.Int("product.id", productID)))
}

// StartSpan starts a span named after the use-case operation.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span (if any) and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
