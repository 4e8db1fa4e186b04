package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks the span as failed and records err.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(
		attrs...,
	))
}

// ApplicationAttributes returns the span attributes identifying an application and its status.
func ApplicationAttributes(id, status string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ApplicationIDKey, id),
		attribute.String(ApplicationStatusKey, status),
	}
}
