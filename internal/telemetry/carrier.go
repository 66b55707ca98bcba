package telemetry

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

// HeaderCarrier adapts AMQP headers to propagation.TextMapCarrier.
type HeaderCarrier amqp.Table

// Get returns the string value stored under key.
func (c HeaderCarrier) Get(key string) string {
	v, ok := c[key].(string)
	if !ok {
		return ""
	}

	return v
}

// Set stores value under key.
func (c HeaderCarrier) Set(key, value string) {
	c[key] = value
}

// Keys lists the header names.
func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}

	return keys
}

// Inject writes the trace context of ctx into headers, allocating them if needed.
func Inject(ctx context.Context, headers amqp.Table) amqp.Table {
	if headers == nil {
		headers = amqp.Table{}
	}

	otel.GetTextMapPropagator().Inject(ctx, HeaderCarrier(headers))

	return headers
}

// Extract returns ctx enriched with the trace context found in headers.
func Extract(ctx context.Context, headers amqp.Table) context.Context {
	if headers == nil {
		return ctx
	}

	return otel.GetTextMapPropagator().Extract(ctx, HeaderCarrier(headers))
}
