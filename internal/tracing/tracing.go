// Package tracing sets up OpenTelemetry spans for scenario runs. Spans are
// exported as JSON to a writer, normally a file named on the command line.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/themizzi/scenariorunner"

// Common attribute keys
var (
	AttrRunID       = attribute.Key("scenario.run_id")
	AttrScenario    = attribute.Key("scenario.name")
	AttrStatus      = attribute.Key("scenario.status")
	AttrStepIndex   = attribute.Key("step.index")
	AttrStepKind    = attribute.Key("step.kind")
	AttrStepAttempt = attribute.Key("step.attempts")
)

// Provider holds the tracer provider and the writer spans go to.
type Provider struct {
	provider *sdktrace.TracerProvider
	closer   io.Closer
}

// NewProvider exports spans to w.
func NewProvider(w io.Writer, serviceName string) (*Provider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	return &Provider{provider: provider}, nil
}

// NewFileProvider exports spans to the file at path, truncating it.
func NewFileProvider(path, serviceName string) (*Provider, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	p, err := NewProvider(f, serviceName)
	if err != nil {
		f.Close()
		return nil, err
	}
	p.closer = f
	return p, nil
}

// Tracer returns the runner's tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.provider.Tracer(tracerName)
}

// Shutdown flushes pending spans and closes the output file.
func (p *Provider) Shutdown(ctx context.Context) error {
	err := p.provider.Shutdown(ctx)
	if p.closer != nil {
		err = errors.Join(err, p.closer.Close())
	}
	return err
}

// Noop returns a tracer that records nothing.
func Noop() trace.Tracer {
	return noop.NewTracerProvider().Tracer(tracerName)
}
