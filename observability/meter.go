package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/pullpipe/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(newResource(config.ServiceName, config.ServiceVersion, config.Environment)),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Outcomes recorded for a producer run.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeAbandoned = "abandoned"
)

// StreamMetrics holds the instruments recorded by streams. A nil
// *StreamMetrics is valid and records nothing.
type StreamMetrics struct {
	opened           metric.Int64Counter
	active           metric.Int64UpDownCounter
	bytesWritten     metric.Int64Counter
	bytesRead        metric.Int64Counter
	producerFailures metric.Int64Counter
	abandoned        metric.Int64Counter
	producerDuration metric.Float64Histogram
}

// NewStreamMetrics creates stream instruments on the given meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	m := &StreamMetrics{}
	var err error

	if m.opened, err = meter.Int64Counter("stream.opened",
		metric.WithDescription("Streams opened"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.opened counter: %w", err)
	}
	if m.active, err = meter.Int64UpDownCounter("stream.active",
		metric.WithDescription("Streams whose consumer has not closed yet"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.active counter: %w", err)
	}
	if m.bytesWritten, err = meter.Int64Counter("stream.bytes_written",
		metric.WithDescription("Bytes written by producers"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.bytes_written counter: %w", err)
	}
	if m.bytesRead, err = meter.Int64Counter("stream.bytes_read",
		metric.WithDescription("Bytes delivered to consumers"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.bytes_read counter: %w", err)
	}
	if m.producerFailures, err = meter.Int64Counter("stream.producer.failures",
		metric.WithDescription("Producer runs that failed"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.producer.failures counter: %w", err)
	}
	if m.abandoned, err = meter.Int64Counter("stream.producer.abandoned",
		metric.WithDescription("Producer runs stopped because the consumer went away"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.producer.abandoned counter: %w", err)
	}
	if m.producerDuration, err = meter.Float64Histogram("stream.producer.duration",
		metric.WithDescription("Producer run time"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating stream.producer.duration histogram: %w", err)
	}

	return m, nil
}

// RecordOpened counts a newly opened stream.
func (m *StreamMetrics) RecordOpened(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrStreamMode, mode))
	m.opened.Add(ctx, 1, attrs)
	m.active.Add(ctx, 1, attrs)
}

// RecordClosed records a consumer closing its stream after reading n bytes.
func (m *StreamMetrics) RecordClosed(ctx context.Context, mode string, n int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrStreamMode, mode))
	m.active.Add(ctx, -1, attrs)
	m.bytesRead.Add(ctx, n, attrs)
}

// RecordProducer records the end of a producer run.
func (m *StreamMetrics) RecordProducer(ctx context.Context, mode, outcome string, written int64, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrStreamMode, mode),
		attribute.String(AttrOutcome, outcome),
	)
	m.bytesWritten.Add(ctx, written, attrs)
	m.producerDuration.Record(ctx, d.Seconds(), attrs)
	switch outcome {
	case OutcomeFailed:
		m.producerFailures.Add(ctx, 1, attrs)
	case OutcomeAbandoned:
		m.abandoned.Add(ctx, 1, attrs)
	}
}
