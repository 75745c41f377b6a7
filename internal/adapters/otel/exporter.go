package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/tmaps/internal/domain"
)

const (
	serviceName    = "tmaps"
	serviceVersion = "1.0.0"
)

// Exporter exports data service operation metrics to an OTEL Collector.
type Exporter struct {
	provider     *sdkmetric.MeterProvider
	callsTotal   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newExporter(provider)
}

// newExporter registers the instruments on provider.
func newExporter(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	callsTotal, err := meter.Int64Counter(
		"tmaps_service_calls_total",
		metric.WithDescription("Calls made to the data service"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating calls counter: %w", err)
	}

	durationHist, err := meter.Float64Histogram(
		"tmaps_service_call_duration_seconds",
		metric.WithDescription("Data service call latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &Exporter{
		provider:     provider,
		callsTotal:   callsTotal,
		durationHist: durationHist,
	}, nil
}

// RecordOperation records one call labelled with its operation and outcome.
func (e *Exporter) RecordOperation(ctx context.Context, op string, elapsed time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", op),
		attribute.String("outcome", outcome(err)),
	}
	var svcErr *domain.ServiceError
	if errors.As(err, &svcErr) {
		attrs = append(attrs, attribute.String("status_code", strconv.Itoa(svcErr.StatusCode)))
	}

	opt := metric.WithAttributes(attrs...)
	e.callsTotal.Add(ctx, 1, opt)
	e.durationHist.Record(ctx, elapsed.Seconds(), opt)
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}

func outcome(err error) string {
	var svcErr *domain.ServiceError
	var malformed *domain.MalformedRecordError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &svcErr):
		return "service_error"
	case errors.As(err, &malformed):
		return "malformed_record"
	default:
		return "transport_error"
	}
}
