package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// OutcomeRecorder is the part of *Observability the intake and lookup flows use.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, flow, outcome string)
}

// Observability records flow-level instruments through the OTel meter API,
// exported on the default Prometheus registry.
type Observability struct {
	meterProvider *metric.MeterProvider
	gatewayCalls  otelmetric.Int64Counter
	gatewayTime   otelmetric.Float64Histogram
	flowOutcomes  otelmetric.Int64Counter
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	return NewWithReader(serviceName, exporter)
}

// NewWithReader builds instruments on an explicit reader (tests use a ManualReader).
func NewWithReader(serviceName string, reader metric.Reader) (*Observability, error) {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	gatewayCalls, err := meter.Int64Counter(
		"gateway.calls",
		otelmetric.WithDescription("Backend API calls by operation and status"),
	)
	if err != nil {
		return nil, err
	}
	gatewayTime, err := meter.Float64Histogram(
		"gateway.duration",
		otelmetric.WithDescription("Backend API call duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	flowOutcomes, err := meter.Int64Counter(
		"flow.outcomes",
		otelmetric.WithDescription("Terminal outcomes of intake and lookup attempts"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider: provider,
		gatewayCalls:  gatewayCalls,
		gatewayTime:   gatewayTime,
		flowOutcomes:  flowOutcomes,
	}, nil
}

// ObserveRequest satisfies the HTTP client's Observer.
func (o *Observability) ObserveRequest(ctx context.Context, operation string, status int, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Int("status", status),
	)
	o.gatewayCalls.Add(ctx, 1, attrs)
	o.gatewayTime.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordOutcome counts a terminal flow outcome, e.g. ("intake", "done").
func (o *Observability) RecordOutcome(ctx context.Context, flow, outcome string) {
	o.flowOutcomes.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
