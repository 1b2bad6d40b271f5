package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes the fulfillment and roster instruments.
type Metrics struct {
	reconciliations metric.Int64Counter
	fulfillments    metric.Int64Counter
	teamsCreated    metric.Int64Counter
	tentsReserved   metric.Int64Counter
	rosterChanges   metric.Int64Counter
	warningsCleared metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

// New creates the instruments on the given provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "sportsfest"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
	}{
		{&m.reconciliations, "sportsfest_payment_reconciliations_total"},
		{&m.fulfillments, "sportsfest_fulfillments_total"},
		{&m.teamsCreated, "sportsfest_teams_created_total"},
		{&m.tentsReserved, "sportsfest_tents_reserved_total"},
		{&m.rosterChanges, "sportsfest_roster_changes_total"},
		{&m.warningsCleared, "sportsfest_transfer_warnings_resolved_total"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}
	return m, nil
}

// NewNoop returns instruments bound to a no-op provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordReconciliation(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.reconciliations.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("status", strings.TrimSpace(status)),
	)...))
}

// RecordFulfillment counts fulfillment attempts by outcome (fulfilled, already_fulfilled, quota_exceeded, failed, skipped).
func (m *Metrics) RecordFulfillment(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.fulfillments.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)...))
}

func (m *Metrics) RecordTeamsCreated(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.teamsCreated.Add(ctx, int64(count))
}

func (m *Metrics) RecordTentsReserved(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.tentsReserved.Add(ctx, int64(count))
}

// RecordRosterChange counts roster mutations by operation.
func (m *Metrics) RecordRosterChange(ctx context.Context, operation string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.rosterChanges.Add(ctx, int64(count), metric.WithAttributes(FilterAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
	)...))
}

func (m *Metrics) RecordWarningsResolved(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.warningsCleared.Add(ctx, int64(count))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"status":      {},
	"outcome":     {},
	"operation":   {},
	"status_code": {},
	"route":       {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
// Organization and player ids never become labels.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
