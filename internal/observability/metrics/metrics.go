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

// Metrics exposes application-level instruments.
type Metrics struct {
	documentsRendered metric.Int64Counter
	assetFallbacks    metric.Int64Counter
	lookupDegraded    metric.Int64Counter
	numbersReserved   metric.Int64Counter
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
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "tradebook"
	}
	meter := provider.Meter(name)

	documentsRendered, err := meter.Int64Counter("tradebook_documents_rendered_total")
	if err != nil {
		return nil, err
	}
	assetFallbacks, err := meter.Int64Counter("tradebook_asset_fallbacks_total")
	if err != nil {
		return nil, err
	}
	lookupDegraded, err := meter.Int64Counter("tradebook_lookup_degraded_total")
	if err != nil {
		return nil, err
	}
	numbersReserved, err := meter.Int64Counter("tradebook_invoice_numbers_reserved_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		documentsRendered: documentsRendered,
		assetFallbacks:    assetFallbacks,
		lookupDegraded:    lookupDegraded,
		numbersReserved:   numbersReserved,
	}, nil
}

// NewNoop returns instruments backed by the noop provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordDocumentRendered counts a produced document.
func (m *Metrics) RecordDocumentRendered(ctx context.Context, kind string, pages int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("document_kind", strings.TrimSpace(kind)),
		attribute.String("page_bucket", pageBucket(pages)),
	)
	m.documentsRendered.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAssetFallback counts header images that could not be loaded.
func (m *Metrics) RecordAssetFallback(ctx context.Context, asset, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("asset", strings.TrimSpace(asset)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.assetFallbacks.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordLookupDegraded counts number previews served from the default.
func (m *Metrics) RecordLookupDegraded(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.lookupDegraded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordNumberReserved counts durable invoice number reservations.
func (m *Metrics) RecordNumberReserved(ctx context.Context, sequence string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("sequence", strings.TrimSpace(sequence)))
	m.numbersReserved.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func pageBucket(pages int) string {
	switch {
	case pages <= 1:
		return "1"
	case pages <= 3:
		return "2-3"
	case pages <= 10:
		return "4-10"
	default:
		return "10+"
	}
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
	"document_kind": {},
	"page_bucket":   {},
	"asset":         {},
	"reason":        {},
	"sequence":      {},
	"status_code":   {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
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
