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
	reservations        metric.Int64Counter
	reservationFailures metric.Int64Counter
	stockConflicts      metric.Int64Counter
	redemptions         metric.Int64Counter
	compensations       metric.Int64Counter
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

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "resq"
	}
	meter := provider.Meter(name)

	reservations, err := meter.Int64Counter("resq_reservations_total")
	if err != nil {
		return nil, err
	}
	reservationFailures, err := meter.Int64Counter("resq_reservation_failures_total")
	if err != nil {
		return nil, err
	}
	stockConflicts, err := meter.Int64Counter("resq_stock_conflicts_total")
	if err != nil {
		return nil, err
	}
	redemptions, err := meter.Int64Counter("resq_redemptions_total")
	if err != nil {
		return nil, err
	}
	compensations, err := meter.Int64Counter("resq_order_compensations_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		reservations:        reservations,
		reservationFailures: reservationFailures,
		stockConflicts:      stockConflicts,
		redemptions:         redemptions,
		compensations:       compensations,
	}, nil
}

// RecordReservation counts a successful reservation.
func (m *Metrics) RecordReservation(ctx context.Context, strategy string) {
	if m == nil || m.reservations == nil {
		return
	}
	m.reservations.Add(ctx, 1, metric.WithAttributes(attribute.String("strategy", strategy)))
}

// RecordReservationFailure counts a failed reservation by failure kind.
func (m *Metrics) RecordReservationFailure(ctx context.Context, kind string) {
	if m == nil || m.reservationFailures == nil {
		return
	}
	m.reservationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordStockConflict counts a concurrent-modification conflict on stock.
func (m *Metrics) RecordStockConflict(ctx context.Context) {
	if m == nil || m.stockConflicts == nil {
		return
	}
	m.stockConflicts.Add(ctx, 1)
}

// RecordRedemption counts a pickup-code redemption outcome.
func (m *Metrics) RecordRedemption(ctx context.Context, outcome string) {
	if m == nil || m.redemptions == nil {
		return
	}
	m.redemptions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordCompensation counts a compensating order delete, by result.
func (m *Metrics) RecordCompensation(ctx context.Context, result string) {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
