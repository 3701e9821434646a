// Package observe provides OpenTelemetry metric instruments for hark and the
// Prometheus bridge used to scrape them.
//
// Components receive a *Metrics explicitly. A nil *Metrics is valid and
// records nothing, so library users and tests can skip metrics wiring.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all hark metrics.
const meterName = "github.com/rbright/hark"

// Metrics holds the instruments recorded by the matcher pipeline.
type Metrics struct {
	// TokensIngested counts normalized tokens pushed into the spoken buffer.
	TokensIngested metric.Int64Counter

	// TokensExpired counts tokens dropped by TTL or capacity eviction.
	TokensExpired metric.Int64Counter

	// TokensConsumed counts tokens removed by completed matches.
	TokensConsumed metric.Int64Counter

	// CommandsFired counts completed matches. Use with attribute:
	//   attribute.String("command", ...)
	CommandsFired metric.Int64Counter

	// ActionFailures counts failed actions. Use with attribute:
	//   attribute.String("command", ...)
	ActionFailures metric.Int64Counter

	// ActionDuration tracks action runtime in seconds.
	ActionDuration metric.Float64Histogram

	// BufferedTokens reports the buffer depth after each tick.
	BufferedTokens metric.Int64Gauge
}

// actionBuckets are histogram boundaries (seconds) for action runtimes.
var actionBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates every instrument from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TokensIngested, err = m.Int64Counter("hark.tokens.ingested",
		metric.WithDescription("Normalized tokens pushed into the spoken buffer."),
	); err != nil {
		return nil, err
	}
	if met.TokensExpired, err = m.Int64Counter("hark.tokens.expired",
		metric.WithDescription("Tokens dropped by TTL expiry or capacity eviction."),
	); err != nil {
		return nil, err
	}
	if met.TokensConsumed, err = m.Int64Counter("hark.tokens.consumed",
		metric.WithDescription("Tokens consumed by completed command matches."),
	); err != nil {
		return nil, err
	}
	if met.CommandsFired, err = m.Int64Counter("hark.commands.fired",
		metric.WithDescription("Completed command matches by command name."),
	); err != nil {
		return nil, err
	}
	if met.ActionFailures, err = m.Int64Counter("hark.actions.failures",
		metric.WithDescription("Failed command actions by command name."),
	); err != nil {
		return nil, err
	}
	if met.ActionDuration, err = m.Float64Histogram("hark.actions.duration",
		metric.WithDescription("Runtime of command actions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(actionBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BufferedTokens, err = m.Int64Gauge("hark.buffer.tokens",
		metric.WithDescription("Tokens waiting in the spoken buffer after a tick."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordIngested adds n ingested tokens.
func (m *Metrics) RecordIngested(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TokensIngested.Add(ctx, int64(n))
}

// RecordTick records per-tick buffer bookkeeping.
func (m *Metrics) RecordTick(ctx context.Context, expired, consumed, buffered int) {
	if m == nil {
		return
	}
	if expired > 0 {
		m.TokensExpired.Add(ctx, int64(expired))
	}
	if consumed > 0 {
		m.TokensConsumed.Add(ctx, int64(consumed))
	}
	m.BufferedTokens.Record(ctx, int64(buffered))
}

// RecordAction records one dispatched action and its outcome.
func (m *Metrics) RecordAction(ctx context.Context, command string, elapsed time.Duration, failed bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("command", command))
	m.CommandsFired.Add(ctx, 1, attrs)
	m.ActionDuration.Record(ctx, elapsed.Seconds(), attrs)
	if failed {
		m.ActionFailures.Add(ctx, 1, attrs)
	}
}
