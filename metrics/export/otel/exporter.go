package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/authtoken"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned by NewExporter when meter is nil.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned by NewExporter when source is nil.
	ErrNilSource = errors.New("nil metrics source")
)

// Source supplies counter snapshots. *authtoken.Engine implements it.
type Source interface {
	MetricsSnapshot() authtoken.MetricsSnapshot
}

type observedCounter struct {
	id         authtoken.MetricID
	instrument metric.Int64ObservableCounter
}

// Exporter keeps the callback registration alive until Close.
type Exporter struct {
	source       Source
	registration metric.Registration
	counters     []observedCounter
	buckets      [8]metric.Int64ObservableGauge
	count        metric.Int64ObservableGauge
}

// NewExporter registers instruments on meter that observe source.
func NewExporter(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &Exporter{
		source:   source,
		counters: make([]observedCounter, 0, len(counterDefs)),
	}
	observables := make([]metric.Observable, 0, len(counterDefs)+len(exporter.buckets)+1)

	for _, def := range counterDefs {
		ins, err := meter.Int64ObservableCounter(def.name, metric.WithDescription(def.help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.id, instrument: ins})
		observables = append(observables, ins)
	}

	for i, suffix := range latencyBoundSuffix {
		name := latencyName + "_bucket_le_" + suffix
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative verify latency bucket count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
		}
		exporter.buckets[i] = ins
		observables = append(observables, ins)
	}

	count, err := meter.Int64ObservableGauge(latencyName+"_count", metric.WithDescription("Verify latency sample count."))
	if err != nil {
		return nil, fmt.Errorf("create histogram count gauge: %w", err)
	}
	exporter.count = count
	observables = append(observables, count)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	exporter.registration = registration

	return exporter, nil
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}

	raw, ok := snapshot.Histograms[authtoken.MetricVerifyLatency]
	if !ok {
		return nil
	}
	buckets := cumulative(raw)
	for i := range buckets {
		observer.ObserveInt64(e.buckets[i], int64(buckets[i]))
	}
	observer.ObserveInt64(e.count, int64(buckets[len(buckets)-1]))
	return nil
}

// Close unregisters the callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
