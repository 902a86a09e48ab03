package authtoken

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false, EnableLatencyHistograms: true})
	m.Inc(MetricLoginSuccess)

	if m.Enabled() || m.LatencyEnabled() {
		t.Fatal("disabled metrics must report Enabled and LatencyEnabled as false")
	}

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricTokenVerified)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricTokenVerified); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}

	for _, d := range observations {
		m.Observe(MetricVerifyLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricVerifyLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginFailure)
	m.Inc(MetricLoginFailure)
	m.Observe(MetricVerifyLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("expected MetricLoginSuccess=1 got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLoginFailure] != 2 {
		t.Fatalf("expected MetricLoginFailure=2 got %d", snap.Counters[MetricLoginFailure])
	}
	if len(snap.Histograms[MetricVerifyLatency]) != 8 {
		t.Fatalf("expected histogram length 8")
	}
	if snap.Histograms[MetricVerifyLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricVerifyLatency][0])
	}
}

func TestEngineCountsVerifyFailuresByCode(t *testing.T) {
	engine := newTestEngine(t, func(c *Config) {
		c.Metrics.Enabled = true
		c.Metrics.EnableLatencyHistograms = true
	})

	if _, err := engine.Verify("garbage", "user"); err == nil {
		t.Fatal("expected malformed token to fail")
	}
	other := newTestEngine(t, func(c *Config) {
		c.Signing.SigningKey = staticKey("another-secret-another-secret-32b")
	})
	foreign, err := other.Issue("user", Claims{"sub": "u1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := engine.Verify(foreign.Token(), "user"); err == nil {
		t.Fatal("expected foreign signature to fail")
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricVerifyFailure] != 2 {
		t.Fatalf("expected 2 verify failures, got %d", snap.Counters[MetricVerifyFailure])
	}
	if snap.Counters[MetricVerifyMalformed] != 1 || snap.Counters[MetricVerifySignatureInvalid] != 1 {
		t.Fatalf("unexpected per-code counters: %+v", snap.Counters)
	}

	var samples uint64
	for _, v := range snap.Histograms[MetricVerifyLatency] {
		samples += v
	}
	if samples != 2 {
		t.Fatalf("expected 2 latency samples, got %d", samples)
	}
}
