package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/ebb-ui/ebb/pkg/render"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestObserveRender(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.ObserveRender(render.OutOfOrder, nil, 5*time.Millisecond)
	m.ObserveRender(render.OutOfOrder, errors.New("boom"), time.Millisecond)
	m.ObserveRender(render.Async, nil, time.Millisecond)

	if got := metricCounterValue(t, m.rendersTotal.WithLabelValues("out-of-order", "success")); got != 1 {
		t.Errorf("success renders = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.rendersTotal.WithLabelValues("out-of-order", "error")); got != 1 {
		t.Errorf("error renders = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.rendersTotal.WithLabelValues("async", "success")); got != 1 {
		t.Errorf("async renders = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.renderDuration.WithLabelValues("out-of-order")); got != 2 {
		t.Errorf("duration samples = %v, want 2", got)
	}
}

func TestRenderStarted(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	done := m.RenderStarted()
	if got := metricGaugeValue(t, m.rendersInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	done()
	if got := metricGaugeValue(t, m.rendersInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
}

func TestRecordCache(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	m.RecordCache(true)
	m.RecordCache(true)
	m.RecordCache(false)

	if got := metricCounterValue(t, m.cacheHitsTotal); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.cacheMissesTotal); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestInstrumentSink(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	inner := &render.CollectSink{}
	sink := m.InstrumentSink(render.OutOfOrder, inner)

	if err := sink.Emit(render.Chunk{Bytes: []byte("hello")}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := sink.Emit(render.Chunk{BoundaryID: "0", Bytes: []byte("wor")}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	if got := metricCounterValue(t, m.chunksEmitted.WithLabelValues("out-of-order")); got != 2 {
		t.Errorf("chunks = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.chunkBytes.WithLabelValues("out-of-order")); got != 8 {
		t.Errorf("bytes = %v, want 8", got)
	}
	if len(inner.Chunks()) != 2 {
		t.Errorf("inner sink chunks = %d, want 2", len(inner.Chunks()))
	}
}

func TestInstrumentSinkSkipsFailedEmit(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	sinkErr := errors.New("closed")
	sink := m.InstrumentSink(render.InOrder, render.SinkFunc(func(render.Chunk) error {
		return sinkErr
	}))

	if err := sink.Emit(render.Chunk{Bytes: []byte("x")}); !errors.Is(err, sinkErr) {
		t.Fatalf("Emit = %v, want sink error", err)
	}
	if got := metricCounterValue(t, m.chunksEmitted.WithLabelValues("in-order")); got != 0 {
		t.Errorf("chunks = %v, want 0 for failed emit", got)
	}
}

func TestMetricsNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(WithRegistry(reg), WithNamespace("blog"), WithSubsystem("ssr"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "blog_ssr_renders_in_flight" {
			found = true
		}
	}
	if !found {
		t.Errorf("namespaced gauge not registered; families: %v", families)
	}
}
