package xmetrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestObserver(t *testing.T) (Observer, *tracetest.InMemoryExporter, *sdkmetric.ManualReader) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	obs, err := NewOTelObserver(WithTracerProvider(tp), WithMeterProvider(mp))
	require.NoError(t, err)
	return obs, exporter, reader
}

func TestNoopObserver(t *testing.T) {
	//nolint:staticcheck // 测试 nil ctx 兜底
	ctx, span := NoopObserver{}.Start(nil, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() { span.End(Result{Err: errors.New("x")}) })
}

type nilObserver struct{}

func (nilObserver) Start(context.Context, SpanOptions) (context.Context, Span) { return nil, nil }

func TestStartFallbacks(t *testing.T) {
	ctx, span := Start(context.Background(), nil, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.IsType(t, NoopSpan{}, span)

	ctx, span = Start(context.Background(), nilObserver{}, SpanOptions{})
	assert.NotNil(t, ctx)
	assert.IsType(t, NoopSpan{}, span)
}

func TestResolveStatus(t *testing.T) {
	assert.Equal(t, StatusOK, resolveStatus(Result{}))
	assert.Equal(t, StatusError, resolveStatus(Result{Err: errors.New("x")}))
	assert.Equal(t, StatusOK, resolveStatus(Result{Status: StatusOK, Err: errors.New("x")}))
}

func TestOTelObserverRecordsSpanAndMetrics(t *testing.T) {
	obs, exporter, reader := newTestObserver(t)

	_, span := Start(context.Background(), obs, SpanOptions{
		Component: "xrwlock",
		Operation: "wrlock",
		Attrs:     []Attr{{Key: "readers", Value: uint32(3)}, {Key: "", Value: 1}},
	})
	span.End(Result{Err: errors.New("busy"), Attrs: []Attr{{Key: "wait", Value: time.Millisecond}}})
	span.End(Result{}) // 幂等

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "wrlock", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.String("component", "xrwlock"))
	assert.Contains(t, spans[0].Attributes, attribute.Int64("readers", 3))
	assert.Contains(t, spans[0].Attributes, attribute.String("wait", "1ms"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names[m.Name] = m
	}
	require.Contains(t, names, MetricOperationTotal)
	require.Contains(t, names, MetricOperationDuration)

	sum, ok := names[MetricOperationTotal].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
	status, ok := sum.DataPoints[0].Attributes.Value("status")
	require.True(t, ok)
	assert.Equal(t, string(StatusError), status.AsString())
}

func TestOTelObserverUnknownNames(t *testing.T) {
	obs, exporter, _ := newTestObserver(t)

	_, span := obs.Start(context.Background(), SpanOptions{})
	span.End(Result{})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, unknownValue, spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
}

type stringer struct{}

func (stringer) String() string { return "s" }

func TestToKeyValue(t *testing.T) {
	tests := []struct {
		in   Attr
		want attribute.KeyValue
	}{
		{Attr{"k", "v"}, attribute.String("k", "v")},
		{Attr{"k", true}, attribute.Bool("k", true)},
		{Attr{"k", 7}, attribute.Int("k", 7)},
		{Attr{"k", int64(7)}, attribute.Int64("k", 7)},
		{Attr{"k", uint64(1) << 63}, attribute.String("k", "9223372036854775808")},
		{Attr{"k", 1.5}, attribute.Float64("k", 1.5)},
		{Attr{"k", stringer{}}, attribute.String("k", "s")},
		{Attr{"k", []int{1}}, attribute.String("k", "[1]")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toKeyValue(tt.in))
	}
}
