package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/remote-sensing-etl/internal/dataset"
	"github.com/couchcryptid/remote-sensing-etl/internal/domain"
	"github.com/couchcryptid/remote-sensing-etl/internal/observability"
	"github.com/couchcryptid/remote-sensing-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pollInterval = 30 * time.Second

// --- mocks ---

type mockSource struct {
	mu    sync.Mutex
	ds    *dataset.Dataset
	err   error
	loads int
}

func (m *mockSource) Load(bool) (*dataset.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return m.ds, m.err
}

func (m *mockSource) set(ds *dataset.Dataset, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ds, m.err = ds, err
}

func (m *mockSource) loadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

type mockSink struct {
	name string

	mu        sync.Mutex
	err       error
	published []*dataset.Dataset
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) Publish(_ context.Context, ds *dataset.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, ds)
	return nil
}

func (m *mockSink) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

func newDataset(region string) *dataset.Dataset {
	return dataset.New([]domain.Observation{{RegionName: region, Lon: 106.7, Lat: 10.7}})
}

// --- tests ---

func TestRefresh_PublishesOncePerDataset(t *testing.T) {
	src := &mockSource{ds: newDataset("Phường 1")}
	sink := &mockSink{name: "kafka"}
	r := pipeline.New(src, []pipeline.Sink{sink}, slog.Default(), observability.NewMetricsForTesting(), pollInterval, clockwork.NewFakeClock())

	ctx := context.Background()
	require.NoError(t, r.Refresh(ctx))
	require.NoError(t, r.Refresh(ctx))
	assert.Equal(t, 1, sink.count(), "unchanged dataset is not republished")

	src.set(newDataset("Phường 2"), nil)
	require.NoError(t, r.Refresh(ctx))
	assert.Equal(t, 2, sink.count())
}

func TestRefresh_FailedSinkIsRetried(t *testing.T) {
	src := &mockSource{ds: newDataset("Phường 1")}
	healthy := &mockSink{name: "sqlite"}
	failing := &mockSink{name: "kafka", err: errors.New("broker down")}
	metrics := observability.NewMetricsForTesting()
	r := pipeline.New(src, []pipeline.Sink{failing, healthy}, slog.Default(), metrics, pollInterval, clockwork.NewFakeClock())

	ctx := context.Background()
	err := r.Refresh(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka")
	assert.Equal(t, 1, healthy.count())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SinkErrors.WithLabelValues("kafka")), 0)

	failing.setErr(nil)
	require.NoError(t, r.Refresh(ctx))
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, healthy.count())
}

func TestRefresh_SourceErrorLeavesNotReady(t *testing.T) {
	src := &mockSource{err: dataset.ErrSourceDir}
	r := pipeline.New(src, nil, slog.Default(), observability.NewMetricsForTesting(), pollInterval, clockwork.NewFakeClock())

	err := r.Refresh(context.Background())
	require.ErrorIs(t, err, dataset.ErrSourceDir)
	assert.Error(t, r.CheckReadiness(context.Background()))
}

func TestRefresh_Readiness(t *testing.T) {
	src := &mockSource{ds: newDataset("Phường 1")}
	r := pipeline.New(src, nil, slog.Default(), observability.NewMetricsForTesting(), pollInterval, clockwork.NewFakeClock())

	require.Error(t, r.CheckReadiness(context.Background()))
	require.NoError(t, r.Refresh(context.Background()))
	assert.NoError(t, r.CheckReadiness(context.Background()))
}

func TestRun_PollsOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &mockSource{ds: newDataset("Phường 1")}
	sink := &mockSink{name: "sqlite"}
	metrics := observability.NewMetricsForTesting()
	r := pipeline.New(src, []pipeline.Sink{sink}, slog.Default(), metrics, pollInterval, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 1, sink.count())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RefresherRunning), 0)

	src.set(newDataset("Phường 2"), nil)
	clock.Advance(pollInterval)

	assert.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.RefresherRunning), 0)
}

func TestRun_BacksOffOnError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &mockSource{err: errors.New("disk unavailable")}
	r := pipeline.New(src, nil, slog.Default(), observability.NewMetricsForTesting(), pollInterval, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 1, src.loadCount())

	// The first retry fires after the initial backoff, well before the poll interval.
	clock.Advance(200 * time.Millisecond)
	assert.Eventually(t, func() bool { return src.loadCount() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(200 * time.Millisecond)
	assert.Never(t, func() bool { return src.loadCount() > 2 }, 50*time.Millisecond, 10*time.Millisecond)

	clock.Advance(200 * time.Millisecond)
	assert.Eventually(t, func() bool { return src.loadCount() == 3 }, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_ContextCancellation(t *testing.T) {
	src := &mockSource{ds: newDataset("Phường 1")}
	r := pipeline.New(src, nil, slog.Default(), observability.NewMetricsForTesting(), pollInterval, clockwork.NewFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Run(ctx))
}
