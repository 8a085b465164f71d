package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/remote-sensing-etl/internal/dataset"
	"github.com/couchcryptid/remote-sensing-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Source yields the current corpus, rebuilding it when the directory changed.
type Source interface {
	Load(force bool) (*dataset.Dataset, error)
}

// Sink receives every rebuilt corpus in full.
type Sink interface {
	Name() string
	Publish(ctx context.Context, ds *dataset.Dataset) error
}

// Refresher polls the source and fans each rebuilt corpus out to the sinks.
// A rebuild is detected by the source returning a different *Dataset.
type Refresher struct {
	source   Source
	sinks    []Sink
	logger   *slog.Logger
	metrics  *observability.Metrics
	interval time.Duration
	clock    clockwork.Clock
	ready    atomic.Bool

	mu        sync.Mutex
	published map[string]*dataset.Dataset
}

// New creates a Refresher checking src every interval.
func New(src Source, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration, clock clockwork.Clock) *Refresher {
	return &Refresher{
		source:    src,
		sinks:     sinks,
		logger:    logger,
		metrics:   metrics,
		interval:  interval,
		clock:     clock,
		published: make(map[string]*dataset.Dataset, len(sinks)),
	}
}

// CheckReadiness returns nil once the source has loaded successfully at least once.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}

// Run refreshes until the context is cancelled. Failures back off
// exponentially; successes wait one poll interval.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started", "interval", r.interval, "sinks", len(r.sinks))
	r.metrics.RefresherRunning.Set(1)
	defer r.metrics.RefresherRunning.Set(0)

	backoff := initialBackoff
	for {
		wait := r.interval
		if err := r.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			r.logger.Error("refresh failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff)
		} else {
			backoff = initialBackoff
		}

		if !r.sleep(ctx, wait) {
			break
		}
	}

	r.logger.Info("refresher stopping", "reason", ctx.Err())
	return nil
}

// Refresh performs one cache check and publishes the corpus to every sink
// that has not yet received it. Sinks that failed are retried on the next call.
func (r *Refresher) Refresh(ctx context.Context) error {
	ds, err := r.source.Load(false)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	r.ready.Store(true)

	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, s := range r.sinks {
		if r.published[s.Name()] == ds {
			continue
		}
		if err := s.Publish(ctx, ds); err != nil {
			r.metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
			errs = append(errs, fmt.Errorf("publish to %s: %w", s.Name(), err))
			continue
		}
		r.published[s.Name()] = ds
		r.logger.Info("dataset published", "sink", s.Name(), "rows", ds.Len())
	}
	return errors.Join(errs...)
}

func (r *Refresher) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := r.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
