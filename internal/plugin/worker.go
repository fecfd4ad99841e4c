package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Worker drives one collector's sampling loop on its own goroutine. It is
// the single writer for every datasource the collector owns.
type Worker struct {
	col     Collector
	log     *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started atomic.Bool
}

// NewWorker wraps a collector. The worker stops when ctx is cancelled or
// when Stop is called, whichever comes first.
func NewWorker(ctx context.Context, col Collector) *Worker {
	wctx, cancel := context.WithCancel(ctx)
	return &Worker{
		col:    col,
		log:    slog.With("plugin", col.Name()),
		ctx:    wctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start begins the sampling loop. Non-blocking. Calling Start twice on the
// same worker is a programming error.
func (w *Worker) Start() {
	if !w.started.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("plugin %s started twice", w.col.Name()))
	}
	go w.run()
}

// Stop requests cooperative shutdown. It is safe to call any number of
// times; repeated requests are no-ops.
func (w *Worker) Stop() {
	w.cancel()
}

// Join blocks until the sampling loop has exited. A worker that was never
// started has nothing to join.
func (w *Worker) Join() {
	if !w.started.Load() {
		return
	}
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)
	w.log.Info("plugin starting", "interval", w.col.Interval())

	ticker := time.NewTicker(w.col.Interval())
	defer ticker.Stop()

	// Damps a collector that panics on every pass so the loop does not
	// spin when the interval is short.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	w.pass(bo)
	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("plugin exiting")
			return
		case <-ticker.C:
			w.pass(bo)
		}
	}
}

// pass runs one sampling pass: collect, then append one value per owned
// datasource. Failures are isolated per datasource; a datasource the
// collector produced no value for gets the unknown sentinel.
func (w *Worker) pass(bo backoff.BackOff) {
	values, panicked, err := w.collect()
	if err != nil {
		w.log.Warn("sampling pass failed", "err", err)
	}

	now := time.Now()
	for _, ds := range w.col.Datasources() {
		v, ok := values[ds.Name()]
		if !ok {
			if err == nil {
				w.log.Warn("no value for datasource", "datasource", ds.ID())
			}
			v = math.NaN()
		}
		if aerr := ds.Append(now, v); aerr != nil {
			w.log.Warn("append failed", "datasource", ds.ID(), "err", aerr)
		}
	}

	if panicked {
		select {
		case <-w.ctx.Done():
		case <-time.After(bo.NextBackOff()):
		}
	} else {
		bo.Reset()
	}
}

// collect invokes the collector with panic recovery, so one bad poll never
// kills the daemon.
func (w *Worker) collect() (values map[string]float64, panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = fmt.Errorf("panic in %s: %v", w.col.Name(), r)
		}
	}()
	values, err = w.col.Collect(w.ctx)
	return
}
