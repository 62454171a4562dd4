// Package audit decouples audit-log appends from the request path. Handlers
// enqueue entries and respond immediately; a single background writer persists
// them. A failing audit store therefore never fails a caller's mutation.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nigmanand/portfolio-api/internal/domain/audit"
	"github.com/nigmanand/portfolio-api/internal/observability"
)

type Store interface {
	Insert(ctx context.Context, e audit.Entry) error
}

const (
	defaultQueueSize = 256
	insertTimeout    = 5 * time.Second
)

type Recorder struct {
	store Store
	log   *slog.Logger
	prom  *observability.Prom

	ch   chan audit.Entry
	done chan struct{}
	once sync.Once
}

func NewRecorder(store Store, log *slog.Logger, prom *observability.Prom) *Recorder {
	r := &Recorder{
		store: store,
		log:   log,
		prom:  prom,
		ch:    make(chan audit.Entry, defaultQueueSize),
		done:  make(chan struct{}),
	}

	go r.run()

	return r
}

// Record enqueues one entry. It never blocks: when the queue is full the entry
// is dropped with a log line and a counter bump rather than stalling the
// request that produced it.
func (r *Recorder) Record(_ context.Context, e audit.Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	select {
	case r.ch <- e:
		r.prom.AuditQueueDepth.Set(float64(len(r.ch)))
	default:
		r.prom.AuditResults.WithLabelValues("dropped").Inc()
		r.log.Error("audit queue full, entry dropped",
			"action", e.Action, "resource", e.Resource, "resource_id", e.ResourceID)
	}
}

func (r *Recorder) run() {
	defer close(r.done)

	for e := range r.ch {
		r.prom.AuditQueueDepth.Set(float64(len(r.ch)))

		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		err := r.store.Insert(ctx, e)
		cancel()

		if err != nil {
			r.prom.AuditResults.WithLabelValues("error").Inc()
			r.log.Error("audit append failed",
				"err", err, "action", e.Action, "resource", e.Resource, "resource_id", e.ResourceID)
			continue
		}

		r.prom.AuditResults.WithLabelValues("ok").Inc()
	}
}

// Close drains outstanding entries and stops the writer. Call after the HTTP
// server has shut down so in-flight handlers cannot enqueue anymore.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.ch)
	})

	<-r.done
}
