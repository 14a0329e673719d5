package audit

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aywhoosh/iris-identity/internal/api/metrics"
	"github.com/aywhoosh/iris-identity/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher takes audit writes off the request path. Entries are routed to a
// fixed set of workers by consistent hashing on the actor, preserving
// per-actor ordering, and handed to the underlying recorder asynchronously.
//
// Best-effort by design: when a worker channel is full the entry is dropped
// and the drop is logged — audit completeness never outranks availability of
// the primary action.
type Dispatcher struct {
	workers  []chan ports.AuditEntryInput
	recorder ports.AuditRecorder
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, recorder ports.AuditRecorder, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.AuditEntryInput, numWorkers),
		recorder: recorder,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.AuditEntryInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Record assigns the entry id up front, enqueues without blocking, and
// returns immediately. The error return exists to satisfy the recorder
// contract; enqueueing itself cannot fail the caller.
func (d *Dispatcher) Record(_ context.Context, in ports.AuditEntryInput) (string, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	idx := d.shardIndex(in)
	select {
	case d.workers[idx] <- in:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AuditDroppedTotal.Inc()
		d.log.Warn().
			Str("action", in.Action).
			Str("audit_id", in.ID).
			Msg("audit queue full, entry dropped")
	}
	return in.ID, nil
}

// shardIndex maps an entry deterministically to a worker index, keyed on the
// actor so one user's trail stays ordered. Anonymous entries shard by source
// address instead.
func (d *Dispatcher) shardIndex(in ports.AuditEntryInput) int {
	key := in.ActorID
	if key == "" {
		key = in.IPAddress
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.AuditEntryInput) {
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-ch:
			if !ok {
				return
			}
			metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			if _, err := d.recorder.Record(ctx, in); err != nil {
				d.log.Error().Err(err).
					Str("action", in.Action).
					Int("worker_id", id).
					Msg("audit record failed")
			}
		}
	}
}

var _ ports.AuditRecorder = (*Dispatcher)(nil)
