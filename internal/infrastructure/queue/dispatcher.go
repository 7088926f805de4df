package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/quacc/access-point-api/internal/api/metrics"
	"github.com/quacc/access-point-api/internal/core/domain"
	"github.com/quacc/access-point-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes reports to a fixed set of workers by access point id, so
// reports for one access point are fulfilled in the order they were enqueued.
type Dispatcher struct {
	mu      sync.RWMutex
	closed  bool
	workers []chan domain.Report
	wg      sync.WaitGroup
	service ports.ReportService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.ReportService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Report, numWorkers),
		service: service,
		log:     log.With().Str("component", "queue").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Report, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. ctx is handed to every fulfillment;
// workers exit once Close has drained their channel.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a report to the worker responsible for its access point.
// It blocks while that worker's buffer is full, until ctx is done.
func (d *Dispatcher) Enqueue(ctx context.Context, report domain.Report) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return domain.ErrQueueClosed
	}

	idx := d.shardIndex(report.Target)
	select {
	case d.workers[idx] <- report:
		metrics.ReportQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnqueueBatch enqueues reports in order and stops at the first failure,
// returning how many were accepted.
func (d *Dispatcher) EnqueueBatch(ctx context.Context, reports []domain.Report) (int, error) {
	for i, r := range reports {
		if err := d.Enqueue(ctx, r); err != nil {
			return i, err
		}
	}
	return len(reports), nil
}

// Close stops accepting reports and waits for queued ones to be fulfilled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// shardIndex maps an access point id deterministically to a worker index.
func (d *Dispatcher) shardIndex(id domain.AccessPointID) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatUint(uint64(id), 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Report) {
	defer d.wg.Done()
	depth := metrics.ReportQueueDepth.WithLabelValues(strconv.Itoa(id))
	for report := range ch {
		depth.Dec()
		if _, err := d.service.Fulfill(ctx, report); err != nil {
			d.log.Error().Err(err).
				Uint64("access_point_id", uint64(report.Target)).
				Int("worker_id", id).
				Msg("queued report failed")
		}
	}
}
