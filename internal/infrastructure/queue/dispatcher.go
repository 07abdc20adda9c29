package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/recruitly/template-service/internal/api/metrics"
	"github.com/recruitly/template-service/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrQueueFull is returned by Enqueue when the recipient's worker has no
// free buffer slot.
var ErrQueueFull = errors.New("dispatch queue full")

// ErrClosed is returned by Enqueue once Close has been called.
var ErrClosed = errors.New("dispatcher closed")

// Dispatcher runs sends in the background on a fixed set of workers. Sends
// are sharded by recipient address so messages to one recipient go out in
// the order they were accepted.
type Dispatcher struct {
	workers []chan ports.SendInput
	service ports.MessageService
	log     zerolog.Logger
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.MessageService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.SendInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.SendInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop once Close has been
// called and their buffer is empty, or at once when ctx is cancelled, in
// which case queued sends are discarded and counted in the log.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Close stops accepting sends. Workers finish what is already buffered and
// then return. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
}

// Drain closes the dispatcher and waits for buffered sends to finish. If ctx
// ends first, workers are stopped through cancelWorkers and whatever is left
// in their buffers is dropped.
func (d *Dispatcher) Drain(ctx context.Context, cancelWorkers context.CancelFunc) {
	d.Close()
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		d.log.Warn().Msg("dispatch drain timed out, stopping workers")
		cancelWorkers()
		<-done
	}
}

// Enqueue hands a send to the worker responsible for its recipient without
// blocking.
func (d *Dispatcher) Enqueue(in ports.SendInput) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	idx := d.shardIndex(in.To)
	select {
	case d.workers[idx] <- in:
		metrics.DispatchQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	default:
		return ErrQueueFull
	}
}

// shardIndex maps a recipient deterministically to a worker index.
// Addresses are compared case-insensitively.
func (d *Dispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(to)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.SendInput) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		// Cancellation wins over a ready channel.
		if ctx.Err() != nil {
			d.discard(id, label, ch)
			return
		}
		select {
		case <-ctx.Done():
			d.discard(id, label, ch)
			return
		case in, ok := <-ch:
			if !ok {
				return
			}
			metrics.DispatchQueueDepth.WithLabelValues(label).Dec()
			res := d.service.SendByType(ctx, in)
			if res.Err != nil {
				d.log.Error().Err(res.Err).
					Str("type", string(in.Type)).
					Str("template_id", res.TemplateID).
					Int("worker_id", id).
					Msg("async send failed")
			}
		}
	}
}

func (d *Dispatcher) discard(id int, label string, ch <-chan ports.SendInput) {
	n := len(ch)
	if n == 0 {
		return
	}
	metrics.DispatchQueueDepth.WithLabelValues(label).Sub(float64(n))
	d.log.Warn().Int("worker_id", id).Int("discarded", n).Msg("worker stopped with queued sends")
}
