// Package queue runs the asynchronous email delivery worker pool.
package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/animalguardian/platform/internal/api/metrics"
	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

const (
	defaultWorkers     = 4
	defaultBuffer      = 256
	defaultMaxAttempts = 5
	defaultBaseBackoff = 2 * time.Second
	defaultMaxBackoff  = time.Minute
)

// Config sizes the worker pool and its retry policy. Zero values select the
// defaults.
type Config struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultBuffer
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = defaultBaseBackoff
	}
	if c.MaxBackoff < c.BaseBackoff {
		c.MaxBackoff = defaultMaxBackoff
		if c.MaxBackoff < c.BaseBackoff {
			c.MaxBackoff = c.BaseBackoff
		}
	}
	return c
}

// Dispatcher routes email jobs to a fixed set of workers using consistent
// hashing on the recipient address, so mail to one person leaves in order.
// Each worker retries a failed job with exponential backoff before giving up.
type Dispatcher struct {
	workers   []chan domain.EmailJob
	deliverer ports.EmailDeliverer
	cfg       Config
	log       zerolog.Logger
	wg        sync.WaitGroup
}

var _ ports.EmailQueue = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher. Call Start before enqueueing.
func NewDispatcher(cfg Config, deliverer ports.EmailDeliverer, log zerolog.Logger) *Dispatcher {
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		workers:   make([]chan domain.EmailJob, cfg.Workers),
		deliverer: deliverer,
		cfg:       cfg,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.EmailJob, cfg.QueueSize)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands job to the worker responsible for its recipient. It never
// blocks: when that worker's channel is full the job is dropped and false is
// returned. Dropped jobs stay pending in the database and are picked up again
// on the next start.
func (d *Dispatcher) Enqueue(job domain.EmailJob) bool {
	idx := d.shardIndex(job.To)
	select {
	case d.workers[idx] <- job:
		metrics.EmailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		metrics.EmailDeliveriesTotal.WithLabelValues("dropped").Inc()
		return false
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(to))
	return int(h.Sum32() % uint32(len(d.workers)))
}

// backoff returns the delay before retrying after the given failed attempt.
func (d *Dispatcher) backoff(attempt int) time.Duration {
	delay := d.cfg.BaseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= d.cfg.MaxBackoff {
			return d.cfg.MaxBackoff
		}
	}
	return delay
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.EmailJob) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			metrics.EmailQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.process(ctx, id, job)
		}
	}
}

// process delivers job, retrying until it succeeds, MaxAttempts is reached or
// ctx is cancelled. A cancelled job keeps its pending row for the next start.
func (d *Dispatcher) process(ctx context.Context, workerID int, job domain.EmailJob) {
	if job.Attempt <= 0 {
		job.Attempt = 1
	}
	for {
		start := time.Now()
		err := d.deliverer.Deliver(ctx, job)
		if err == nil {
			metrics.EmailDeliveryDuration.WithLabelValues("sent").Observe(time.Since(start).Seconds())
			metrics.EmailDeliveriesTotal.WithLabelValues("sent").Inc()
			return
		}
		metrics.EmailDeliveryDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())

		if job.Attempt >= d.cfg.MaxAttempts {
			d.log.Error().Err(err).
				Uint("notification_id", job.NotificationID).
				Int("attempt", job.Attempt).
				Int("worker_id", workerID).
				Msg("email delivery failed permanently")
			metrics.EmailDeliveriesTotal.WithLabelValues("failed").Inc()
			d.deliverer.Fail(ctx, job, err)
			return
		}

		wait := d.backoff(job.Attempt)
		d.log.Warn().Err(err).
			Uint("notification_id", job.NotificationID).
			Int("attempt", job.Attempt).
			Dur("retry_in", wait).
			Msg("email delivery failed, retrying")
		metrics.EmailDeliveriesTotal.WithLabelValues("retry").Inc()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		job.Attempt++
	}
}
