package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ruenh/tiktok-monitor/pkg/logger"
	"github.com/ruenh/tiktok-monitor/pkg/webhook"
)

// DeliveryJob is one webhook delivery to perform during a retry sweep.
type DeliveryJob struct {
	Payload webhook.Payload
	// Budget is the number of retries still available to this delivery
	// after the first attempt.
	Budget int
}

// DeliveryResult reports the outcome of one delivery job.
type DeliveryResult struct {
	Job      DeliveryJob
	Outcome  webhook.Outcome
	Duration time.Duration
}

// Deliverer posts a payload with a bounded retry budget.
type Deliverer interface {
	SendWithRetry(ctx context.Context, payload webhook.Payload, maxRetries int) webhook.Outcome
}

// Pool fans webhook deliveries out across a fixed set of workers. Results
// flow back on a channel so the caller can apply store mutations from its
// own goroutine.
type Pool struct {
	numWorkers  int
	jobQueue    chan DeliveryJob
	resultQueue chan DeliveryResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	deliverer   Deliverer
	logger      logger.Logger

	mu      sync.Mutex
	stopped bool
}

// NewPool creates a delivery pool with the given worker count.
func NewPool(numWorkers int, deliverer Deliverer, log logger.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &Pool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan DeliveryJob, numWorkers*2),
		resultQueue: make(chan DeliveryResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		deliverer:   deliverer,
		logger:      log,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	p.logger.DebugWithFields("starting delivery pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the job queue, drains the workers, then closes the result
// channel. Call after the last Submit.
func (p *Pool) Stop() {
	p.mu.Lock()
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.wg.Wait()
	close(p.resultQueue)
	p.cancel()

	p.logger.Debug("delivery pool stopped")
}

// Submit enqueues a delivery job. The lock is held across the send so Submit
// never races a concurrent Stop onto a closed queue.
func (p *Pool) Submit(job DeliveryJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return fmt.Errorf("delivery pool is shutting down")
	}
	p.jobQueue <- job
	return nil
}

// Results returns the channel of completed deliveries.
func (p *Pool) Results() <-chan DeliveryResult {
	return p.resultQueue
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		start := time.Now()
		outcome := p.deliverer.SendWithRetry(p.ctx, job.Payload, job.Budget)
		result := DeliveryResult{
			Job:      job,
			Outcome:  outcome,
			Duration: time.Since(start),
		}

		p.logger.DebugWithFields("delivery job finished", map[string]interface{}{
			"worker_id": id,
			"video_id":  job.Payload.VideoID,
			"success":   outcome.Success,
			"attempts":  outcome.Attempts,
			"duration":  result.Duration,
		})

		select {
		case p.resultQueue <- result:
		case <-p.ctx.Done():
			return
		}
	}
}
