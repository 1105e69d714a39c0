package monitor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ruenh/tiktok-monitor/internal/dispatch"
	"github.com/ruenh/tiktok-monitor/pkg/config"
	errs "github.com/ruenh/tiktok-monitor/pkg/errors"
	"github.com/ruenh/tiktok-monitor/pkg/logger"
	"github.com/ruenh/tiktok-monitor/pkg/models"
	"github.com/ruenh/tiktok-monitor/pkg/retry"
	"github.com/ruenh/tiktok-monitor/pkg/state"
	"github.com/ruenh/tiktok-monitor/pkg/tiktok"
	"github.com/ruenh/tiktok-monitor/pkg/webhook"
)

// Deliverer posts one payload with a bounded retry budget. Satisfied by
// *webhook.Client.
type Deliverer interface {
	SendWithRetry(ctx context.Context, payload webhook.Payload, maxRetries int) webhook.Outcome
}

// Monitor owns the polling loop: it fetches each author's feed, filters
// already-seen videos through the state store, and relays new ones to the
// webhook, oldest first.
type Monitor struct {
	source    tiktok.Source
	deliverer Deliverer
	store     *state.Store
	logger    logger.Logger

	authors      []string
	pageSize     int
	maxRetries   int
	sweepWorkers int

	mu         sync.Mutex
	running    bool
	interval   time.Duration
	cancel     context.CancelFunc
	intervalCh chan time.Duration

	busy atomic.Bool

	// jitter and sleep are injectable so tests run cycles without real
	// elapsed time.
	jitter func() time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
}

// New builds a monitor from the validated configuration.
func New(cfg *config.Config, source tiktok.Source, deliverer Deliverer, store *state.Store, log logger.Logger) *Monitor {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Monitor{
		source:       source,
		deliverer:    deliverer,
		store:        store,
		logger:       log,
		authors:      cfg.Monitor.Authors,
		pageSize:     cfg.Monitor.PageSize,
		maxRetries:   cfg.Webhook.MaxRetries,
		sweepWorkers: 3,
		interval:     time.Duration(cfg.Monitor.IntervalSeconds) * time.Second,
		intervalCh:   make(chan time.Duration, 1),
		jitter: func() time.Duration {
			return time.Second + time.Duration(rand.Int63n(int64(2*time.Second)))
		},
		sleep: retry.Wait,
	}
}

// Start transitions the monitor to Running: one poll cycle fires
// immediately, then a repeating timer takes over. Calling Start while
// already Running is a logged no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.logger.Warn("monitor already running, start ignored")
		return
	}
	m.running = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	interval := m.interval
	m.mu.Unlock()

	m.logger.InfoWithFields("monitor started", map[string]interface{}{
		"authors":  m.authors,
		"interval": interval.String(),
	})

	go m.loop(ctx, interval)
}

// Stop transitions the monitor to Stopped. An in-flight poll cycle is not
// aborted; stop only prevents future cycles. Calling Stop while already
// Stopped is a logged no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		m.logger.Warn("monitor not running, stop ignored")
		return
	}
	m.running = false
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.logger.Info("monitor stopped")
}

// SetInterval updates the polling interval. When Running, the timer is
// re-armed with the new interval without leaving the Running state.
func (m *Monitor) SetInterval(seconds int) error {
	if seconds < config.MinIntervalSeconds || seconds > config.MaxIntervalSeconds {
		return fmt.Errorf("polling interval must be between %d and %d seconds, got %d",
			config.MinIntervalSeconds, config.MaxIntervalSeconds, seconds)
	}

	d := time.Duration(seconds) * time.Second

	m.mu.Lock()
	m.interval = d
	running := m.running
	m.mu.Unlock()

	if running {
		// Replace any interval update the loop has not picked up yet.
		select {
		case m.intervalCh <- d:
		default:
			select {
			case <-m.intervalCh:
			default:
			}
			m.intervalCh <- d
		}
	}

	m.logger.InfoWithFields("polling interval updated", map[string]interface{}{
		"interval_seconds": seconds,
	})
	return nil
}

// IsRunning reports whether the polling loop is active.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Interval returns the configured polling interval.
func (m *Monitor) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// loop drives cycles until the scheduling context is cancelled. Cycles get
// a background context so stopping the loop never aborts in-flight network
// calls.
func (m *Monitor) loop(ctx context.Context, interval time.Duration) {
	if err := m.RunOnce(context.Background()); err != nil {
		m.logger.WithError(err).Error("poll cycle failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-m.intervalCh:
			ticker.Reset(d)
		case <-ticker.C:
			if err := m.RunOnce(context.Background()); err != nil {
				m.logger.WithError(err).Error("poll cycle failed")
			}
		}
	}
}

// RunOnce executes exactly one poll cycle synchronously. When a cycle is
// already in flight the call is skipped with a logged warning rather than
// overlapping it. An empty author list logs and returns without error.
func (m *Monitor) RunOnce(ctx context.Context) error {
	if !m.busy.CompareAndSwap(false, true) {
		m.logger.Warn("poll cycle already in flight, skipping")
		return nil
	}
	defer m.busy.Store(false)

	if len(m.authors) == 0 {
		m.logger.Warn("no authors configured, nothing to poll")
		return nil
	}

	start := time.Now()
	var newVideos, failures int

	for i, author := range m.authors {
		delivered, failed := m.pollAuthor(ctx, author)
		newVideos += delivered
		failures += failed

		// Spread author fetches out so the source never sees a burst.
		if i < len(m.authors)-1 {
			if err := m.sleep(ctx, m.jitter()); err != nil {
				return err
			}
		}
	}

	logger.LogPollCycle(len(m.authors), newVideos, failures, time.Since(start))
	return nil
}

// pollAuthor processes one author: fetch, dedup, deliver oldest-first,
// then stamp the check time. Failures are contained here so one author
// never blocks the rest of the cycle.
func (m *Monitor) pollAuthor(ctx context.Context, author string) (delivered, failures int) {
	videos, err := m.source.GetLatestVideos(ctx, author, m.pageSize)
	if err != nil {
		var apiErr *errs.Error
		if errors.As(err, &apiErr) && apiErr.Type == errs.ErrorTypeRateLimit {
			logger.LogRateLimit("tiktok", 60)
		}
		m.logger.ErrorWithFields("author fetch failed", map[string]interface{}{
			"author": author,
			"error":  err.Error(),
		})
		return 0, 1
	}

	fresh := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if !m.store.Exists(v.ID) {
			fresh = append(fresh, v)
		}
	}

	// Deliver in publish order even though the feed arrives newest-first.
	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].PublishedAt.Before(fresh[j].PublishedAt)
	})

	for _, video := range fresh {
		rec := state.DeliveryRecord{
			VideoID:     video.ID,
			Author:      author,
			ProcessedAt: time.Now().UTC(),
			Status:      state.StatusPending,
			RetryCount:  0,
		}

		// Persist the pending marker before the network call so a crash
		// mid-delivery leaves the video recoverable through the retry
		// sweep instead of being redelivered blindly.
		if err := m.store.MarkProcessed(rec); err != nil {
			m.logger.ErrorWithFields("failed to persist pending record", map[string]interface{}{
				"video_id": video.ID,
				"author":   author,
				"error":    err.Error(),
			})
			failures++
			continue
		}

		outcome := m.deliverer.SendWithRetry(ctx, webhook.BuildPayload(video), m.maxRetries)

		rec.RetryCount = outcome.Attempts
		if outcome.Success {
			rec.Status = state.StatusSent
			delivered++
		} else {
			rec.Status = state.StatusFailed
			failures++
		}

		if err := m.store.MarkProcessed(rec); err != nil {
			m.logger.ErrorWithFields("failed to persist delivery outcome", map[string]interface{}{
				"video_id": video.ID,
				"author":   author,
				"status":   string(rec.Status),
				"error":    err.Error(),
			})
		}
	}

	if err := m.store.SetLastCheck(author, time.Now().UTC()); err != nil {
		m.logger.ErrorWithFields("failed to persist last check time", map[string]interface{}{
			"author": author,
			"error":  err.Error(),
		})
	}

	return delivered, failures
}

// RetryFailedWebhooks sweeps failed delivery records that still have retry
// budget left, re-fetches each video's current metadata, and re-attempts
// delivery through a worker pool. Retry counts accumulate across sweeps;
// records whose budget is exhausted are skipped. Store mutations stay on
// the calling goroutine.
func (m *Monitor) RetryFailedWebhooks(ctx context.Context) error {
	failed := m.store.FailedRecords()
	if len(failed) == 0 {
		m.logger.Info("no failed deliveries to retry")
		return nil
	}

	type sweepJob struct {
		rec     state.DeliveryRecord
		payload webhook.Payload
		budget  int
	}

	var jobs []sweepJob
	for _, rec := range failed {
		if rec.RetryCount >= m.maxRetries {
			m.logger.DebugWithFields("retry budget exhausted, skipping", map[string]interface{}{
				"video_id":    rec.VideoID,
				"retry_count": rec.RetryCount,
			})
			continue
		}

		// Transient fetch errors get a short second chance; a gone video
		// returns a non-retryable not_found and is skipped right away.
		video, err := retry.DoWithResult(func() (*models.Video, error) {
			return m.source.GetVideoByID(ctx, rec.VideoID)
		}, &retry.Config{
			MaxAttempts: 2,
			Backoff:     &retry.ConstantBackoff{Delay: time.Second},
			RetryIf:     retry.DefaultRetryIf,
			Context:     ctx,
			Logger:      m.logger,
		})
		if err != nil {
			m.logger.WarnWithFields("video unavailable, skipping retry", map[string]interface{}{
				"video_id": rec.VideoID,
				"author":   rec.Author,
				"error":    err.Error(),
			})
			continue
		}

		jobs = append(jobs, sweepJob{
			rec:     rec,
			payload: webhook.BuildPayload(*video),
			budget:  m.maxRetries - rec.RetryCount,
		})
	}

	if len(jobs) == 0 {
		m.logger.Info("no retryable deliveries after filtering")
		return nil
	}

	records := make(map[string]state.DeliveryRecord, len(jobs))
	for _, job := range jobs {
		records[job.rec.VideoID] = job.rec
	}

	pool := dispatch.NewPool(m.sweepWorkers, m.deliverer, m.logger)
	pool.Start()

	go func() {
		for _, job := range jobs {
			if err := pool.Submit(dispatch.DeliveryJob{Payload: job.payload, Budget: job.budget}); err != nil {
				m.logger.WithError(err).Error("failed to submit retry job")
			}
		}
		pool.Stop()
	}()

	var retried, recovered int
	for result := range pool.Results() {
		rec := records[result.Job.Payload.VideoID]
		rec.RetryCount += result.Outcome.Attempts
		if result.Outcome.Success {
			rec.Status = state.StatusSent
			recovered++
		} else {
			rec.Status = state.StatusFailed
		}
		retried++

		if err := m.store.MarkProcessed(rec); err != nil {
			m.logger.ErrorWithFields("failed to persist retry outcome", map[string]interface{}{
				"video_id": rec.VideoID,
				"error":    err.Error(),
			})
		}
	}

	m.logger.InfoWithFields("retry sweep completed", map[string]interface{}{
		"retried":   retried,
		"recovered": recovered,
	})
	return nil
}
