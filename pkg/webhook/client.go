package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ruenh/tiktok-monitor/pkg/config"
	errs "github.com/ruenh/tiktok-monitor/pkg/errors"
	"github.com/ruenh/tiktok-monitor/pkg/logger"
	"github.com/ruenh/tiktok-monitor/pkg/retry"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body when a
// shared secret is configured.
const SignatureHeader = "X-Monitor-Signature"

// Outcome is the result of a delivery attempt sequence.
type Outcome struct {
	Success    bool
	StatusCode int
	Attempts   int
	Err        error
}

// Client posts payloads to a single webhook endpoint
type Client struct {
	endpoint   string
	secret     string
	httpClient *http.Client
	backoff    retry.BackoffStrategy
	sleep      func(ctx context.Context, d time.Duration) error
	logger     logger.Logger
}

// NewClient creates a webhook client from the delivery configuration.
func NewClient(cfg *config.WebhookConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		endpoint: cfg.URL,
		secret:   cfg.Secret,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		backoff: retry.DeliveryBackoff(),
		sleep:   retry.Wait,
		logger:  log,
	}
}

// SendOnce performs a single delivery attempt with no retries.
func (c *Client) SendOnce(ctx context.Context, payload Payload) Outcome {
	outcome := Outcome{Attempts: 1}

	body, err := json.Marshal(payload)
	if err != nil {
		outcome.Err = fmt.Errorf("failed to encode payload: %w", err)
		return outcome
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		outcome.Err = fmt.Errorf("failed to create request: %w", err)
		return outcome
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "tiktok-monitor")
	if c.secret != "" {
		req.Header.Set(SignatureHeader, c.sign(body))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome.Err = &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("webhook request failed: %v", err),
			Code:    0,
		}
		return outcome
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	outcome.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		outcome.Success = true
		return outcome
	}

	outcome.Err = errs.FromStatusCode(resp.StatusCode,
		fmt.Sprintf("webhook returned status %d", resp.StatusCode))
	return outcome
}

// SendWithRetry delivers the payload with up to maxRetries retries after the
// initial attempt, sleeping 1s, 2s, 4s, ... between attempts. Every failure
// is retried until the budget runs out; a 2xx response stops immediately.
func (c *Client) SendWithRetry(ctx context.Context, payload Payload, maxRetries int) Outcome {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var last Outcome
	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		if attempt > 1 {
			delay := c.backoff.NextDelay(attempt - 1)
			c.logger.DebugWithFields("waiting before webhook retry", map[string]interface{}{
				"video_id": payload.VideoID,
				"attempt":  attempt,
				"delay":    delay.String(),
			})
			if err := c.sleep(ctx, delay); err != nil {
				last.Err = err
				last.Attempts = attempt - 1
				return last
			}
		}

		last = c.SendOnce(ctx, payload)
		last.Attempts = attempt

		if last.Success {
			c.logger.InfoWithFields("webhook delivered", map[string]interface{}{
				"video_id": payload.VideoID,
				"author":   payload.Author,
				"attempts": attempt,
			})
			return last
		}

		c.logger.WarnWithFields("webhook delivery attempt failed", map[string]interface{}{
			"video_id": payload.VideoID,
			"attempt":  attempt,
			"status":   last.StatusCode,
			"error":    last.Err.Error(),
		})
	}

	c.logger.ErrorWithFields("webhook delivery exhausted retries", map[string]interface{}{
		"video_id": payload.VideoID,
		"author":   payload.Author,
		"attempts": last.Attempts,
		"error":    last.Err.Error(),
	})
	return last
}

// sign computes the hex HMAC-SHA256 of the body under the shared secret.
func (c *Client) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
