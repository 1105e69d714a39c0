package logger

import "time"

// LogDelivery records the outcome of one webhook delivery sequence.
func LogDelivery(author, videoID string, attempts int, success bool, err error) {
	fields := map[string]interface{}{
		"author":   author,
		"video_id": videoID,
		"attempts": attempts,
		"event":    "webhook_delivery",
	}

	if success {
		GetLogger().InfoWithFields("webhook delivered", fields)
		return
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	GetLogger().ErrorWithFields("webhook delivery failed", fields)
}

// LogPollCycle records the completion of one full poll cycle.
func LogPollCycle(authors, newVideos, failures int, duration time.Duration) {
	GetLogger().InfoWithFields("poll cycle completed", map[string]interface{}{
		"authors":    authors,
		"new_videos": newVideos,
		"failures":   failures,
		"duration":   duration,
		"event":      "poll_cycle",
	})
}

// LogRateLimit records a rate-limit response from the content source.
func LogRateLimit(source string, waitSeconds int) {
	GetLogger().WarnWithFields("rate limit hit", map[string]interface{}{
		"source":       source,
		"wait_seconds": waitSeconds,
		"event":        "rate_limit",
	})
}
