// Package webhook posts new-video notifications to the configured HTTP
// endpoint. SendWithRetry owns the bounded exponential backoff; callers
// record the outcome but never retry on top of it.
package webhook
