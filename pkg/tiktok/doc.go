// Package tiktok implements the HTTP client for the TikTok web API and the
// Source interface the monitor polls through. Responses are normalized into
// the domain shapes in pkg/models; failures carry the typed errors from
// pkg/errors so callers can decide what to retry.
package tiktok
