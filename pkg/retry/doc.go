// Package retry provides retry logic with configurable backoff strategies.
//
// The webhook client uses the uncapped DeliveryBackoff sequence and bounds
// it through its retry budget; the retry sweep uses DoWithResult for
// transient errors while re-fetching video metadata.
package retry
