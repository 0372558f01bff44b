// Package resilience retries idempotent REST calls to the playground
// backend with exponential backoff.
//
// Streaming runs are never retried: a stream that failed half way has
// already delivered units to its consumer.
package resilience
