// Package redis provides the Redis-backed idempotency key store used to
// reject replayed task-creation requests.
package redis
