// Package notify delivers real-time task events to connected clients.
//
// A Hub tracks live sessions and the subject groups they have joined. Publish
// targets one subject's group, Broadcast targets every session. Delivery is
// at-most-once: each session owns a bounded outbox drained by a single writer
// goroutine, and an event that does not fit is dropped for that session only.
// The WebSocket transport in this package drives session registration.
package notify
