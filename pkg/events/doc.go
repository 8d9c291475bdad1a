// Package events defines the domain events emitted by authcore and the sinks
// that deliver them.
//
// Every event carries Metadata: a unique ID consumers can deduplicate on and
// the UTC time it occurred. Name returns the stable routing name used as the
// stream message type.
//
// Sinks implement Publisher:
//
//   - LogPublisher writes one structured log record per event.
//   - RedisStreamPublisher appends events to a Redis stream with bounded retries.
//   - Dispatcher runs in-process handlers subscribed by event name.
//   - Fanout delivers to several publishers and joins their errors.
//   - Instrument wraps a publisher with delivery counters.
//
// Publishers must be safe for concurrent use.
package events
