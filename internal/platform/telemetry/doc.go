// Package telemetry records the audit journal of the estimate service.
//
// # Journal entries
//
// Room lifecycle events (creation, joins, reveals, resets, teardown) are
// appended to a storage.JournalStore. The journal is an audit trail only;
// rooms are never rebuilt from it.
//
// # Delivery
//
// Emitter writes synchronously. Queue wraps an Emitter with a bounded buffer
// and a single writer goroutine so callers holding room locks never wait on
// disk. When the buffer is full entries are dropped and counted.
package telemetry
