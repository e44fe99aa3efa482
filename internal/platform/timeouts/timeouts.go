// Package timeouts defines shared timeout constants used across the service.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer.
const GRPCDial = 2 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// WSWrite bounds a single websocket frame write to a slow peer.
const WSWrite = 10 * time.Second

// JournalWrite bounds one asynchronous journal append.
const JournalWrite = 2 * time.Second
