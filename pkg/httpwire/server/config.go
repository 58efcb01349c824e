// Package server implements the HTTP/1.1 server side: the per-connection
// state machine and the multi-worker acceptor that drives it.
package server

import (
	"time"

	"github.com/wireproto/httpwire/pkg/httpwire/proto"
)

// Handler consumes a parsed request and produces a response. Request
// handler internals (routing, static-file serving) are not part of this
// package; see pkg/httpwire/staticfile for a minimal one.
type Handler func(*proto.Request) *proto.Response

// Config controls acceptor and connection behavior.
type Config struct {
	// Addr is the "host:port" to listen on.
	Addr string

	// Threads is the number of worker goroutines concurrently calling
	// Accept. Each accepted connection runs on its own goroutine, so this
	// bounds accept concurrency, not the number of connections in flight.
	// Must be >= 1.
	Threads int

	// Handler is invoked once per parsed request.
	Handler Handler

	// IdleTimeout bounds how long a connection may sit between requests (or
	// mid-request) before it is closed. Applied as a net.Conn deadline.
	IdleTimeout time.Duration

	// DisableStats turns off the Prometheus collectors registered for this
	// server's connection/request counters.
	DisableStats bool
}

// DefaultConfig returns a Config with a single worker thread and a 30s idle
// timeout; callers are expected to set Addr and Handler.
func DefaultConfig() Config {
	return Config{
		Threads:     1,
		IdleTimeout: 30 * time.Second,
	}
}
