// Package transport implements the byte-level link to an Actisense gateway:
// serial, UDP, or in-memory loopback, all behind one Transport interface.
package transport

import "errors"

// ErrClosed is returned by Receive once the transport has been closed. Send
// on a closed transport returns the backend's own error.
var ErrClosed = errors.New("transport: closed")

// ErrTimeout is returned by Receive when a configured read deadline expires
// with no data available. Unlike ErrClosed, this is not fatal: callers
// should treat it as "nothing arrived this poll" and call Receive again.
var ErrTimeout = errors.New("transport: read timeout")

// Kind identifies the concrete transport in logs and metrics labels.
type Kind string

const (
	KindSerial   Kind = "serial"
	KindUDP      Kind = "udp"
	KindLoopback Kind = "loopback"
)

// Transport is the single abstraction the session orchestrator drives. A
// Transport carries opaque byte buffers; the BDTP framer above it owns all
// message boundaries, so Send/Receive need not preserve datagram framing
// for stream-oriented backends (serial) but do for packet-oriented ones
// (UDP, loopback).
type Transport interface {
	// Send writes a buffer to the remote gateway. It may block briefly but
	// must not block indefinitely; callers that need non-blocking enqueue
	// semantics should go through AsyncWriter instead of calling Send
	// directly from a hot path.
	Send(p []byte) error

	// Receive reads the next available chunk of bytes into p and returns
	// the number read. It blocks until data is available, the transport is
	// closed, or an error occurs.
	Receive(p []byte) (int, error)

	// Close releases the underlying resource. Close is idempotent.
	Close() error

	// IsOpen reports whether the transport is still usable.
	IsOpen() bool

	// Kind identifies the transport for logging/metrics.
	Kind() Kind
}
