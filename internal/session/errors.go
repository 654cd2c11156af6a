package session

import "errors"

// Sentinel errors, following the teacher's internal/server/errors.go
// pattern: plain errors.New values classified at call sites with errors.Is,
// wrapped with fmt.Errorf("%w: ...") for additional context.
var (
	ErrClosed          = errors.New("session: closed")
	ErrTransportOpen   = errors.New("session: transport open failed")
	ErrNoTransport     = errors.New("session: no transport configured")
	ErrShutdownTimeout = errors.New("session: shutdown timed out")
)
