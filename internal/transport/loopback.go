package transport

import (
	"errors"
	"io"
	"sync"
)

// LoopbackPair is two connected in-memory transports: writes to one side's
// Send become readable from the other side's Receive. Used by tests and by
// in-process development in place of a physical gateway link.
type LoopbackPair struct {
	Host   *Loopback
	Device *Loopback
}

// NewLoopbackPair builds two io.Pipe-connected Loopback transports.
func NewLoopbackPair() *LoopbackPair {
	hostR, deviceW := io.Pipe()
	deviceR, hostW := io.Pipe()
	return &LoopbackPair{
		Host:   &Loopback{r: hostR, w: hostW},
		Device: &Loopback{r: deviceR, w: deviceW},
	}
}

// Loopback is an io.Pipe-backed Transport, one half of a LoopbackPair.
type Loopback struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu     sync.Mutex
	closed bool
}

func (l *Loopback) Send(p []byte) error {
	_, err := l.w.Write(p)
	return err
}

func (l *Loopback) Receive(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		err = ErrClosed
	}
	return n, err
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()
	_ = l.w.Close()
	return l.r.Close()
}

func (l *Loopback) IsOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.closed
}

func (l *Loopback) Kind() Kind { return KindLoopback }
