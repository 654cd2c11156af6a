package transport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// AsyncWriter is a reusable asynchronous byte-buffer transmitter that funnels
// writes through a single goroutine (fan-in). It provides non-blocking
// enqueue semantics: if the internal buffer is full, Send invokes the
// configured OnDrop hook and returns its error (usually an overflow
// sentinel). This keeps producers from blocking behind a slow or wedged
// gateway link.
//
// Life-cycle:
//
//	a := NewAsyncWriter(ctx, buf, sendFn, hooks)
//	a.Send(frame)
//	a.Close()
//
// After Close returns no more buffers will be processed and the channel is
// closed; additional Send calls return ErrAsyncWriterClosed.
//
// Hooks let each backend keep distinct metrics/logging without duplicating
// the goroutine + buffer plumbing. Directly adapted from the teacher's
// transport.AsyncTx, generalized from can.Frame payloads to []byte.
type AsyncWriter struct {
	mu     sync.Mutex
	ch     chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	send   func([]byte) error
	hooks  Hooks
	closed atomic.Bool
}

// Hooks customize AsyncWriter behavior.
type Hooks struct {
	// OnError is called when send returns a non-nil error (buffer not sent).
	OnError func(error)
	// OnAfter is called only after a successful send.
	OnAfter func()
	// OnDrop is called when the buffer is full; its returned error is
	// returned from Send. If nil, the overflow is silent.
	OnDrop func() error
}

// NewAsyncWriter constructs an AsyncWriter with a buffered channel of size buf.
func NewAsyncWriter(parent context.Context, buf int, send func([]byte) error, hooks Hooks) *AsyncWriter {
	ctx, cancel := context.WithCancel(parent)
	a := &AsyncWriter{
		ch:     make(chan []byte, buf),
		ctx:    ctx,
		cancel: cancel,
		send:   send,
		hooks:  hooks,
	}
	a.wg.Add(1)
	go a.loop()
	return a
}

func (a *AsyncWriter) loop() {
	defer a.wg.Done()
	for {
		select {
		case p, ok := <-a.ch:
			if !ok {
				return
			}
			if err := a.send(p); err != nil {
				if a.hooks.OnError != nil {
					a.hooks.OnError(err)
				}
				continue
			}
			if a.hooks.OnAfter != nil {
				a.hooks.OnAfter()
			}
		case <-a.ctx.Done():
			return
		}
	}
}

// ErrAsyncWriterClosed is returned by Send once Close has been called.
var ErrAsyncWriterClosed = errors.New("async writer closed")

// Send queues a buffer for asynchronous transmission, or returns the drop
// error if the buffer is full.
func (a *AsyncWriter) Send(p []byte) error {
	if a.closed.Load() {
		return ErrAsyncWriterClosed
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed.Load() {
		return ErrAsyncWriterClosed
	}
	select {
	case a.ch <- p:
		return nil
	default:
		if a.hooks.OnDrop != nil {
			return a.hooks.OnDrop()
		}
		return nil
	}
}

// Close stops the worker and waits for it to exit. A send already in progress
// finishes; buffers still queued in the channel may be discarded unsent.
func (a *AsyncWriter) Close() {
	if a.closed.Swap(true) {
		return
	}
	a.cancel()
	a.mu.Lock()
	close(a.ch)
	a.mu.Unlock()
	a.wg.Wait()
}
