package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/actisense/ngt-client/internal/metrics"
)

// UDPConfig configures a UDP Transport to a single gateway peer, e.g. an
// Actisense W2K-1 Wi-Fi gateway bridging BDTP over a local network link.
type UDPConfig struct {
	RemoteAddr     string
	LocalAddr      string // optional; "" binds an ephemeral local port
	ReadTimeout    time.Duration
	BufferCapacity int
}

// UDPTransport is a net.UDPConn-backed Transport to a single remote peer,
// grounded on the teacher's internal/server accept/read/write shape,
// collapsed from "many TCP clients behind a Hub" to "one UDP peer".
type UDPTransport struct {
	conn        *net.UDPConn
	readTimeout time.Duration
	send        *AsyncWriter

	mu     sync.Mutex
	closed bool
}

// DialUDP opens a UDP socket to cfg.RemoteAddr.
func DialUDP(cfg UDPConfig) (*UDPTransport, error) {
	if cfg.BufferCapacity <= 0 {
		cfg.BufferCapacity = DefaultSerialBufferCapacity
	}
	raddr, err := net.ResolveUDPAddr("udp", cfg.RemoteAddr)
	if err != nil {
		return nil, err
	}
	var laddr *net.UDPAddr
	if cfg.LocalAddr != "" {
		laddr, err = net.ResolveUDPAddr("udp", cfg.LocalAddr)
		if err != nil {
			return nil, err
		}
	}
	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return nil, err
	}
	t := &UDPTransport{conn: conn, readTimeout: cfg.ReadTimeout}
	t.send = NewAsyncWriter(context.Background(), cfg.BufferCapacity, func(p []byte) error {
		_, err := conn.Write(p)
		if err == nil {
			metrics.AddBytesTx(len(p))
		}
		return err
	}, Hooks{
		OnError: func(err error) { metrics.IncError(metrics.ErrTransportWrite) },
		OnDrop:  func() error { metrics.IncError(metrics.ErrTransportOverflow); return ErrAsyncWriterClosed },
	})
	return t, nil
}

func (t *UDPTransport) Send(p []byte) error { return t.send.Send(p) }

func (t *UDPTransport) Receive(p []byte) (int, error) {
	if t.readTimeout > 0 {
		_ = t.conn.SetReadDeadline(time.Now().Add(t.readTimeout))
	}
	n, err := t.conn.Read(p)
	if n > 0 {
		metrics.AddBytesRx(n)
	}
	if err != nil {
		if t.closedErr() {
			return n, ErrClosed
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return n, ErrTimeout
		}
		return n, err
	}
	return n, nil
}

func (t *UDPTransport) closedErr() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *UDPTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()
	t.send.Close()
	return t.conn.Close()
}

func (t *UDPTransport) IsOpen() bool { return !t.closedErr() }

func (t *UDPTransport) Kind() Kind { return KindUDP }
