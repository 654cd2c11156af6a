// Package session composes the protocol stack — transport, BDTP framer, BST
// datagram decoders, and the BEM correlator — into the single orchestrator a
// client program drives: open, send commands, receive events, close.
package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/actisense/ngt-client/internal/bdtp"
	"github.com/actisense/ngt-client/internal/bem"
	"github.com/actisense/ngt-client/internal/bst"
	"github.com/actisense/ngt-client/internal/logging"
	"github.com/actisense/ngt-client/internal/metrics"
	"github.com/actisense/ngt-client/internal/transport"
	"github.com/rs/xid"
)

// Counters mirrors spec.md §4.7's frames_received/bem_responses_received/
// frames_dropped triple.
type Counters struct {
	FramesReceived       uint64
	BemResponsesReceived uint64
	FramesDropped        uint64
}

// Session owns one transport, one BDTP framer, one BEM correlator, the user
// event/error callbacks, and a background receive task — directly grounded
// on the teacher's Server (one listener + many clients collapsed to one
// transport + one consumer).
type Session struct {
	id         xid.ID
	tr         transport.Transport
	framer     *bdtp.Framer
	correlator *bem.Correlator
	onEvent    EventFunc
	onError    ErrorFunc

	sweepInterval time.Duration

	framesReceived       atomic.Uint64
	bemResponsesReceived atomic.Uint64
	framesDropped        atomic.Uint64

	closeOnce    sync.Once
	stopCh       chan struct{}
	doneCh       chan struct{}
	closed       atomic.Bool
	maxFrameSize int
}

// Option configures optional Session parameters at Open time.
type Option func(*Session)

// WithMaxFrameSize overrides the BDTP framer's maximum frame size, needed to
// receive BST-D0 frames up to 1799 bytes (spec.md §6.3/§9's max_frame_size
// knob).
func WithMaxFrameSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxFrameSize = n
		}
	}
}

// Open composes tr (already opened by the caller, or built by OpenSerial
// below) into a running Session. The receive loop starts
// immediately; onEvent and onError are invoked from that loop's goroutine.
func Open(tr transport.Transport, onEvent EventFunc, onError ErrorFunc, opts ...Option) (*Session, error) {
	if tr == nil {
		return nil, ErrNoTransport
	}
	s := &Session{
		id:            xid.New(),
		tr:            tr,
		correlator:    bem.NewCorrelator(),
		onEvent:       onEvent,
		onError:       onError,
		sweepInterval: DefaultSweepInterval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
		maxFrameSize:  DefaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.framer = bdtp.NewFramer(s, bdtp.WithMaxFrameSize(s.maxFrameSize))
	logging.L().Info("session_open", "session_id", s.id.String(), "transport", string(tr.Kind()))
	go s.receiveLoop()
	return s, nil
}

// OpenSerial is a thin convenience wrapper that builds a serial transport
// from cfg and calls Open, matching spec.md §6.2's open_serial(SerialConfig).
func OpenSerial(cfg SerialConfig, onEvent EventFunc, onError ErrorFunc) (*Session, error) {
	cfg = cfg.withDefaults()
	tr, err := transport.OpenSerial(transport.SerialConfig{
		Device:         cfg.Port,
		Baud:           cfg.Baud,
		ReadTimeout:    time.Duration(cfg.ReadTimeoutMS) * time.Millisecond,
		BufferCapacity: cfg.MaxPendingMsgs,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportOpen, err)
	}
	sess, err := Open(tr, onEvent, onError, WithMaxFrameSize(cfg.MaxFrameSize))
	if err != nil {
		_ = tr.Close()
		return nil, err
	}
	return sess, nil
}

// receiveLoop is the session's single dedicated receive task: it owns the
// framer and drives the timeout sweep, directly grounded on the teacher's
// server.startReader loop shape (read, feed, check shutdown, repeat).
func (s *Session) receiveLoop() {
	defer close(s.doneCh)
	buf := make([]byte, 4096)
	lastSweep := time.Now()
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}
		n, err := s.tr.Receive(buf)
		if n > 0 {
			s.framer.Feed(buf[:n])
		}
		if now := time.Now(); now.Sub(lastSweep) >= s.sweepInterval {
			s.correlator.ProcessTimeouts(now)
			metrics.SetBemPending(s.correlator.Pending())
			lastSweep = now
		}
		if err != nil {
			if errors.Is(err, transport.ErrClosed) {
				return
			}
			if errors.Is(err, transport.ErrTimeout) {
				// Expected outcome of a deadline-based poll (UDP); not fatal.
				continue
			}
			s.reportError(fmt.Errorf("transport receive: %w", err))
			return
		}
	}
}

// OnFrame implements bdtp.Sink: a clean BDTP frame closed, decode its BST
// datagram and dispatch.
func (s *Session) OnFrame(datagram []byte) {
	d, err := bst.ParseDatagram(datagram)
	if err != nil {
		s.framesDropped.Add(1)
		metrics.IncFrameDropped()
		s.reportError(fmt.Errorf("bst parse: %w", err))
		return
	}
	s.framesReceived.Add(1)

	switch {
	case bst.IsBemResponseID(d.ID):
		s.dispatchBemResponse(d)
	case bst.IsBemCommandID(d.ID):
		// A BEM command ID arriving from the device side is unexpected on a
		// host session; surface it as a raw event rather than silently drop.
		metrics.IncFrameReceived(metrics.KindRaw)
		s.emit(ParsedMessage{Protocol: "bst", MessageType: "raw", Payload: bst.RawDatagram{Datagram: d}})
	default:
		frame, ok, derr := bst.Decode(d)
		if derr != nil {
			s.framesDropped.Add(1)
			metrics.IncFrameDropped()
			s.reportError(fmt.Errorf("bst decode: %w", derr))
			return
		}
		if !ok {
			metrics.IncFrameReceived(metrics.KindRaw)
			s.emit(ParsedMessage{Protocol: "bst", MessageType: "raw", Payload: bst.RawDatagram{Datagram: d}})
			return
		}
		metrics.IncFrameReceived(frame.Kind())
		s.emit(ParsedMessage{Protocol: "bst", MessageType: frame.Kind(), Payload: frame})
	}
}

func (s *Session) dispatchBemResponse(d bst.Datagram) {
	resp, err := bem.DecodeResponse(d)
	if err != nil {
		s.framesDropped.Add(1)
		metrics.IncFrameDropped()
		s.reportError(fmt.Errorf("bem decode: %w", err))
		return
	}
	s.bemResponsesReceived.Add(1)
	metrics.IncBemResponse()

	// A hit completes the pending request's own callback and is NOT also
	// delivered as a user event (spec §4.7's ordering invariant).
	if s.correlator.Correlate(resp) {
		return
	}

	switch resp.BemID {
	case bem.SystemStatus, bem.StartupStatus, bem.ErrorReport:
		s.emitDeviceStatus(resp)
	default:
		s.emit(unsolicitedBemEvent(resp))
	}
}

// emitDeviceStatus turns an unsolicited status-bearing BEM response into
// one or more DeviceStatus events, decoding the BEM 0xF2 system-status
// grammar when present (spec §4.4).
func (s *Session) emitDeviceStatus(resp bem.Response) {
	s.emit(DeviceStatus{Key: "model_id", Value: resp.ModelID})
	s.emit(DeviceStatus{Key: "serial_number", Value: resp.SerialNumber})
	if resp.BemID != bem.SystemStatus {
		return
	}
	status, err := bem.ParseSystemStatus(resp.Data)
	if err != nil {
		s.reportError(fmt.Errorf("bem system status: %w", err))
		return
	}
	if status.HasOperatingMode {
		s.emit(DeviceStatus{Key: "operating_mode", Value: status.OperatingMode})
	}
	if status.HasCanStatus {
		s.emit(DeviceStatus{Key: "can_rx_errors", Value: status.Can.RxErrors})
		s.emit(DeviceStatus{Key: "can_tx_errors", Value: status.Can.TxErrors})
	}
}

// OnMalformed implements bdtp.Sink.
func (s *Session) OnMalformed(kind bdtp.MalformedKind) {
	s.framesDropped.Add(1)
	reason := malformedMetricReason(kind)
	metrics.IncMalformed(reason)
	s.reportError(&bdtp.ErrMalformedFrame{Kind: kind})
}

func malformedMetricReason(kind bdtp.MalformedKind) string {
	switch kind {
	case bdtp.InvalidEscape:
		return metrics.ReasonInvalidEscape
	case bdtp.ChecksumMismatch:
		return metrics.ReasonChecksumMismatch
	case bdtp.FrameTooLarge:
		return metrics.ReasonFrameTooLarge
	case bdtp.FrameAborted:
		return bdtp.FrameAborted.String()
	default:
		return metrics.ReasonTruncated
	}
}

// OnWarn implements bdtp.Sink.
func (s *Session) OnWarn(msg string) {
	logging.L().Warn("bdtp_warn", "session_id", s.id.String(), "msg", msg)
}

func (s *Session) emit(ev Event) {
	if s.onEvent != nil {
		s.onEvent(ev)
	}
}

func (s *Session) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}

// SendBemCommand encodes cmd, registers a pending correlator entry, and
// writes the wire bytes to the transport. The callback fires exactly once
// with the eventual Result (response, timeout, or cancellation).
func (s *Session) SendBemCommand(cmd bem.Command, timeout time.Duration, cb bem.Callback) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	body, err := bem.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	datagram := bst.EncodeDatagram(cmd.BstID, body)
	wire := bdtp.Encode(datagram)

	s.correlator.Register(cmd.BstID, cmd.BemID, timeout, cb)
	metrics.SetBemPending(s.correlator.Pending())
	if err := s.tr.Send(wire); err != nil {
		return fmt.Errorf("transport send: %w", err)
	}
	metrics.IncBemCommand()
	return nil
}

// GetOperatingMode issues a GetSetOperatingMode read (empty data selects the
// read variant per the device's convention) and delivers the decoded
// response through cb.
func (s *Session) GetOperatingMode(timeout time.Duration, cb bem.Callback) error {
	return s.SendBemCommand(bem.Command{BstID: bst.IDBemCommandA, BemID: bem.GetSetOperatingMode}, timeout, cb)
}

// SetOperatingMode issues a GetSetOperatingMode write with the requested
// mode value (little-endian per spec.md §4.4).
func (s *Session) SetOperatingMode(mode uint16, timeout time.Duration, cb bem.Callback) error {
	data := []byte{byte(mode), byte(mode >> 8)}
	return s.SendBemCommand(bem.Command{BstID: bst.IDBemCommandA, BemID: bem.GetSetOperatingMode, Data: data}, timeout, cb)
}

// IsConnected reports whether the underlying transport is still open.
func (s *Session) IsConnected() bool {
	return !s.closed.Load() && s.tr.IsOpen()
}

// Counters returns a snapshot of this session's frame counters.
func (s *Session) Counters() Counters {
	return Counters{
		FramesReceived:       s.framesReceived.Load(),
		BemResponsesReceived: s.bemResponsesReceived.Load(),
		FramesDropped:        s.framesDropped.Load(),
	}
}

// Close stops the receive loop, cancels all pending BEM requests, and
// closes the transport. Close is idempotent and safe to call more than
// once; subsequent calls return nil immediately.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		s.correlator.ClearAll(bem.CancelSessionClosed)
		err = s.tr.Close()
		<-s.doneCh
		logging.L().Info("session_close", "session_id", s.id.String())
	})
	return err
}
