package session

import "time"

// DefaultRequestTimeout is the session-level default for BEM requests when a
// caller passes zero (spec.md §6.2).
const DefaultRequestTimeout = 5 * time.Second

// DefaultSweepInterval governs how often the receive loop calls
// correlator.ProcessTimeouts when the transport is otherwise idle.
const DefaultSweepInterval = 200 * time.Millisecond

// DefaultMaxFrameSize matches bdtp.DefaultMaxFrameSize; duplicated here as a
// named constant so SerialConfig's defaults don't need to import bdtp just
// to reference it.
const DefaultMaxFrameSize = 512

// SerialConfig mirrors spec.md §6.2's SerialConfig record.
type SerialConfig struct {
	Port           string
	Baud           int  // default 115200
	DataBits       int  // default 8
	Parity         byte // 'N', 'E', or 'O'; default 'N'
	StopBits       int  // 1 or 2; default 1
	ReadBufferSize int
	ReadTimeoutMS  int
	MaxPendingMsgs int
	DefaultTimeout time.Duration
	MaxFrameSize   int
}

func (c SerialConfig) withDefaults() SerialConfig {
	if c.Baud == 0 {
		c.Baud = 115200
	}
	if c.DataBits == 0 {
		c.DataBits = 8
	}
	if c.Parity == 0 {
		c.Parity = 'N'
	}
	if c.StopBits == 0 {
		c.StopBits = 1
	}
	if c.ReadTimeoutMS == 0 {
		c.ReadTimeoutMS = 100
	}
	if c.MaxPendingMsgs == 0 {
		c.MaxPendingMsgs = 16
	}
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = DefaultRequestTimeout
	}
	if c.MaxFrameSize == 0 {
		c.MaxFrameSize = DefaultMaxFrameSize
	}
	return c
}
