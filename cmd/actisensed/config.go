package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/actisense/ngt-client/internal/session"
	"github.com/actisense/ngt-client/internal/transport"
	"github.com/spf13/pflag"
)

// appConfig holds the flags shared across subcommands, following the
// teacher's flag-then-env-override precedence (applyEnvOverrides), ported
// from stdlib flag onto cobra/pflag.
type appConfig struct {
	transport       string // "serial" or "udp"
	device          string
	baud            int
	readTimeout     time.Duration
	bufferCapacity  int
	maxFrameSize    int
	udpRemoteAddr   string
	udpLocalAddr    string
	logFormat       string
	logLevel        string
	metricsAddr     string
	logMetricsEvery time.Duration
	mdnsEnable      bool
	mdnsName        string
	requestTimeout  time.Duration
}

func defaultConfig() *appConfig {
	return &appConfig{
		transport:      "serial",
		device:         "/dev/ttyUSB0",
		baud:           115200,
		readTimeout:    100 * time.Millisecond,
		bufferCapacity: 16,
		maxFrameSize:   session.DefaultMaxFrameSize,
		logFormat:      "text",
		logLevel:       "info",
		requestTimeout: 5 * time.Second,
	}
}

// registerTransportFlags adds the flags shared by serve/get-mode/set-mode.
func registerTransportFlags(fs *pflag.FlagSet, cfg *appConfig) {
	fs.StringVar(&cfg.transport, "transport", cfg.transport, "Transport to use: serial|udp")
	fs.StringVar(&cfg.device, "device", cfg.device, "Serial device path (transport=serial)")
	fs.IntVar(&cfg.baud, "baud", cfg.baud, "Serial baud rate (transport=serial)")
	fs.StringVar(&cfg.udpRemoteAddr, "udp-remote", cfg.udpRemoteAddr, "Remote host:port to dial (transport=udp)")
	fs.StringVar(&cfg.udpLocalAddr, "udp-local", cfg.udpLocalAddr, "Local host:port to bind, empty for ephemeral (transport=udp)")
	fs.DurationVar(&cfg.readTimeout, "read-timeout", cfg.readTimeout, "Read timeout/poll deadline")
	fs.IntVar(&cfg.bufferCapacity, "buffer-capacity", cfg.bufferCapacity, "Bounded receive buffer capacity, in messages")
	fs.IntVar(&cfg.maxFrameSize, "max-frame-size", cfg.maxFrameSize, "Maximum BDTP frame size in bytes (BST-D0 frames can run to 1799 bytes)")
	fs.DurationVar(&cfg.requestTimeout, "request-timeout", cfg.requestTimeout, "Default BEM request timeout")
	fs.StringVar(&cfg.logFormat, "log-format", cfg.logFormat, "Log format: text|json")
	fs.StringVar(&cfg.logLevel, "log-level", cfg.logLevel, "Log level: debug|info|warn|error")
}

// registerServeFlags adds flags specific to the long-running serve command.
func registerServeFlags(fs *pflag.FlagSet, cfg *appConfig) {
	fs.StringVar(&cfg.metricsAddr, "metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	fs.DurationVar(&cfg.logMetricsEvery, "log-metrics-interval", 0, "If >0, periodically log metrics counters")
	fs.BoolVar(&cfg.mdnsEnable, "mdns-enable", false, "Advertise this gateway bridge via mDNS")
	fs.StringVar(&cfg.mdnsName, "mdns-name", "", "mDNS instance name (default actisense-gw-<hostname>)")
}

// applyEnvOverrides maps ACTISENSED_* environment variables onto cfg unless
// the corresponding flag was explicitly set on the command line (flag wins),
// directly adapted from the teacher's cmd/can-server/config.go.
func applyEnvOverrides(cfg *appConfig, fs *pflag.FlagSet) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }
	set := func(name string) bool { return fs.Changed(name) }

	if !set("transport") {
		if v, ok := get("ACTISENSED_TRANSPORT"); ok && v != "" {
			cfg.transport = v
		}
	}
	if !set("device") {
		if v, ok := get("ACTISENSED_DEVICE"); ok && v != "" {
			cfg.device = v
		}
	}
	if !set("udp-remote") {
		if v, ok := get("ACTISENSED_UDP_REMOTE"); ok && v != "" {
			cfg.udpRemoteAddr = v
		}
	}
	if !set("udp-local") {
		if v, ok := get("ACTISENSED_UDP_LOCAL"); ok && v != "" {
			cfg.udpLocalAddr = v
		}
	}
	if !set("max-frame-size") {
		if v, ok := get("ACTISENSED_MAX_FRAME_SIZE"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				cfg.maxFrameSize = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid ACTISENSED_MAX_FRAME_SIZE: %w", err)
			}
		}
	}
	if !set("baud") {
		if v, ok := get("ACTISENSED_BAUD"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				cfg.baud = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid ACTISENSED_BAUD: %w", err)
			}
		}
	}
	if !set("read-timeout") {
		if v, ok := get("ACTISENSED_READ_TIMEOUT"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				cfg.readTimeout = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid ACTISENSED_READ_TIMEOUT: %w", err)
			}
		}
	}
	if !set("log-format") {
		if v, ok := get("ACTISENSED_LOG_FORMAT"); ok && v != "" {
			cfg.logFormat = v
		}
	}
	if !set("log-level") {
		if v, ok := get("ACTISENSED_LOG_LEVEL"); ok && v != "" {
			cfg.logLevel = v
		}
	}
	if !set("metrics-addr") {
		if v, ok := get("ACTISENSED_METRICS"); ok {
			cfg.metricsAddr = v
		}
	}
	if !set("mdns-enable") {
		if v, ok := get("ACTISENSED_MDNS_ENABLE"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				cfg.mdnsEnable = true
			case "0", "false", "no", "off":
				cfg.mdnsEnable = false
			}
		}
	}
	if !set("mdns-name") {
		if v, ok := get("ACTISENSED_MDNS_NAME"); ok && v != "" {
			cfg.mdnsName = v
		}
	}
	return firstErr
}

// validate performs basic semantic validation of the parsed configuration.
func (c *appConfig) validate() error {
	switch c.transport {
	case "serial", "udp":
	default:
		return fmt.Errorf("invalid transport: %s", c.transport)
	}
	if c.transport == "udp" && c.udpRemoteAddr == "" {
		return fmt.Errorf("udp-remote is required when transport=udp")
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.baud <= 0 {
		return fmt.Errorf("baud must be > 0 (got %d)", c.baud)
	}
	if c.bufferCapacity <= 0 {
		return fmt.Errorf("buffer-capacity must be > 0 (got %d)", c.bufferCapacity)
	}
	if c.maxFrameSize <= 0 {
		return fmt.Errorf("max-frame-size must be > 0 (got %d)", c.maxFrameSize)
	}
	return nil
}

// openSession builds the configured transport (serial or UDP) and opens a
// Session on it, sharing the same transport-selection logic between the
// serve and one-shot (get-mode/set-mode) commands.
func openSession(cfg *appConfig, onEvent session.EventFunc, onError session.ErrorFunc) (*session.Session, error) {
	if cfg.transport == "udp" {
		tr, err := transport.DialUDP(transport.UDPConfig{
			RemoteAddr:     cfg.udpRemoteAddr,
			LocalAddr:      cfg.udpLocalAddr,
			ReadTimeout:    cfg.readTimeout,
			BufferCapacity: cfg.bufferCapacity,
		})
		if err != nil {
			return nil, fmt.Errorf("dial udp: %w", err)
		}
		sess, err := session.Open(tr, onEvent, onError, session.WithMaxFrameSize(cfg.maxFrameSize))
		if err != nil {
			_ = tr.Close()
			return nil, err
		}
		return sess, nil
	}

	return session.OpenSerial(session.SerialConfig{
		Port:           cfg.device,
		Baud:           cfg.baud,
		ReadTimeoutMS:  int(cfg.readTimeout.Milliseconds()),
		MaxPendingMsgs: cfg.bufferCapacity,
		DefaultTimeout: cfg.requestTimeout,
		MaxFrameSize:   cfg.maxFrameSize,
	}, onEvent, onError)
}
