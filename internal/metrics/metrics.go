package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/actisense/ngt-client/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters
var (
	FramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bst_frames_received_total",
		Help: "Total BST datagrams decoded, by frame kind.",
	}, []string{"kind"})
	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bst_frames_dropped_total",
		Help: "Total BST datagrams dropped (decode failure or unroutable ID).",
	})
	MalformedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bdtp_malformed_frames_total",
		Help: "Total BDTP frames rejected, by malformed-frame reason.",
	}, []string{"reason"})
	BemResponsesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bem_responses_received_total",
		Help: "Total BEM responses decoded (solicited and unsolicited).",
	})
	BemCommandsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bem_commands_sent_total",
		Help: "Total BEM commands encoded and sent.",
	})
	BemRequestsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bem_requests_pending",
		Help: "Current number of in-flight BEM requests awaiting correlation.",
	})
	BemRequestsTimedOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bem_requests_timed_out_total",
		Help: "Total BEM requests that completed via timeout rather than response.",
	})
	BemRequestsCanceled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bem_requests_canceled_total",
		Help: "Total BEM requests that completed via cancellation (duplicate key or session close).",
	})
	TransportReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transport_reconnects_total",
		Help: "Total transport reconnect attempts.",
	})
	TransportBytesRx = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transport_bytes_received_total",
		Help: "Total raw bytes read from the transport.",
	})
	TransportBytesTx = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transport_bytes_sent_total",
		Help: "Total raw bytes written to the transport.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality)
const (
	ErrTransportWrite    = "transport_write"
	ErrTransportRead     = "transport_read"
	ErrTransportOverflow = "transport_tx_overflow"
	ErrSessionClosed     = "session_closed"
)

// Malformed-frame reason labels, mirroring bdtp.MalformedKind values.
const (
	ReasonInvalidEscape    = "invalid_escape"
	ReasonChecksumMismatch = "checksum_mismatch"
	ReasonFrameTooLarge    = "frame_too_large"
	ReasonTruncated        = "truncated"
)

// Frame-kind labels, mirroring bst.Frame.Kind() values.
const (
	KindBst93 = "bst93"
	KindBst94 = "bst94"
	KindBst95 = "bst95"
	KindBstD0 = "bstd0"
	KindRaw   = "raw"
)

// StartHTTP serves Prometheus metrics at /metrics, and readiness at /ready,
// on a new mux listening at addr.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters for cheap in-process inspection (avoid scraping
// Prometheus from within the same process just to log a summary).
var (
	localFramesReceived uint64
	localFramesDropped  uint64
	localMalformed      uint64
	localBemResponses   uint64
	localBemCommands    uint64
	localBemTimeouts    uint64
	localBemCanceled    uint64
	localReconnects     uint64
	localErrors         uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	FramesReceived uint64
	FramesDropped  uint64
	Malformed      uint64
	BemResponses   uint64
	BemCommands    uint64
	BemTimeouts    uint64
	BemCanceled    uint64
	Reconnects     uint64
	Errors         uint64
}

func Snap() Snapshot {
	return Snapshot{
		FramesReceived: atomic.LoadUint64(&localFramesReceived),
		FramesDropped:  atomic.LoadUint64(&localFramesDropped),
		Malformed:      atomic.LoadUint64(&localMalformed),
		BemResponses:   atomic.LoadUint64(&localBemResponses),
		BemCommands:    atomic.LoadUint64(&localBemCommands),
		BemTimeouts:    atomic.LoadUint64(&localBemTimeouts),
		BemCanceled:    atomic.LoadUint64(&localBemCanceled),
		Reconnects:     atomic.LoadUint64(&localReconnects),
		Errors:         atomic.LoadUint64(&localErrors),
	}
}

// IncFrameReceived records a successfully decoded BST frame of the given kind.
func IncFrameReceived(kind string) {
	FramesReceived.WithLabelValues(kind).Inc()
	atomic.AddUint64(&localFramesReceived, 1)
}

// IncFrameDropped records a BST datagram that could not be decoded or routed.
func IncFrameDropped() {
	FramesDropped.Inc()
	atomic.AddUint64(&localFramesDropped, 1)
}

// IncMalformed records a BDTP-layer malformed-frame rejection by reason.
func IncMalformed(reason string) {
	MalformedFrames.WithLabelValues(reason).Inc()
	atomic.AddUint64(&localMalformed, 1)
}

// IncBemResponse records a decoded BEM response (solicited or unsolicited).
func IncBemResponse() {
	BemResponsesReceived.Inc()
	atomic.AddUint64(&localBemResponses, 1)
}

// IncBemCommand records an encoded-and-sent BEM command.
func IncBemCommand() {
	BemCommandsSent.Inc()
	atomic.AddUint64(&localBemCommands, 1)
}

// SetBemPending mirrors the correlator's current in-flight request count.
func SetBemPending(n int) { BemRequestsPending.Set(float64(n)) }

// IncBemTimeout records a BEM request completed via timeout.
func IncBemTimeout() {
	BemRequestsTimedOut.Inc()
	atomic.AddUint64(&localBemTimeouts, 1)
}

// IncBemCanceled records a BEM request completed via cancellation.
func IncBemCanceled() {
	BemRequestsCanceled.Inc()
	atomic.AddUint64(&localBemCanceled, 1)
}

// IncReconnect records a transport reconnect attempt.
func IncReconnect() {
	TransportReconnects.Inc()
	atomic.AddUint64(&localReconnects, 1)
}

// AddBytesRx/AddBytesTx record raw transport traffic volume.
func AddBytesRx(n int) { TransportBytesRx.Add(float64(n)) }
func AddBytesTx(n int) { TransportBytesTx.Add(float64(n)) }

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{ErrTransportWrite, ErrTransportRead, ErrTransportOverflow, ErrSessionClosed} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}

// Ready is a concise alias used at call sites.
func Ready() bool { return IsReady() }
