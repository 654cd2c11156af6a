package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/actisense/ngt-client/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"frames_received", snap.FramesReceived,
					"frames_dropped", snap.FramesDropped,
					"malformed", snap.Malformed,
					"bem_responses", snap.BemResponses,
					"bem_commands", snap.BemCommands,
					"bem_timeouts", snap.BemTimeouts,
					"bem_canceled", snap.BemCanceled,
					"reconnects", snap.Reconnects,
					"errors", snap.Errors,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
