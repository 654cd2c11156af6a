package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/actisense/ngt-client/internal/devicetable"
	"github.com/actisense/ngt-client/internal/metrics"
	"github.com/actisense/ngt-client/internal/session"
	"github.com/actisense/ngt-client/internal/transport"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	cfg := defaultConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Open the gateway session and run until terminated",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, cfg)
		},
	}
	registerTransportFlags(cmd.Flags(), cfg)
	registerServeFlags(cmd.Flags(), cfg)
	return cmd
}

func runServe(cmd *cobra.Command, cfg *appConfig) error {
	if err := applyEnvOverrides(cfg, cmd.Flags()); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	l := setupLogger(cfg.logFormat, cfg.logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	startMetricsLogger(ctx, cfg.logMetricsEvery, l, &wg)

	sess, err := openSession(cfg, eventLogger(l), errorLogger(l))
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	metrics.SetReadinessFunc(sess.IsConnected)

	var metricsSrv *http.Server
	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		metricsSrv = metrics.StartHTTP(cfg.metricsAddr)
	}

	var stopMDNS func()
	if cfg.mdnsEnable {
		var port int
		fmt.Sscanf(cfg.metricsAddr, ":%d", &port)
		advCleanup, aerr := transport.Advertise(ctx, transport.AdvertiseConfig{
			InstanceName: cfg.mdnsName,
			Port:         port,
		})
		if aerr != nil {
			l.Warn("mdns_start_failed", "error", aerr)
		} else {
			stopMDNS = advCleanup
			l.Info("mdns_started", "name", cfg.mdnsName, "port", port)
		}
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	l.Info("shutdown_signal", "signal", s.String())
	cancel()
	if stopMDNS != nil {
		stopMDNS()
	}
	if err := sess.Close(); err != nil {
		l.Warn("session_close_error", "error", err)
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(context.Background())
	}
	wg.Wait()
	return nil
}

func eventLogger(l *slog.Logger) session.EventFunc {
	return func(ev session.Event) {
		switch e := ev.(type) {
		case session.ParsedMessage:
			l.Debug("parsed_message", "protocol", e.Protocol, "type", e.MessageType)
		case session.DeviceStatus:
			l.Info("device_status", "key", e.Key, "value", deviceStatusValue(e))
		default:
			l.Debug("event", "kind", ev.Kind())
		}
	}
}

// deviceStatusValue formats well-known status values through devicetable's
// lookup tables so operators see names, not raw numbers, in the log.
func deviceStatusValue(e session.DeviceStatus) any {
	switch e.Key {
	case "model_id":
		if id, ok := e.Value.(uint16); ok {
			return devicetable.ModelName(id)
		}
	case "operating_mode":
		if mode, ok := e.Value.(uint16); ok {
			return devicetable.OperatingModeName(mode)
		}
	}
	return e.Value
}

func errorLogger(l *slog.Logger) session.ErrorFunc {
	return func(err error) {
		metrics.IncError(metrics.ErrTransportRead)
		l.Warn("session_error", "error", err)
	}
}
