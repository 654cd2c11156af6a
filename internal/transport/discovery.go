package transport

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/grandcat/zeroconf"
)

// mdnsServiceType identifies Actisense gateways bridged over UDP/TCP on the
// LAN, directly adapted from the teacher's cmd/can-server/mdns.go.
const mdnsServiceType = "_actisense-gw._tcp"

// AdvertiseConfig configures the mDNS service registration.
type AdvertiseConfig struct {
	InstanceName string // defaults to "actisense-gw-<hostname>"
	Port         int
	Meta         []string
}

// Advertise registers cfg as an mDNS service and returns a cleanup function.
func Advertise(ctx context.Context, cfg AdvertiseConfig) (func(), error) {
	instance := cfg.InstanceName
	if instance == "" {
		host, _ := os.Hostname()
		instance = fmt.Sprintf("actisense-gw-%s", host)
	}
	svc, err := zeroconf.Register(instance, mdnsServiceType, "local.", cfg.Port, cfg.Meta, nil)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		svc.Shutdown()
	}()
	return func() { close(done); svc.Shutdown(); time.Sleep(50 * time.Millisecond) }, nil
}

// Discover browses the LAN for Actisense gateways advertised via Advertise,
// returning once timeout elapses or ctx is canceled.
func Discover(ctx context.Context, timeout time.Duration) ([]*zeroconf.ServiceEntry, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("mdns resolver: %w", err)
	}
	entries := make(chan *zeroconf.ServiceEntry)
	var found []*zeroconf.ServiceEntry
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			found = append(found, e)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := resolver.Browse(ctx, mdnsServiceType, "local.", entries); err != nil {
		return nil, fmt.Errorf("mdns browse: %w", err)
	}
	<-ctx.Done()
	<-done
	return found, nil
}

// EnumerateSerialDevices lists local serial device paths that plausibly host
// an Actisense gateway. This is deliberately shallow OS glue (per spec's
// explicit non-goal around serial port enumeration depth), not a full
// udev/IOKit/registry scan.
func EnumerateSerialDevices() ([]string, error) {
	candidates := []string{"/dev/ttyUSB", "/dev/ttyACM", "/dev/cu.usbserial"}
	var found []string
	for _, prefix := range candidates {
		for i := 0; i < 8; i++ {
			name := fmt.Sprintf("%s%d", prefix, i)
			if _, err := os.Stat(name); err == nil {
				found = append(found, name)
			}
		}
	}
	return found, nil
}
