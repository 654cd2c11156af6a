package transport

import (
	"errors"
	"net"
	"testing"
	"time"
)

func TestUDPTransport_SendReceiveRoundTrip(t *testing.T) {
	peer, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer peer.Close()

	tr, err := DialUDP(UDPConfig{RemoteAddr: peer.LocalAddr().String()})
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	defer tr.Close()

	if tr.Kind() != KindUDP {
		t.Fatalf("Kind() = %q, want %q", tr.Kind(), KindUDP)
	}
	if !tr.IsOpen() {
		t.Fatal("expected IsOpen() true before Close")
	}

	if err := tr.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	peer.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 16)
	n, from, err := peer.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("peer read: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("peer got %q, want %q", buf[:n], "hello")
	}

	if _, err := peer.WriteToUDP([]byte("world"), from); err != nil {
		t.Fatalf("peer write: %v", err)
	}
	n, err = waitReceive(t, tr, buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(buf[:n]) != "world" {
		t.Fatalf("Receive got %q, want %q", buf[:n], "world")
	}
}

func waitReceive(t *testing.T, tr *UDPTransport, buf []byte) (int, error) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := tr.Receive(buf)
		if n > 0 || err != nil {
			return n, err
		}
	}
	t.Fatal("timed out waiting for data")
	return 0, nil
}

func TestUDPTransport_ReadDeadlineYieldsErrTimeout(t *testing.T) {
	peer, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer peer.Close()

	tr, err := DialUDP(UDPConfig{RemoteAddr: peer.LocalAddr().String(), ReadTimeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	defer tr.Close()

	buf := make([]byte, 16)
	_, err = tr.Receive(buf)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Receive on idle deadline = %v, want ErrTimeout", err)
	}
}

func TestUDPTransport_ReceiveAfterClose(t *testing.T) {
	peer, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer peer.Close()

	tr, err := DialUDP(UDPConfig{RemoteAddr: peer.LocalAddr().String()})
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if tr.IsOpen() {
		t.Fatal("expected IsOpen() false after Close")
	}
	if _, err := tr.Receive(make([]byte, 8)); !errors.Is(err, ErrClosed) {
		t.Fatalf("Receive after Close = %v, want ErrClosed", err)
	}
}
