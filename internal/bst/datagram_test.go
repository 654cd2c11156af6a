package bst

import (
	"bytes"
	"testing"

	"github.com/actisense/ngt-client/internal/bdtp"
)

func TestParseDatagram_Type1_RoundTrip(t *testing.T) {
	body := []byte{0xAA, 0xBB, 0xCC}
	raw := EncodeDatagram(0x93, body)
	d, err := ParseDatagram(raw)
	if err != nil {
		t.Fatalf("ParseDatagram: %v", err)
	}
	if d.ID != 0x93 || int(d.StoreLength) != len(body) || !bytes.Equal(d.Body, body) {
		t.Fatalf("unexpected datagram: %+v", d)
	}
	if !bdtp.VerifyChecksum(raw) {
		t.Fatalf("checksum invariant violated for %x", raw)
	}
}

func TestParseDatagram_Type2_RoundTrip(t *testing.T) {
	body := make([]byte, 20)
	for i := range body {
		body[i] = byte(i)
	}
	raw := EncodeDatagram(0xD0, body)
	d, err := ParseDatagram(raw)
	if err != nil {
		t.Fatalf("ParseDatagram: %v", err)
	}
	if d.ID != 0xD0 || !bytes.Equal(d.Body, body) {
		t.Fatalf("unexpected datagram: %+v", d)
	}
	if int(d.StoreLength) != len(raw) {
		t.Fatalf("store_length %d != total buffer length %d", d.StoreLength, len(raw))
	}
}

func TestParseDatagram_EmptyBody(t *testing.T) {
	raw := EncodeDatagram(0x93, nil)
	d, err := ParseDatagram(raw)
	if err != nil {
		t.Fatalf("ParseDatagram: %v", err)
	}
	if d.StoreLength != 0 || len(d.Body) != 0 {
		t.Fatalf("expected zero-length datagram, got %+v", d)
	}
}

func TestParseDatagram_MaxType2Size(t *testing.T) {
	body := make([]byte, MaxBstD0DataBytes+10) // header fields + data
	raw := EncodeDatagram(0xD0, body)
	d, err := ParseDatagram(raw)
	if err != nil {
		t.Fatalf("ParseDatagram: %v", err)
	}
	if len(d.Body) != len(body) {
		t.Fatalf("body length mismatch: got %d want %d", len(d.Body), len(body))
	}
}

func TestParseDatagram_Truncated(t *testing.T) {
	if _, err := ParseDatagram([]byte{0x93}); err != ErrTruncatedDatagram {
		t.Fatalf("expected ErrTruncatedDatagram, got %v", err)
	}
}

func TestIsType2Range(t *testing.T) {
	for id := 0xD0; id <= 0xDF; id++ {
		if !IsType2(byte(id)) {
			t.Fatalf("0x%02X should be Type2", id)
		}
	}
	if IsType2(0x93) || IsType2(0xA0) || IsType2(0xCF) || IsType2(0xE0) {
		t.Fatal("unexpected Type2 classification")
	}
}
