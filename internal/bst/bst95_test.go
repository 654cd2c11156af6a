package bst

import "testing"

// S2 from spec.md.
func TestDecodeBst95_S2(t *testing.T) {
	body := []byte{0x01, 0x20, 0x30, 0x02, 0xF8, 0x09, 0xFF, 0xFC, 0x37, 0x0A, 0x00, 0x10, 0xFF, 0xFF}
	f, err := DecodeBst95(body)
	if err != nil {
		t.Fatalf("DecodeBst95: %v", err)
	}
	if f.Timestamp16 != 0x2001 {
		t.Fatalf("timestamp16 = 0x%04X, want 0x2001", f.Timestamp16)
	}
	if f.Source != 0x30 {
		t.Fatalf("source = 0x%02X, want 0x30", f.Source)
	}
	if f.PduS != 0x02 || f.PduF != 0xF8 {
		t.Fatalf("pdu_s/pdu_f = 0x%02X/0x%02X, want 0x02/0xF8", f.PduS, f.PduF)
	}
	if f.DataPage != 1 || f.Priority != 2 || f.Resolution != Resolution1ms || f.Direction != DirectionReceived {
		t.Fatalf("dppc decode mismatch: %+v", f)
	}
	if f.PGN() != 129026 {
		t.Fatalf("pgn = %d, want 129026", f.PGN())
	}
	want := []byte{0xFF, 0xFC, 0x37, 0x0A, 0x00, 0x10, 0xFF, 0xFF}
	if len(f.Data) != len(want) {
		t.Fatalf("data length = %d, want %d", len(f.Data), len(want))
	}
	for i := range want {
		if f.Data[i] != want[i] {
			t.Fatalf("data[%d] = 0x%02X, want 0x%02X", i, f.Data[i], want[i])
		}
	}
}

func TestBst95_DataLengthBoundaries(t *testing.T) {
	header := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if _, err := DecodeBst95(header); err != nil {
		t.Fatalf("data_length=0 should decode cleanly: %v", err)
	}
	withEight := append(append([]byte{}, header...), make([]byte, 8)...)
	f, err := DecodeBst95(withEight)
	if err != nil {
		t.Fatalf("data_length=8 should decode cleanly: %v", err)
	}
	if len(f.Data) != 8 {
		t.Fatalf("expected 8 data bytes, got %d", len(f.Data))
	}
}

func TestBst95_EncodeDecodeRoundTrip(t *testing.T) {
	f := Bst95{
		Timestamp16: 0xABCD,
		Source:      0x12,
		PduS:        0x05,
		PduF:        0xF8,
		DataPage:    2,
		Priority:    5,
		Resolution:  Resolution10us,
		Direction:   DirectionTransmitted,
		Data:        []byte{1, 2, 3, 4},
	}
	body := EncodeBst95(f)
	got, err := DecodeBst95(body)
	if err != nil {
		t.Fatalf("DecodeBst95: %v", err)
	}
	if got.Timestamp16 != f.Timestamp16 || got.Source != f.Source || got.PduS != f.PduS ||
		got.PduF != f.PduF || got.DataPage != f.DataPage || got.Priority != f.Priority ||
		got.Resolution != f.Resolution || got.Direction != f.Direction {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, f)
	}
	if string(got.Data) != string(f.Data) {
		t.Fatalf("data round trip mismatch: got %v want %v", got.Data, f.Data)
	}
}
