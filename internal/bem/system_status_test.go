package bem

import "testing"

func TestParseSystemStatus_IndiOnly(t *testing.T) {
	data := []byte{2,
		1, 2, 3, 4, 5, 6, // indi[0]
		7, 8, 9, 10, 11, 12, // indi[1]
	}
	s, err := ParseSystemStatus(data)
	if err != nil {
		t.Fatalf("ParseSystemStatus: %v", err)
	}
	if len(s.Indi) != 2 || s.Indi[0].RxBandwidth != 1 || s.Indi[1].TxLoad != 12 {
		t.Fatalf("unexpected indi stats: %+v", s.Indi)
	}
	if s.HasCanStatus || s.HasOperatingMode || s.Uni != nil {
		t.Fatalf("unexpected optional tails present: %+v", s)
	}
}

func TestParseSystemStatus_FullGrammar(t *testing.T) {
	data := []byte{
		1,
		10, 20, 30, 40, 50, 60, // indi[0]
		2,                // count_uni
		1, 2, 3, 4,       // uni[0]
		5, 6, 7, 8,       // uni[1]
		0x01, 0x02, 0x03, // can status
		0xCD, 0xAB, // operating mode LE -> 0xABCD
	}
	s, err := ParseSystemStatus(data)
	if err != nil {
		t.Fatalf("ParseSystemStatus: %v", err)
	}
	if len(s.Uni) != 2 || s.Uni[1].PointerLoad != 8 {
		t.Fatalf("unexpected uni stats: %+v", s.Uni)
	}
	if !s.HasCanStatus || s.Can.RxErrors != 1 || s.Can.TxErrors != 2 || s.Can.Flags != 3 {
		t.Fatalf("unexpected can status: %+v", s.Can)
	}
	if !s.HasOperatingMode || s.OperatingMode != 0xABCD {
		t.Fatalf("unexpected operating mode: %+v", s)
	}
}

func TestParseSystemStatus_TruncatedOptionalTailSilentlyOmitted(t *testing.T) {
	data := []byte{
		1,
		1, 2, 3, 4, 5, 6,
		2,    // count_uni = 2, but only 1 uni record follows: truncated
		9, 9, 9, 9,
	}
	s, err := ParseSystemStatus(data)
	if err != nil {
		t.Fatalf("expected truncated optional tail to be silently omitted, got error: %v", err)
	}
	if s.Uni != nil {
		t.Fatalf("expected uni stats omitted on truncation, got %+v", s.Uni)
	}
}

func TestParseSystemStatus_IndiCountOutOfRange(t *testing.T) {
	if _, err := ParseSystemStatus([]byte{0}); err != ErrIndiCountOutOfRange {
		t.Fatalf("expected ErrIndiCountOutOfRange for count_indi=0, got %v", err)
	}
	if _, err := ParseSystemStatus([]byte{17}); err != ErrIndiCountOutOfRange {
		t.Fatalf("expected ErrIndiCountOutOfRange for count_indi=17, got %v", err)
	}
}
