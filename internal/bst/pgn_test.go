package bst

import "testing"

func TestPGN_RoundTrip(t *testing.T) {
	for dataPage := uint8(0); dataPage < 4; dataPage++ {
		for _, pduF := range []byte{0x00, 0x01, 0xEF, 0xF0, 0xFF} {
			for _, pduS := range []byte{0x00, 0x05, 0xFF} {
				for _, dest := range []byte{0x00, 0x37, 0xFF} {
					pgn, gotDest, isPDU1 := ComputePGN(dataPage, pduF, pduS)
					wantPDU1 := pduF < 240
					if isPDU1 != wantPDU1 {
						t.Fatalf("isPDU1 mismatch for pduF=0x%02X", pduF)
					}
					if isPDU1 && gotDest != pduS {
						t.Fatalf("PDU1 destination mismatch: got 0x%02X want 0x%02X", gotDest, pduS)
					}

					// Round trip through SplitPGN using the destination the
					// decoder would have surfaced (pduS for PDU1, irrelevant for PDU2).
					splitDataPage, splitPduF, splitPduS := SplitPGN(pgn, pduS)
					_ = dest
					if splitDataPage != dataPage&0x03 {
						t.Fatalf("dataPage round trip: got %d want %d", splitDataPage, dataPage&0x03)
					}
					if splitPduF != pduF {
						t.Fatalf("pduF round trip: got 0x%02X want 0x%02X", splitPduF, pduF)
					}
					if isPDU1 {
						if splitPduS != pduS {
							t.Fatalf("PDU1 pduS round trip: got 0x%02X want 0x%02X", splitPduS, pduS)
						}
					} else if splitPduS != byte(pgn&0xFF) {
						t.Fatalf("PDU2 pduS round trip: got 0x%02X want 0x%02X", splitPduS, byte(pgn&0xFF))
					}
				}
			}
		}
	}
}

func TestPGN_129026_BST95(t *testing.T) {
	// S2 from spec.md.
	pgn, _, isPDU1 := ComputePGN(1, 0xF8, 0x02)
	if isPDU1 {
		t.Fatal("expected PDU2 for pduF=0xF8")
	}
	if pgn != 129026 {
		t.Fatalf("pgn = %d, want 129026", pgn)
	}
}

func TestPGN_129029_BSTD0(t *testing.T) {
	// S3 from spec.md.
	pgn, _, isPDU1 := ComputePGN(1, 0xF8, 0x05)
	if isPDU1 {
		t.Fatal("expected PDU2 for pduF=0xF8")
	}
	if pgn != 129029 {
		t.Fatalf("pgn = %d, want 129029", pgn)
	}
}

func TestPGN_PDU1PDU2Boundary(t *testing.T) {
	_, _, isPDU1at239 := ComputePGN(0, 239, 0x10)
	if !isPDU1at239 {
		t.Fatal("pduF=239 must be PDU1")
	}
	_, _, isPDU1at240 := ComputePGN(0, 240, 0x10)
	if isPDU1at240 {
		t.Fatal("pduF=240 must be PDU2")
	}
}
