package bst

// ComputePGN implements the PDU1/PDU2 decomposition from spec §4.3.
// For PDU1 (pduF < 240), destination is returned separately (pduS carries the
// destination address, not PGN bits). For PDU2 (pduF >= 240), pduS is a group
// extension folded into the PGN.
func ComputePGN(dataPage uint8, pduF, pduS byte) (pgn uint32, destination byte, isPDU1 bool) {
	dp := uint32(dataPage & 0x03)
	if pduF >= 240 {
		return (dp << 16) | (uint32(pduF) << 8) | uint32(pduS), 0, false
	}
	return (dp << 16) | (uint32(pduF) << 8), pduS, true
}

// SplitPGN is the inverse of ComputePGN: given a PGN and (for PDU1) a
// destination address, it derives dataPage, pduF and pduS.
func SplitPGN(pgn uint32, destination byte) (dataPage uint8, pduF, pduS byte) {
	dataPage = uint8((pgn >> 16) & 0x03)
	pduF = byte((pgn >> 8) & 0xFF)
	if pduF >= 240 {
		pduS = byte(pgn & 0xFF)
	} else {
		pduS = destination
	}
	return
}
