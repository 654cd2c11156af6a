package bst

import "fmt"

// Bst94 is a host->gateway NMEA 2000 frame (ID 0x94). It carries no
// timestamp and no source address (the gateway assigns the source).
type Bst94 struct {
	Priority    uint8
	PduS        byte
	PduF        byte
	DataPage    uint8
	Destination byte
	Data        []byte
}

func (Bst94) Kind() string { return "bst94" }

func (f Bst94) PGN() uint32 {
	pgn, _, _ := ComputePGN(f.DataPage, f.PduF, f.PduS)
	return pgn
}

// DecodeBst94 decodes the datagram body of a BST-94 frame.
// Layout: priority/pdu_s/pdu_f/data_page/destination/data_length/data...
func DecodeBst94(body []byte) (Bst94, error) {
	const headerLen = 1 + 1 + 1 + 1 + 1 + 1
	if len(body) < headerLen {
		return Bst94{}, fmt.Errorf("bst94: body too short: %d", len(body))
	}
	priority := body[0]
	pduS := body[1]
	pduF := body[2]
	dataPage := body[3] & 0x03
	destination := body[4]
	dataLen := int(body[5])
	if headerLen+dataLen > len(body) {
		return Bst94{}, ErrDataLengthOverflow
	}
	data := append([]byte{}, body[headerLen:headerLen+dataLen]...)
	return Bst94{
		Priority:    priority & 0x07,
		PduS:        pduS,
		PduF:        pduF,
		DataPage:    dataPage,
		Destination: destination,
		Data:        data,
	}, nil
}

// EncodeBst94 builds the BST-94 datagram body. Per spec §4.3: if the PGN is
// PDU1 (pduF<240), pdu_s is overwritten with the destination; for PDU2,
// pdu_s receives pgn&0xFF and destination is still written into its slot for
// the gateway's downstream routing but ignored for framing purposes.
func EncodeBst94(destination byte, pgn uint32, priority byte, data []byte) []byte {
	dataPage, pduF, pduS := SplitPGN(pgn, destination)
	body := make([]byte, 6+len(data))
	body[0] = priority & 0x07
	body[1] = pduS
	body[2] = pduF
	body[3] = dataPage & 0x03
	body[4] = destination
	body[5] = byte(len(data))
	copy(body[6:], data)
	return body
}
