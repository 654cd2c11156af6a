package bst

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrDataLengthOverflow is returned when a frame's declared data_length
// exceeds the bytes actually present in the body.
var ErrDataLengthOverflow = errors.New("bst: data_length exceeds body")

// Bst93 is a gateway->host NMEA 2000 frame (ID 0x93).
type Bst93 struct {
	Priority    uint8
	PduS        byte
	PduF        byte
	DataPage    uint8
	Destination byte
	Source      byte
	TimestampMs uint32
	Data        []byte
}

// PGN returns the 18-bit Parameter Group Number for this frame.
func (f Bst93) PGN() uint32 {
	pgn, _, _ := ComputePGN(f.DataPage, f.PduF, f.PduS)
	return pgn
}

// Kind identifies the frame's variant for tagged-union style dispatch.
func (Bst93) Kind() string { return "bst93" }

// DecodeBst93 decodes the datagram body of a BST-93 frame.
// Layout: priority/pdu_s/pdu_f/data_page/destination/source/timestamp(4 LE)/data_length/data...
func DecodeBst93(body []byte) (Bst93, error) {
	const headerLen = 1 + 1 + 1 + 1 + 1 + 1 + 4 + 1
	if len(body) < headerLen {
		return Bst93{}, fmt.Errorf("bst93: body too short: %d", len(body))
	}
	priority := body[0]
	pduS := body[1]
	pduF := body[2]
	dataPage := body[3] & 0x03
	destination := body[4]
	source := body[5]
	ts := binary.LittleEndian.Uint32(body[6:10])
	dataLen := int(body[10])
	if headerLen+dataLen > len(body) {
		return Bst93{}, ErrDataLengthOverflow
	}
	data := append([]byte{}, body[headerLen:headerLen+dataLen]...)
	return Bst93{
		Priority:    priority & 0x07,
		PduS:        pduS,
		PduF:        pduF,
		DataPage:    dataPage,
		Destination: destination,
		Source:      source,
		TimestampMs: ts,
		Data:        data,
	}, nil
}

// EncodeBst93 builds the BST-93 datagram body.
func EncodeBst93(f Bst93) []byte {
	body := make([]byte, 11+len(f.Data))
	body[0] = f.Priority & 0x07
	body[1] = f.PduS
	body[2] = f.PduF
	body[3] = f.DataPage & 0x03
	body[4] = f.Destination
	body[5] = f.Source
	binary.LittleEndian.PutUint32(body[6:10], f.TimestampMs)
	body[10] = byte(len(f.Data))
	copy(body[11:], f.Data)
	return body
}
