package bst

import (
	"encoding/binary"
	"fmt"
)

// TimestampResolution is the unit of Bst95.Timestamp16, selected by the
// DPPC control bits.
type TimestampResolution uint8

const (
	Resolution1ms TimestampResolution = iota
	Resolution100us
	Resolution10us
	Resolution1us
)

func (r TimestampResolution) String() string {
	switch r {
	case Resolution1ms:
		return "1ms"
	case Resolution100us:
		return "100us"
	case Resolution10us:
		return "10us"
	case Resolution1us:
		return "1us"
	default:
		return "unknown"
	}
}

// Direction distinguishes a CAN frame's travel direction on the bus.
type Direction uint8

const (
	DirectionReceived Direction = iota
	DirectionTransmitted
)

func (d Direction) String() string {
	if d == DirectionTransmitted {
		return "transmitted"
	}
	return "received"
}

// Bst95 is a compact CAN frame (ID 0x95).
type Bst95 struct {
	Timestamp16 uint16
	Source      byte
	PduS        byte
	PduF        byte
	DataPage    uint8
	Priority    uint8
	Resolution  TimestampResolution
	Direction   Direction
	Data        []byte
}

func (Bst95) Kind() string { return "bst95" }

// PGN returns the PGN for this frame. Per spec §4.3, BST-95 has no separate
// destination field: for PDU1 frames the destination is pdu_s itself.
func (f Bst95) PGN() uint32 {
	pgn, _, _ := ComputePGN(f.DataPage, f.PduF, f.PduS)
	return pgn
}

// Destination returns the PDU1 destination address (equal to PduS), or 0xFF
// (the broadcast/global address) for PDU2 frames.
func (f Bst95) Destination() byte {
	_, dest, isPDU1 := ComputePGN(f.DataPage, f.PduF, f.PduS)
	if !isPDU1 {
		return 0xFF
	}
	return dest
}

// decodeDPPC unpacks {data_page[1:0], priority[4:2], ts_resolution[6:5], direction[7]}.
func decodeDPPC(dppc byte) (dataPage uint8, priority uint8, res TimestampResolution, dir Direction) {
	dataPage = dppc & 0x03
	priority = (dppc >> 2) & 0x07
	res = TimestampResolution((dppc >> 5) & 0x03)
	dir = Direction((dppc >> 7) & 0x01)
	return
}

func encodeDPPC(dataPage, priority uint8, res TimestampResolution, dir Direction) byte {
	return (dataPage & 0x03) | ((priority & 0x07) << 2) | (byte(res&0x03) << 5) | (byte(dir&0x01) << 7)
}

// DecodeBst95 decodes the datagram body of a BST-95 frame.
// Layout: timestamp_16(2 LE)/source/pdu_s/pdu_f/dppc/data(0..8).
func DecodeBst95(body []byte) (Bst95, error) {
	const headerLen = 2 + 1 + 1 + 1 + 1
	if len(body) < headerLen {
		return Bst95{}, fmt.Errorf("bst95: body too short: %d", len(body))
	}
	ts := binary.LittleEndian.Uint16(body[0:2])
	source := body[2]
	pduS := body[3]
	pduF := body[4]
	dppc := body[5]
	dataPage, priority, res, dir := decodeDPPC(dppc)
	data := append([]byte{}, body[headerLen:]...)
	if len(data) > 8 {
		return Bst95{}, fmt.Errorf("bst95: data length %d exceeds 8", len(data))
	}
	return Bst95{
		Timestamp16: ts,
		Source:      source,
		PduS:        pduS,
		PduF:        pduF,
		DataPage:    dataPage,
		Priority:    priority,
		Resolution:  res,
		Direction:   dir,
		Data:        data,
	}, nil
}

// EncodeBst95 builds the BST-95 datagram body.
func EncodeBst95(f Bst95) []byte {
	body := make([]byte, 6+len(f.Data))
	binary.LittleEndian.PutUint16(body[0:2], f.Timestamp16)
	body[2] = f.Source
	body[3] = f.PduS
	body[4] = f.PduF
	body[5] = encodeDPPC(f.DataPage, f.Priority, f.Resolution, f.Direction)
	copy(body[6:], f.Data)
	return body
}
