package bst

import (
	"encoding/binary"
	"fmt"
)

// MsgType classifies a BST-D0 frame's N2K transport class. Reassembly of
// fast/multi-packet sequences is out of scope: the frame is passed through
// typed but unreassembled (spec §1 Non-goals).
type MsgType uint8

const (
	MsgSinglePacket MsgType = iota
	MsgFastPacket
	MsgMultiPacket
	MsgUnknown
)

func (m MsgType) String() string {
	switch m {
	case MsgSinglePacket:
		return "single_packet"
	case MsgFastPacket:
		return "fast_packet"
	case MsgMultiPacket:
		return "multi_packet"
	default:
		return "unknown"
	}
}

// MaxBstD0DataBytes is the largest data payload a BST-D0 frame can carry.
const MaxBstD0DataBytes = 1785

// BstD0 is a modern N2K frame (ID 0xD0, BST Type 2).
type BstD0 struct {
	Destination    byte
	Source         byte
	PduS           byte
	PduF           byte
	DataPage       uint8
	Priority       uint8
	MsgType        MsgType
	Direction      Direction
	InternalSource bool
	FpSeqID        uint8
	TimestampMs    uint32
	Data           []byte
}

func (BstD0) Kind() string { return "bstd0" }

func (f BstD0) PGN() uint32 {
	pgn, _, _ := ComputePGN(f.DataPage, f.PduF, f.PduS)
	return pgn
}

// decodeDPP unpacks {data_page[1:0], priority[4:2], spare[7:5]}.
func decodeDPP(dpp byte) (dataPage, priority uint8) {
	dataPage = dpp & 0x03
	priority = (dpp >> 2) & 0x07
	return
}

func encodeDPP(dataPage, priority uint8) byte {
	return (dataPage & 0x03) | ((priority & 0x07) << 2)
}

// decodeControl unpacks {msg_type[1:0], spare[2], direction[3], internal_source[4], fp_seq_id[7:5]}.
func decodeControl(control byte) (msgType MsgType, dir Direction, internalSource bool, fpSeqID uint8) {
	mt := control & 0x03
	if mt > uint8(MsgMultiPacket) {
		mt = uint8(MsgUnknown)
	}
	msgType = MsgType(mt)
	dir = Direction((control >> 3) & 0x01)
	internalSource = (control>>4)&0x01 != 0
	fpSeqID = (control >> 5) & 0x07
	return
}

func encodeControl(msgType MsgType, dir Direction, internalSource bool, fpSeqID uint8) byte {
	var b byte
	b |= byte(msgType) & 0x03
	b |= byte(dir&0x01) << 3
	if internalSource {
		b |= 1 << 4
	}
	b |= (fpSeqID & 0x07) << 5
	return b
}

// DecodeBstD0 decodes the datagram body (post length-prefix) of a BST-D0 frame.
// Layout: destination/source/pdu_s/pdu_f/dpp/control/timestamp_ms(4 LE)/data...
func DecodeBstD0(body []byte) (BstD0, error) {
	const headerLen = 1 + 1 + 1 + 1 + 1 + 1 + 4
	if len(body) < headerLen {
		return BstD0{}, fmt.Errorf("bstd0: body too short: %d", len(body))
	}
	destination := body[0]
	source := body[1]
	pduS := body[2]
	pduF := body[3]
	dataPage, priority := decodeDPP(body[4])
	msgType, dir, internalSource, fpSeqID := decodeControl(body[5])
	ts := binary.LittleEndian.Uint32(body[6:10])
	data := append([]byte{}, body[headerLen:]...)
	if len(data) > MaxBstD0DataBytes {
		return BstD0{}, fmt.Errorf("bstd0: data length %d exceeds %d", len(data), MaxBstD0DataBytes)
	}
	return BstD0{
		Destination:    destination,
		Source:         source,
		PduS:           pduS,
		PduF:           pduF,
		DataPage:       dataPage,
		Priority:       priority,
		MsgType:        msgType,
		Direction:      dir,
		InternalSource: internalSource,
		FpSeqID:        fpSeqID,
		TimestampMs:    ts,
		Data:           data,
	}, nil
}

// EncodeBstD0 builds the BST-D0 datagram body (without the Type 2 id/length
// header, which EncodeDatagram supplies).
func EncodeBstD0(f BstD0) []byte {
	body := make([]byte, 10+len(f.Data))
	body[0] = f.Destination
	body[1] = f.Source
	body[2] = f.PduS
	body[3] = f.PduF
	body[4] = encodeDPP(f.DataPage, f.Priority)
	body[5] = encodeControl(f.MsgType, f.Direction, f.InternalSource, f.FpSeqID)
	binary.LittleEndian.PutUint32(body[6:10], f.TimestampMs)
	copy(body[10:], f.Data)
	return body
}
