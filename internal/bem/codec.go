// Package bem implements the Binary Encoded Message command/response layer
// riding on BST IDs 0xA0-0xA8, plus the pending-request correlator that
// matches asynchronous responses back to their originating commands.
package bem

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/actisense/ngt-client/internal/bst"
)

// MaxCommandDataBytes bounds a BEM command's payload (spec §4.4).
const MaxCommandDataBytes = 252

// Known BEM IDs.
const (
	GetSetOperatingMode = 0x11

	StartupStatus = 0xF0
	ErrorReport   = 0xF1
	SystemStatus  = 0xF2
)

// IsUnsolicitedID reports whether bemID is in the reserved unsolicited-only
// range 0xF0-0xFF.
func IsUnsolicitedID(bemID byte) bool { return bemID >= 0xF0 }

// ErrPayloadTooLarge is returned when a command's data exceeds MaxCommandDataBytes.
var ErrPayloadTooLarge = errors.New("bem: command payload exceeds 252 bytes")

// ErrShortResponse is returned when a response body is too small to contain
// the 12-byte header.
var ErrShortResponse = errors.New("bem: response body shorter than 12-byte header")

// Command is a host->gateway BEM command.
type Command struct {
	BstID byte // one of 0xA1, 0xA4, 0xA6, 0xA8
	BemID byte
	Data  []byte
}

// EncodeCommand builds the BST datagram body for a BEM command:
// [bem_id] ++ data. The caller passes this to bst.EncodeDatagram(cmd.BstID, body)
// and then bdtp.Encode to get wire bytes.
func EncodeCommand(cmd Command) ([]byte, error) {
	if len(cmd.Data) > MaxCommandDataBytes {
		return nil, ErrPayloadTooLarge
	}
	body := make([]byte, 1+len(cmd.Data))
	body[0] = cmd.BemID
	copy(body[1:], cmd.Data)
	return body, nil
}

// Response is a gateway->host BEM response: the fixed 12-byte header plus
// the data that follows it (spec §3).
type Response struct {
	BstID        byte // one of 0xA0, 0xA2, 0xA3, 0xA5
	BemID        byte
	SequenceID   byte
	ModelID      uint16
	SerialNumber uint32
	ErrorCode    uint32
	Data         []byte
}

// Success reports whether the device reported no domain error.
func (r Response) Success() bool { return r.ErrorCode == 0 }

func (Response) Kind() string { return "bem_response" }

// DecodeResponse decodes a BEM response from a parsed BST datagram. The
// caller is responsible for having already confirmed d.ID is one of the
// response BST IDs (bst.IsBemResponseID).
func DecodeResponse(d bst.Datagram) (Response, error) {
	body := d.Body
	if len(body) < 12 {
		return Response{}, ErrShortResponse
	}
	r := Response{
		BstID:        d.ID,
		BemID:        body[0],
		SequenceID:   body[1],
		ModelID:      binary.LittleEndian.Uint16(body[2:4]),
		SerialNumber: binary.LittleEndian.Uint32(body[4:8]),
		ErrorCode:    binary.LittleEndian.Uint32(body[8:12]),
	}
	if len(body) > 12 {
		r.Data = append([]byte{}, body[12:]...)
	}
	return r, nil
}

// EncodeResponse builds a BEM response body (used by tests and loopback
// fixtures that simulate a gateway).
func EncodeResponse(r Response) []byte {
	body := make([]byte, 12+len(r.Data))
	body[0] = r.BemID
	body[1] = r.SequenceID
	binary.LittleEndian.PutUint16(body[2:4], r.ModelID)
	binary.LittleEndian.PutUint32(body[4:8], r.SerialNumber)
	binary.LittleEndian.PutUint32(body[8:12], r.ErrorCode)
	copy(body[12:], r.Data)
	return body
}

// commandToResponseBstID maps a command BST ID to its paired response BST ID
// per the fixed pairing in spec §4.5: A1<->A0, A4<->A2, A6<->A3, A8<->A5.
// Unknown command IDs default to A0.
func commandToResponseBstID(commandBstID byte) byte {
	switch commandBstID {
	case bst.IDBemCommandA:
		return bst.IDBemResponseA
	case bst.IDBemCommandB:
		return bst.IDBemResponseB
	case bst.IDBemCommandC:
		return bst.IDBemResponseC
	case bst.IDBemCommandD:
		return bst.IDBemResponseD
	default:
		return bst.IDBemResponseA
	}
}

// DeviceError reports a non-zero BEM response error_code (spec §7: DeviceError(code)).
type DeviceError struct {
	Code     uint32
	Response Response
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("bem: device reported error 0x%08X (bem_id=0x%02X model=0x%04X serial=%d)",
		e.Code, e.Response.BemID, e.Response.ModelID, e.Response.SerialNumber)
}
