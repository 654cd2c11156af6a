// Package devicetable holds the closed, static lookup tables the BEM layer
// needs to turn numeric IDs into human-readable names: gateway model IDs,
// operating modes, and BEM device error codes. This is glue over static
// data, not core protocol engineering (spec.md names it explicitly out of
// scope for deep implementation), so each table is a plain map plus a
// range-based fallback formatter.
package devicetable

import "fmt"

// models maps known Actisense gateway model IDs to their marketing names.
var models = map[uint16]string{
	0x000E: "NGT-1",
	0x000F: "NGX-1",
	0x0011: "NGW-1",
	0x0019: "W2K-1",
}

// ModelName returns the marketing name for modelID, or a formatted
// placeholder for unknown IDs.
func ModelName(modelID uint16) string {
	if name, ok := models[modelID]; ok {
		return name
	}
	return fmt.Sprintf("Model-0x%04X", modelID)
}

// operatingModes maps known OperatingMode values to their names. Values
// outside this table are named by numeric band per spec §9: user-defined
// modes (0x4000-0x7FFF), predefined-but-unnamed modes (0x0000-0x3FFF), and
// a formatted placeholder for anything above 0x7FFF.
var operatingModes = map[uint16]string{
	0x0000: "N2K Passthrough",
	0x0001: "NMEA 0183 Passthrough",
	0x0002: "N2K + NMEA 0183",
}

const (
	userModeRangeStart     = 0x4000
	userModeRangeEnd       = 0x7FFF
	predefinedModeRangeEnd = 0x3FFF
)

// OperatingModeName returns the name for mode, falling back to "User Mode"
// or "Predefined Mode" by range for values this table doesn't carry a name
// for, per spec.md §9's "Static device/error tables" design note. Values
// above 0x7FFF are formatted as "Mode-0xNNNN".
func OperatingModeName(mode uint16) string {
	if name, ok := operatingModes[mode]; ok {
		return name
	}
	if mode >= userModeRangeStart && mode <= userModeRangeEnd {
		return "User Mode"
	}
	if mode <= predefinedModeRangeEnd {
		return "Predefined Mode"
	}
	return fmt.Sprintf("Mode-0x%04X", mode)
}

// errorCodes maps known BEM response error_code values to short
// descriptions (spec §7's DeviceError(code)).
var errorCodes = map[uint32]string{
	0x00000000: "success",
	0x00000001: "unknown command",
	0x00000002: "invalid parameter",
	0x00000003: "busy",
	0x00000004: "not supported",
}

// ErrorCodeName returns a description for code, or a formatted placeholder
// for codes this table doesn't know about.
func ErrorCodeName(code uint32) string {
	if name, ok := errorCodes[code]; ok {
		return name
	}
	return fmt.Sprintf("Error-0x%08X", code)
}
