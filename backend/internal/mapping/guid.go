package mapping

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// GUID is the 16 byte identity used to find the mapping record for a device.
type GUID [16]byte

// ZeroGUID is the reserved identity of the "Unmapped Controller" record. It is
// always present in a Database and is used for any device without a record of
// its own.
var ZeroGUID GUID

// ParseGUID decodes the 32 hex digit form used in mapping records.
func ParseGUID(s string) (GUID, error) {
	var g GUID
	if len(s) != len(g)*2 {
		return g, fmt.Errorf("guid %q: want %d hex digits, got %d", s, len(g)*2, len(s))
	}
	if _, err := hex.Decode(g[:], []byte(s)); err != nil {
		return g, fmt.Errorf("guid %q: %v", s, err)
	}
	return g, nil
}

// String returns the lower case hex form used in mapping records.
func (g GUID) String() string {
	return hex.EncodeToString(g[:])
}

// IsZero is true for the reserved fallback identity.
func (g GUID) IsZero() bool {
	return g == ZeroGUID
}

// Bus types used in the first two bytes of a device GUID.
const (
	BusUSB       uint16 = 0x03
	BusBluetooth uint16 = 0x05
	BusVirtual   uint16 = 0xff
)

// MakeGUID builds a device GUID in the same layout SDL uses for devices that
// report a vendor and product id: bus, vendor, product and version as little
// endian 16 bit fields at offsets 0, 4, 8 and 12.
//
// A zero vendor or product id means the device can't be identified and the
// ZeroGUID is returned.
func MakeGUID(bus, vendor, product, version uint16) GUID {
	var g GUID
	if vendor == 0 || product == 0 {
		return g
	}
	binary.LittleEndian.PutUint16(g[0:], bus)
	binary.LittleEndian.PutUint16(g[4:], vendor)
	binary.LittleEndian.PutUint16(g[8:], product)
	binary.LittleEndian.PutUint16(g[12:], version)
	return g
}

// VendorProduct extracts the vendor and product ids from a GUID built by
// MakeGUID.
func (g GUID) VendorProduct() (vendor uint16, product uint16) {
	return binary.LittleEndian.Uint16(g[4:]), binary.LittleEndian.Uint16(g[8:])
}

// loose clears the name checksum (bytes 2-3) and the version (bytes 12-13).
func (g GUID) loose() GUID {
	g[2], g[3] = 0, 0
	g[12], g[13] = 0, 0
	return g
}

func normalizeGUIDText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
