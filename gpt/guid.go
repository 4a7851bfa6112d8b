package gpt

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// GUID is a GUID in its on-disk (mixed-endian) byte order.
type GUID [16]byte

// DecodeTypeID implements TypeID.
func (GUID) DecodeTypeID(raw [16]byte) (GUID, error) { return GUID(raw), nil }

// EncodeTypeID implements TypeID.
func (g GUID) EncodeTypeID() ([16]byte, error) { return g, nil }

// IsZero reports whether every byte of g is zero (an unused entry).
func (g GUID) IsZero() bool { return g == GUID{} }

func (g GUID) String() string {
	return fmt.Sprintf("%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		binary.LittleEndian.Uint32(g[0:4]),
		binary.LittleEndian.Uint16(g[4:6]),
		binary.LittleEndian.Uint16(g[6:8]),
		g[8], g[9], g[10], g[11], g[12], g[13], g[14], g[15])
}

// UUID converts g to an RFC 4122 (big-endian) UUID.
func (g GUID) UUID() uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = g[3], g[2], g[1], g[0]
	u[4], u[5] = g[5], g[4]
	u[6], u[7] = g[7], g[6]
	copy(u[8:], g[8:])
	return u
}

// GUIDFromUUID converts an RFC 4122 UUID to on-disk order.
func GUIDFromUUID(u uuid.UUID) GUID {
	var g GUID
	g[0], g[1], g[2], g[3] = u[3], u[2], u[1], u[0]
	g[4], g[5] = u[5], u[4]
	g[6], g[7] = u[7], u[6]
	copy(g[8:], u[8:])
	return g
}

// MustParseGUID parses the textual form of a GUID and panics on error. It is
// meant for package-level tables of well-known types.
func MustParseGUID(s string) GUID {
	return GUIDFromUUID(uuid.MustParse(s))
}

// UUID is a type identifier represented as a github.com/google/uuid value.
type UUID struct {
	uuid.UUID
}

// DecodeTypeID implements TypeID.
func (UUID) DecodeTypeID(raw [16]byte) (UUID, error) {
	return UUID{GUID(raw).UUID()}, nil
}

// EncodeTypeID implements TypeID.
func (u UUID) EncodeTypeID() ([16]byte, error) {
	return GUIDFromUUID(u.UUID), nil
}
