package gpt

import (
	"github.com/pkg/errors"
)

// Attribute bits defined by UEFI. Bits 48-63 are reserved for the partition
// type.
const (
	AttrRequired           = 1 << 0
	AttrNoBlockIOProtocol  = 1 << 1
	AttrLegacyBIOSBootable = 1 << 2

	attrReservedMask = 0x0000_FFFF_FFFF_FFF8
)

// Attributes are the raw 64 attribute bits of a partition entry.
type Attributes uint64

// DecodeAttributes implements Attribute.
func (Attributes) DecodeAttributes(raw uint64) (Attributes, error) { return Attributes(raw), nil }

func (a Attributes) Required() bool           { return a&AttrRequired != 0 }
func (a Attributes) NoBlockIOProtocol() bool  { return a&AttrNoBlockIOProtocol != 0 }
func (a Attributes) LegacyBIOSBootable() bool { return a&AttrLegacyBIOSBootable != 0 }

// TypeSpecific returns bits 48-63.
func (a Attributes) TypeSpecific() uint16 { return uint16(a >> 48) }

// ErrReservedAttributes is returned by StrictAttributes when reserved bits
// are set.
var ErrReservedAttributes = errors.New("gpt: reserved attribute bits set")

// StrictAttributes is an attribute representation that refuses entries with
// any of the reserved bits 3-47 set.
type StrictAttributes struct {
	Attributes
}

// DecodeAttributes implements Attribute.
func (StrictAttributes) DecodeAttributes(raw uint64) (StrictAttributes, error) {
	if raw&attrReservedMask != 0 {
		return StrictAttributes{}, errors.Wrapf(ErrReservedAttributes, "%#016x", raw&attrReservedMask)
	}
	return StrictAttributes{Attributes(raw)}, nil
}
