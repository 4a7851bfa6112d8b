package gpt

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
)

// TypeID is the constraint for partition type representations. The decode
// method is called on the zero value and must not depend on the receiver.
// EncodeTypeID(DecodeTypeID(raw)) must return raw.
type TypeID[T any] interface {
	comparable
	DecodeTypeID(raw [16]byte) (T, error)
	EncodeTypeID() ([16]byte, error)
}

// Attribute is the constraint for partition attribute representations.
type Attribute[A any] interface {
	DecodeAttributes(raw uint64) (A, error)
}

// NameSize is the byte length of the UTF-16LE partition name field.
const NameSize = 72

// PartitionName is the raw UTF-16LE name of a partition.
type PartitionName [NameSize]byte

func (pn PartitionName) String() string {
	n := 0
	for n+1 < len(pn) && (pn[n] != 0 || pn[n+1] != 0) {
		n += 2
	}
	s, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(pn[:n])
	if err != nil {
		return ""
	}
	return string(s)
}

// PartitionEntry is one decoded row of the partition table.
type PartitionEntry[T TypeID[T], A Attribute[A]] struct {
	Index      uint32
	Type       T
	UniqueGUID GUID
	FirstLBA   uint64
	LastLBA    uint64
	Attributes A
	RawName    PartitionName
}

// Entry is a partition entry with raw GUID and attribute representations.
type Entry = PartitionEntry[GUID, Attributes]

// Name returns the decoded partition name.
func (p *PartitionEntry[T, A]) Name() string { return p.RawName.String() }

// Blocks is the number of blocks covered by the partition, zero for
// inverted ranges.
func (p *PartitionEntry[T, A]) Blocks() uint64 {
	if p.LastLBA < p.FirstLBA {
		return 0
	}
	return p.LastLBA - p.FirstLBA + 1
}

// DecodeEntry decodes entry idx of the table described by h. table holds the
// partition entry array read from h.PartitionEntryLBA.
func DecodeEntry[T TypeID[T], A Attribute[A]](h *Header, table []byte, idx uint32) (PartitionEntry[T, A], error) {
	var p PartitionEntry[T, A]
	if idx >= h.NumberOfPartitionEntries {
		return p, errors.Wrapf(ErrIndexOutOfRange, "index %d, table has %d entries", idx, h.NumberOfPartitionEntries)
	}
	off := uint64(idx) * uint64(h.SizeOfPartitionEntry)
	if end := off + MinEntrySize; end > uint64(len(table)) {
		return p, errors.Wrapf(ErrShortBuffer, "entry %d: need %d bytes, have %d", idx, end, len(table))
	}
	raw := table[off : off+MinEntrySize]

	var err error
	var zeroT T
	var zeroA A
	p.Index = idx
	if p.Type, err = zeroT.DecodeTypeID([16]byte(raw[0:16])); err != nil {
		return p, &ConversionError{Field: "type", Index: idx, Err: err}
	}
	copy(p.UniqueGUID[:], raw[16:32])
	p.FirstLBA = binary.LittleEndian.Uint64(raw[32:40])
	p.LastLBA = binary.LittleEndian.Uint64(raw[40:48])
	if p.Attributes, err = zeroA.DecodeAttributes(binary.LittleEndian.Uint64(raw[48:56])); err != nil {
		return p, &ConversionError{Field: "attributes", Index: idx, Err: err}
	}
	copy(p.RawName[:], raw[56:MinEntrySize])
	return p, nil
}
