package gpt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/pkg/errors"

	"gptread/internal/common"
)

const (
	// HeaderSize is the only header size accepted by the parser.
	HeaderSize = 92
	// Revision is the UEFI 1.0 header revision.
	Revision = 0x00010000
	// MinEntrySize is the size of the fixed fields of a partition entry.
	MinEntrySize = 128
)

// Signature is the magic at the start of every GPT header.
var Signature = [8]byte{'E', 'F', 'I', ' ', 'P', 'A', 'R', 'T'}

// Header is one parsed copy of the GPT header.
type Header struct {
	Signature                [8]byte
	Revision                 uint32
	HeaderSize               uint32
	HeaderCRC32              uint32
	MyLBA                    uint64
	AlternateLBA             uint64
	FirstUsableLBA           uint64
	LastUsableLBA            uint64
	DiskGUID                 GUID
	PartitionEntryLBA        uint64
	NumberOfPartitionEntries uint32
	SizeOfPartitionEntry     uint32
	PartitionEntryArrayCRC32 uint32
}

// ParseHeader decodes and checks a header from the start of buf.
//
// A header CRC mismatch is reported as ErrHeaderCRC together with the fully
// decoded header, so the caller can still follow AlternateLBA. Every other
// error leaves the header partially decoded.
func ParseHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < HeaderSize {
		return h, errors.Wrapf(ErrShortBuffer, "header: have %d bytes, need %d", len(buf), HeaderSize)
	}
	copy(h.Signature[:], buf[0:8])
	if h.Signature != Signature {
		return h, errors.Wrapf(ErrInvalidSignature, "got %q", h.Signature[:])
	}
	h.Revision = binary.LittleEndian.Uint32(buf[8:12])
	h.HeaderSize = binary.LittleEndian.Uint32(buf[12:16])
	h.HeaderCRC32 = binary.LittleEndian.Uint32(buf[16:20])
	if h.HeaderSize != HeaderSize {
		return h, errors.Wrapf(ErrInvalidHeaderSize, "got %d", h.HeaderSize)
	}
	if h.Revision != Revision {
		return h, errors.Wrapf(ErrInvalidRevision, "got %#08x", h.Revision)
	}

	h.MyLBA = binary.LittleEndian.Uint64(buf[24:32])
	h.AlternateLBA = binary.LittleEndian.Uint64(buf[32:40])
	h.FirstUsableLBA = binary.LittleEndian.Uint64(buf[40:48])
	h.LastUsableLBA = binary.LittleEndian.Uint64(buf[48:56])
	copy(h.DiskGUID[:], buf[56:72])
	h.PartitionEntryLBA = binary.LittleEndian.Uint64(buf[72:80])
	h.NumberOfPartitionEntries = binary.LittleEndian.Uint32(buf[80:84])
	h.SizeOfPartitionEntry = binary.LittleEndian.Uint32(buf[84:88])
	h.PartitionEntryArrayCRC32 = binary.LittleEndian.Uint32(buf[88:92])

	// the CRC covers the entry geometry, so check it first
	if crc := headerChecksum(buf); crc != h.HeaderCRC32 {
		return h, errors.Wrapf(ErrHeaderCRC, "recorded %#08x, computed %#08x", h.HeaderCRC32, crc)
	}
	if h.SizeOfPartitionEntry < MinEntrySize || h.SizeOfPartitionEntry%8 != 0 {
		return h, errors.Wrapf(ErrInvalidEntrySize, "got %d", h.SizeOfPartitionEntry)
	}
	return h, nil
}

// Validate cross-checks the header against where it was read from and the
// partition table bytes it describes. table may be longer than TableSize.
func (h *Header) Validate(expectedLBA uint64, table []byte) error {
	if h.MyLBA != expectedLBA {
		return errors.Wrapf(ErrLBAMismatch, "header says %d, read from %d", h.MyLBA, expectedLBA)
	}
	size, err := h.TableSize()
	if err != nil {
		return err
	}
	if uint64(len(table)) < uint64(size) {
		return errors.Wrapf(ErrShortBuffer, "table: have %d bytes, need %d", len(table), size)
	}
	if crc := Checksum(table[:size]); crc != h.PartitionEntryArrayCRC32 {
		return errors.Wrapf(ErrTableCRC, "recorded %#08x, computed %#08x", h.PartitionEntryArrayCRC32, crc)
	}
	return nil
}

// TableSize is the byte size of the partition entry array.
func (h *Header) TableSize() (uint32, error) {
	hi, lo := bits.Mul32(h.NumberOfPartitionEntries, h.SizeOfPartitionEntry)
	if hi != 0 {
		return 0, errors.Wrapf(ErrTableSizeOverflow, "%d entries of %d bytes", h.NumberOfPartitionEntries, h.SizeOfPartitionEntry)
	}
	return lo, nil
}

// TableBlocks is the number of blocks occupied by the partition entry array.
func (h *Header) TableBlocks(blockSize int) (int, error) {
	size, err := h.TableSize()
	if err != nil {
		return 0, err
	}
	return int(common.CeilDiv(uint64(size), uint64(blockSize))), nil
}

func (h Header) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Signature: %s\n", h.Signature[:])
	fmt.Fprintf(&b, "Revision: %d.%d\n", h.Revision>>16, h.Revision&0xffff)
	fmt.Fprintf(&b, "HeaderSize: %d\n", h.HeaderSize)
	fmt.Fprintf(&b, "HeaderCRC32: %#08x\n", h.HeaderCRC32)
	fmt.Fprintf(&b, "MyLBA: %d\n", h.MyLBA)
	fmt.Fprintf(&b, "AlternateLBA: %d\n", h.AlternateLBA)
	fmt.Fprintf(&b, "FirstUsableLBA: %d\n", h.FirstUsableLBA)
	fmt.Fprintf(&b, "LastUsableLBA: %d\n", h.LastUsableLBA)
	fmt.Fprintf(&b, "DiskGUID: %s\n", h.DiskGUID)
	fmt.Fprintf(&b, "PartitionEntryLBA: %d\n", h.PartitionEntryLBA)
	fmt.Fprintf(&b, "NumberOfPartitionEntries: %d\n", h.NumberOfPartitionEntries)
	fmt.Fprintf(&b, "SizeOfPartitionEntry: %d\n", h.SizeOfPartitionEntry)
	fmt.Fprintf(&b, "PartitionEntryArrayCRC32: %#08x\n", h.PartitionEntryArrayCRC32)
	return b.String()
}
