package gpt

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// MBRSize is the size of the legacy master boot record.
	MBRSize = 512

	mbrRecordOffset    = 446
	mbrRecordSize      = 16
	mbrSignatureOffset = 510

	// ProtectiveOSType is the OS type of the record covering a GPT disk.
	ProtectiveOSType = 0xEE
)

// MBRPartitionRecord is one of the four legacy partition records.
type MBRPartitionRecord struct {
	BootIndicator byte
	StartingCHS   [3]byte
	OSType        byte
	EndingCHS     [3]byte
	StartingLBA   uint32
	SizeInLBA     uint32
}

// MasterBootRecord is the legacy structure in block 0. It is a copy of the
// sector contents; the buffer it was parsed from can be reused immediately.
type MasterBootRecord struct {
	DiskSignature uint32
	Partitions    [4]MBRPartitionRecord
	Signature     [2]byte
}

// ParseMBR decodes the first MBRSize bytes of buf.
func ParseMBR(buf []byte) (MasterBootRecord, error) {
	var m MasterBootRecord
	if len(buf) < MBRSize {
		return m, errors.Wrapf(ErrShortBuffer, "mbr: have %d bytes, need %d", len(buf), MBRSize)
	}
	m.DiskSignature = binary.LittleEndian.Uint32(buf[440:444])
	for i := range m.Partitions {
		off := mbrRecordOffset + i*mbrRecordSize
		rec := buf[off : off+mbrRecordSize]
		p := &m.Partitions[i]
		p.BootIndicator = rec[0]
		copy(p.StartingCHS[:], rec[1:4])
		p.OSType = rec[4]
		copy(p.EndingCHS[:], rec[5:8])
		p.StartingLBA = binary.LittleEndian.Uint32(rec[8:12])
		p.SizeInLBA = binary.LittleEndian.Uint32(rec[12:16])
	}
	copy(m.Signature[:], buf[mbrSignatureOffset:MBRSize])
	return m, nil
}

// Verify checks the 0x55AA boot signature.
func (m *MasterBootRecord) Verify() error {
	if m.Signature != [2]byte{0x55, 0xAA} {
		return errors.Wrapf(ErrInvalidMBRSignature, "got %#02x%02x", m.Signature[0], m.Signature[1])
	}
	return nil
}

// IsProtective reports whether record 0 marks the disk as GPT.
func (m *MasterBootRecord) IsProtective() bool {
	return m.Partitions[0].OSType == ProtectiveOSType
}

// HeaderLBA is the block of the primary GPT header, as declared by the
// protective record.
func (m *MasterBootRecord) HeaderLBA() uint64 {
	return uint64(m.Partitions[0].StartingLBA)
}
