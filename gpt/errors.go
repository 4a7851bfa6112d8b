package gpt

import (
	"fmt"

	"github.com/pkg/errors"
)

// Structural errors, returned while parsing on-disk structures.
var (
	ErrShortBuffer         = errors.New("gpt: buffer too short")
	ErrInvalidMBRSignature = errors.New("gpt: invalid MBR boot signature")
	ErrInvalidSignature    = errors.New("gpt: invalid header signature")
	ErrInvalidHeaderSize   = errors.New("gpt: invalid header size")
	ErrInvalidRevision     = errors.New("gpt: unsupported header revision")
	ErrHeaderCRC           = errors.New("gpt: bad header CRC")
	ErrInvalidEntrySize    = errors.New("gpt: invalid partition entry size")
	ErrTableSizeOverflow   = errors.New("gpt: partition table size overflows")
)

// Validation errors, returned by Header.Validate.
var (
	ErrLBAMismatch = errors.New("gpt: header LBA does not match its location")
	ErrTableCRC    = errors.New("gpt: bad partition table CRC")
)

// Resource errors.
var (
	// ErrAlloc is returned when the partition table would need a working
	// buffer larger than the configured allocation ceiling.
	ErrAlloc = errors.New("gpt: cannot allocate partition table buffer")
	// ErrCapacity is returned by fixed-buffer builds when the partition table
	// does not fit DefaultTableSize.
	ErrCapacity = errors.New("gpt: partition table exceeds fixed buffer capacity")
)

// Logical errors.
var (
	ErrNoGPT           = errors.New("gpt: no GPT found")
	ErrIndexOutOfRange = errors.New("gpt: partition index out of range")
	ErrNotFound        = errors.New("gpt: partition not found")
	ErrReleased        = errors.New("gpt: disk released")
	ErrBlockSize       = errors.New("gpt: unsupported block size")
)

// DeviceError wraps an error returned by the block device. The original error
// is available through Unwrap.
type DeviceError struct {
	LBA   uint64
	Count int
	Err   error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("gpt: read %d block(s) at LBA %d: %v", e.Count, e.LBA, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// ConversionError is returned when a raw entry field cannot be converted to
// the caller's representation.
type ConversionError struct {
	Field string
	Index uint32
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("gpt: entry %d: convert %s: %v", e.Index, e.Field, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// HeaderType names one of the two GPT header copies.
type HeaderType int

const (
	Primary HeaderType = iota
	Backup
)

func (t HeaderType) String() string {
	switch t {
	case Primary:
		return "primary"
	case Backup:
		return "backup"
	default:
		return fmt.Sprintf("HeaderType(%d)", int(t))
	}
}

// BrokenHeaderError is returned by Open when exactly one header copy failed
// validation. Disk is fully usable and backed by the surviving copy; Broken
// names the copy that should be rewritten and Err is its validation error.
type BrokenHeaderError[D BlockDevice] struct {
	Disk   *Disk[D]
	Broken HeaderType
	Err    error
}

func (e *BrokenHeaderError[D]) Error() string {
	return fmt.Sprintf("gpt: %s header broken: %v", e.Broken, e.Err)
}

func (e *BrokenHeaderError[D]) Unwrap() error { return e.Err }

// notFoundError marks the end of a type scan. It matches ErrNotFound and
// unwraps to the decoder's out-of-range error.
type notFoundError struct {
	err error
}

func (e notFoundError) Error() string { return ErrNotFound.Error() + ": " + e.err.Error() }

func (e notFoundError) Is(target error) bool { return target == ErrNotFound }

func (e notFoundError) Unwrap() error { return e.err }
