// Package gpt reads and validates GUID Partition Tables from a block device.
//
// Open checks the protective MBR, parses both header copies, validates each
// against its own partition table and returns a Disk backed by a valid copy.
// When only one copy is valid, Open returns a *BrokenHeaderError carrying a
// usable Disk together with the name of the broken copy, so callers can keep
// reading while they schedule a repair. Partition entries are decoded into
// caller-chosen representations of the type GUID and attribute fields.
//
// By default the working buffer grows up to a configurable limit. Building
// with the gpt_fixedbuf tag replaces it with a fixed DefaultTableSize array;
// larger tables then fail with ErrCapacity.
package gpt

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// BlockDevice is a synchronous, read-only block transport. ReadBlocks reads
// count blocks starting at lba into dst, which holds exactly
// count*BlockSize() bytes.
type BlockDevice interface {
	BlockSize() int
	ReadBlocks(dst []byte, lba uint64, count int) error
}

type options struct {
	log          logrus.FieldLogger
	maxTableSize int
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger used for debug tracing. The default is the
// logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithMaxTableSize limits the size of partition table buffers. It has no
// effect in gpt_fixedbuf builds.
func WithMaxTableSize(n int) Option {
	return func(o *options) { o.maxTableSize = n }
}

// Disk is an opened GPT disk. It owns the block device and one validated
// header.
type Disk[D BlockDevice] struct {
	dev      D
	header   Header
	opts     options
	released bool
}

// Open reads and validates the GPT on dev. On success the returned Disk uses
// the primary header.
//
// If exactly one header copy fails validation, Open returns a nil Disk and a
// *BrokenHeaderError[D] whose Disk field is backed by the other copy. If both
// fail, or the MBR is not protective, the error wraps ErrNoGPT. A header whose
// own CRC does not match counts as failing validation.
//
// Any other structural failure of the primary header (signature, size,
// revision or entry size) is fatal: the backup is located through the
// primary, so no backup-only recovery is attempted. The same failures in the
// backup header are fatal too.
func Open[D BlockDevice](dev D, opts ...Option) (*Disk[D], error) {
	o := options{log: logrus.StandardLogger(), maxTableSize: DefaultMaxTableSize}
	for _, opt := range opts {
		opt(&o)
	}
	bs := dev.BlockSize()
	if bs < MBRSize {
		return nil, errors.Wrapf(ErrBlockSize, "block size %d is below %d", bs, MBRSize)
	}
	s := newScratch(o.maxTableSize)

	buf, err := s.get(bs)
	if err != nil {
		return nil, err
	}
	if err := readBlocks(dev, buf, 0, 1); err != nil {
		return nil, err
	}
	mbr, err := ParseMBR(buf)
	if err != nil {
		return nil, err
	}
	if err := mbr.Verify(); err != nil {
		return nil, err
	}
	if !mbr.IsProtective() {
		return nil, errors.Wrapf(ErrNoGPT, "mbr record 0 has type %#02x", mbr.Partitions[0].OSType)
	}
	headerLBA := mbr.HeaderLBA()
	o.log.Debugf("gpt: protective mbr found, header at LBA %d", headerLBA)

	primary, primaryErr, err := readCopy(dev, s, headerLBA)
	if err != nil {
		return nil, errors.Wrap(err, "primary")
	}
	backupLBA := primary.AlternateLBA
	backup, backupErr, err := readCopy(dev, s, backupLBA)
	if err != nil {
		return nil, errors.Wrap(err, "backup")
	}

	o.log.WithFields(logrus.Fields{
		"primary_lba":   headerLBA,
		"backup_lba":    backupLBA,
		"primary_error": primaryErr,
		"backup_error":  backupErr,
	}).Debug("gpt: headers validated")

	switch {
	case primaryErr == nil && backupErr == nil:
		return &Disk[D]{dev: dev, header: primary, opts: o}, nil
	case primaryErr == nil:
		return nil, &BrokenHeaderError[D]{
			Disk:   &Disk[D]{dev: dev, header: primary, opts: o},
			Broken: Backup,
			Err:    backupErr,
		}
	case backupErr == nil:
		return nil, &BrokenHeaderError[D]{
			Disk:   &Disk[D]{dev: dev, header: backup, opts: o},
			Broken: Primary,
			Err:    primaryErr,
		}
	default:
		// pkg/errors wraps a single cause; both validation errors stay matchable.
		return nil, fmt.Errorf("%w: primary: %w; backup: %w", ErrNoGPT, primaryErr, backupErr)
	}
}

// readCopy reads the header at lba and, when its CRC holds, the table it
// describes. invalid is the reason the copy cannot be used; err is fatal.
// The table of a header with a bad CRC is not read.
func readCopy[D BlockDevice](dev D, s *scratch, lba uint64) (h Header, invalid, err error) {
	h, err = readHeader(dev, s, lba)
	if errors.Is(err, ErrHeaderCRC) {
		return h, err, nil
	}
	if err != nil {
		return h, nil, errors.Wrap(err, "header")
	}
	table, err := readTable(dev, s, &h)
	if err != nil {
		return h, nil, errors.Wrap(err, "table")
	}
	return h, h.Validate(lba, table), nil
}

func readBlocks[D BlockDevice](dev D, dst []byte, lba uint64, count int) error {
	if count == 0 {
		return nil
	}
	if err := dev.ReadBlocks(dst, lba, count); err != nil {
		return &DeviceError{LBA: lba, Count: count, Err: err}
	}
	return nil
}

func readHeader[D BlockDevice](dev D, s *scratch, lba uint64) (Header, error) {
	buf, err := s.get(dev.BlockSize())
	if err != nil {
		return Header{}, err
	}
	if err := readBlocks(dev, buf, lba, 1); err != nil {
		return Header{}, err
	}
	return ParseHeader(buf)
}

// tableExtent returns the byte size of the partition array of h, the number
// of blocks it occupies and the byte length of those blocks.
func tableExtent(h *Header, blockSize int) (size uint32, blocks, n int, err error) {
	size, err = h.TableSize()
	if err != nil {
		return 0, 0, 0, err
	}
	blocks, err = h.TableBlocks(blockSize)
	if err != nil {
		return 0, 0, 0, err
	}
	total := uint64(blocks) * uint64(blockSize)
	if total > math.MaxInt {
		return 0, 0, 0, errors.Wrapf(ErrAlloc, "need %d bytes", total)
	}
	return size, blocks, int(total), nil
}

// readTable reads the partition array of h into s and returns exactly
// TableSize bytes of it.
func readTable[D BlockDevice](dev D, s *scratch, h *Header) ([]byte, error) {
	size, blocks, n, err := tableExtent(h, dev.BlockSize())
	if err != nil {
		return nil, err
	}
	buf, err := s.get(n)
	if err != nil {
		return nil, err
	}
	if err := readBlocks(dev, buf, h.PartitionEntryLBA, blocks); err != nil {
		return nil, err
	}
	return buf[:size], nil
}

func (d *Disk[D]) check() error {
	if d.released {
		return ErrReleased
	}
	return nil
}

// Header returns a copy of the header the disk was validated with.
func (d *Disk[D]) Header() Header { return d.header }

// Device returns the underlying block device without releasing it.
func (d *Disk[D]) Device() D { return d.dev }

// Release hands the block device back to the caller. The Disk cannot be used
// afterwards.
func (d *Disk[D]) Release() D {
	dev := d.dev
	var zero D
	d.dev = zero
	d.released = true
	return dev
}

// ReadTable reads the active partition table. dst is reused when it has
// enough capacity for the whole block range; the returned slice holds
// exactly TableSize bytes.
func (d *Disk[D]) ReadTable(dst []byte) ([]byte, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	size, blocks, n, err := tableExtent(&d.header, d.dev.BlockSize())
	if err != nil {
		return nil, err
	}
	if cap(dst) < n {
		s := newScratch(d.opts.maxTableSize)
		if dst, err = s.get(n); err != nil {
			return nil, err
		}
	}
	dst = dst[:n]
	if err := readBlocks(d.dev, dst, d.header.PartitionEntryLBA, blocks); err != nil {
		return nil, err
	}
	return dst[:size], nil
}

// Entry returns partition idx with raw GUID and attribute representations.
func (d *Disk[D]) Entry(idx uint32) (Entry, error) {
	return Partition[GUID, Attributes](d, idx)
}

// FindType returns the first partition whose type is t.
func (d *Disk[D]) FindType(t GUID) (Entry, error) {
	return FirstOfType[GUID, Attributes](d, t)
}

// PartitionFromTable decodes entry idx from a table previously returned by
// ReadTable. It performs no I/O.
func PartitionFromTable[T TypeID[T], A Attribute[A], D BlockDevice](d *Disk[D], table []byte, idx uint32) (PartitionEntry[T, A], error) {
	if err := d.check(); err != nil {
		return PartitionEntry[T, A]{}, err
	}
	return DecodeEntry[T, A](&d.header, table, idx)
}

// Partition reads the partition table and decodes entry idx.
func Partition[T TypeID[T], A Attribute[A], D BlockDevice](d *Disk[D], idx uint32) (PartitionEntry[T, A], error) {
	if err := d.check(); err != nil {
		return PartitionEntry[T, A]{}, err
	}
	if idx >= d.header.NumberOfPartitionEntries {
		return PartitionEntry[T, A]{}, errors.Wrapf(ErrIndexOutOfRange, "index %d, table has %d entries", idx, d.header.NumberOfPartitionEntries)
	}
	table, err := d.ReadTable(nil)
	if err != nil {
		return PartitionEntry[T, A]{}, err
	}
	return PartitionFromTable[T, A](d, table, idx)
}

// FirstOfTypeFromTable scans table from index 0 and returns the first entry
// whose type equals typ. The scan ends when the decoder reports
// ErrIndexOutOfRange; the returned error then matches both ErrNotFound and
// ErrIndexOutOfRange.
func FirstOfTypeFromTable[T TypeID[T], A Attribute[A], D BlockDevice](d *Disk[D], table []byte, typ T) (PartitionEntry[T, A], error) {
	for idx := uint32(0); ; idx++ {
		p, err := PartitionFromTable[T, A](d, table, idx)
		if errors.Is(err, ErrIndexOutOfRange) {
			return p, notFoundError{err}
		}
		if err != nil {
			return p, err
		}
		if p.Type == typ {
			return p, nil
		}
	}
}

// FirstOfType reads the partition table and returns the first entry whose
// type equals typ.
func FirstOfType[T TypeID[T], A Attribute[A], D BlockDevice](d *Disk[D], typ T) (PartitionEntry[T, A], error) {
	table, err := d.ReadTable(nil)
	if err != nil {
		return PartitionEntry[T, A]{}, err
	}
	return FirstOfTypeFromTable[T, A](d, table, typ)
}

// Entries returns every entry whose raw type GUID is not zero.
func Entries[T TypeID[T], A Attribute[A], D BlockDevice](d *Disk[D]) ([]PartitionEntry[T, A], error) {
	table, err := d.ReadTable(nil)
	if err != nil {
		return nil, err
	}
	var out []PartitionEntry[T, A]
	for idx := uint32(0); idx < d.header.NumberOfPartitionEntries; idx++ {
		p, err := DecodeEntry[T, A](&d.header, table, idx)
		if err != nil {
			return out, err
		}
		raw, err := p.Type.EncodeTypeID()
		if err != nil {
			return out, &ConversionError{Field: "type", Index: idx, Err: err}
		}
		if GUID(raw).IsZero() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
