// Package blockdev provides gpt.BlockDevice implementations over files,
// memory-mapped files, compressed disk images and plain byte slices.
package blockdev

import (
	"bytes"
	"io"
	"math"

	"github.com/pkg/errors"
)

// DefaultBlockSize is used when the logical block size cannot be probed.
const DefaultBlockSize = 512

var (
	ErrShortRead = errors.New("blockdev: short read")
	ErrRange     = errors.New("blockdev: block address out of range")
	ErrBlockSize = errors.New("blockdev: invalid block size")
)

// Device reads fixed-size blocks from an io.ReaderAt. It is safe for
// concurrent use when the underlying reader is.
type Device struct {
	r      io.ReaderAt
	bs     int
	size   int64
	closer io.Closer
}

// New returns a device reading blocks of blockSize bytes from r. size is the
// device length in bytes, or a negative value when unknown.
func New(r io.ReaderAt, blockSize int, size int64) (*Device, error) {
	if blockSize <= 0 || blockSize&(blockSize-1) != 0 {
		return nil, errors.Wrapf(ErrBlockSize, "%d", blockSize)
	}
	d := &Device{r: r, bs: blockSize, size: size}
	if c, ok := r.(io.Closer); ok {
		d.closer = c
	}
	return d, nil
}

// Memory returns a device over data.
func Memory(data []byte, blockSize int) (*Device, error) {
	return New(bytes.NewReader(data), blockSize, int64(len(data)))
}

func (d *Device) BlockSize() int { return d.bs }

// Size is the device length in bytes, negative when unknown.
func (d *Device) Size() int64 { return d.size }

// Blocks is the number of whole blocks on the device, zero when the size is
// unknown.
func (d *Device) Blocks() uint64 {
	if d.size < 0 {
		return 0
	}
	return uint64(d.size) / uint64(d.bs)
}

// ReadBlocks implements gpt.BlockDevice.
func (d *Device) ReadBlocks(dst []byte, lba uint64, count int) error {
	if count < 0 || count > math.MaxInt/d.bs {
		return errors.Wrapf(ErrRange, "%d blocks", count)
	}
	n := count * d.bs
	if len(dst) < n {
		return errors.Wrapf(io.ErrShortBuffer, "need %d bytes, have %d", n, len(dst))
	}
	if lba > uint64(math.MaxInt64)/uint64(d.bs) {
		return errors.Wrapf(ErrRange, "LBA %d", lba)
	}
	off := int64(lba) * int64(d.bs)
	if d.size >= 0 && off+int64(n) > d.size {
		return errors.Wrapf(ErrRange, "LBA %d+%d past end of %d byte device", lba, count, d.size)
	}
	got, err := d.r.ReadAt(dst[:n], off)
	if got == n {
		return nil
	}
	if err == nil || err == io.EOF {
		return errors.Wrapf(ErrShortRead, "LBA %d: got %d of %d bytes", lba, got, n)
	}
	return errors.Wrapf(err, "read LBA %d", lba)
}

// ReadAt reads directly from the underlying reader.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	return d.r.ReadAt(p, off)
}

// Close releases the underlying reader if it can be closed.
func (d *Device) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}
