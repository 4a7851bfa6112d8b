// Package gpttest builds GPT disk images in memory for tests. It encodes the
// on-disk layout independently of package gpt so it can serve as an oracle.
package gpttest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"

	"gptread/internal/compress"
)

// Part describes one partition entry.
type Part struct {
	Index uint32
	Type  [16]byte
	GUID  [16]byte
	First uint64
	Last  uint64
	Attrs uint64
	Name  string
}

// Layout describes the geometry of an image.
type Layout struct {
	BlockSize int
	Blocks    uint64
	NumParts  uint32
	EntrySize uint32
	DiskGUID  [16]byte
	Parts     []Part
}

// DefaultLayout is a 64 KiB disk with 512 byte blocks and the usual 128 entries
// of 128 bytes. It has no partitions.
func DefaultLayout() Layout {
	return Layout{
		BlockSize: 512,
		Blocks:    128,
		NumParts:  128,
		EntrySize: 128,
		DiskGUID:  [16]byte{0x2c, 0x4e, 0x5f, 0x5a, 0x3d, 0x1b, 0x6f, 0x4e, 0x8a, 0x9b, 0x0c, 0x1d, 0x2e, 0x3f, 0x4a, 0x5b},
	}
}

// Image is a built disk image. Both header copies share one table layout:
// the primary table starts at LBA 2 and the backup table ends just before the
// backup header in the last block.
type Image struct {
	Layout     Layout
	Data       []byte
	PrimaryLBA uint64
	BackupLBA  uint64
	TableLBAs  [2]uint64
}

// Build lays out a protective MBR, both headers and both tables.
func Build(s Layout) (*Image, error) {
	bs := uint64(s.BlockSize)
	if bs < 512 {
		return nil, errors.Errorf("gpttest: block size %d", s.BlockSize)
	}
	tableBytes := uint64(s.NumParts) * uint64(s.EntrySize)
	tableBlocks := (tableBytes + bs - 1) / bs
	if s.Blocks < 2*tableBlocks+4 {
		return nil, errors.Errorf("gpttest: %d blocks cannot hold two %d block tables", s.Blocks, tableBlocks)
	}
	img := &Image{
		Layout:     s,
		Data:       make([]byte, s.Blocks*bs),
		PrimaryLBA: 1,
		BackupLBA:  s.Blocks - 1,
		TableLBAs:  [2]uint64{2, s.Blocks - 1 - tableBlocks},
	}

	mbr := img.Data[:512]
	rec := mbr[446:462]
	rec[4] = 0xEE
	binary.LittleEndian.PutUint32(rec[8:12], 1)
	binary.LittleEndian.PutUint32(rec[12:16], uint32(min(s.Blocks-1, 0xffffffff)))
	mbr[510], mbr[511] = 0x55, 0xAA

	table := make([]byte, tableBytes)
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	for _, p := range s.Parts {
		off := uint64(p.Index) * uint64(s.EntrySize)
		if off+128 > tableBytes {
			return nil, errors.Errorf("gpttest: entry %d outside table", p.Index)
		}
		e := table[off : off+128]
		copy(e[0:16], p.Type[:])
		copy(e[16:32], p.GUID[:])
		binary.LittleEndian.PutUint64(e[32:40], p.First)
		binary.LittleEndian.PutUint64(e[40:48], p.Last)
		binary.LittleEndian.PutUint64(e[48:56], p.Attrs)
		name, err := enc.Bytes([]byte(p.Name))
		if err != nil {
			return nil, errors.Wrapf(err, "gpttest: entry %d name", p.Index)
		}
		copy(e[56:128], name)
	}
	tableCRC := crc32.ChecksumIEEE(table)

	for i, lba := range []uint64{img.PrimaryLBA, img.BackupLBA} {
		other := img.BackupLBA
		if i == 1 {
			other = img.PrimaryLBA
		}
		copy(img.Data[img.TableLBAs[i]*bs:], table)
		h := img.Header(lba)
		copy(h[0:8], "EFI PART")
		binary.LittleEndian.PutUint32(h[8:12], 0x00010000)
		binary.LittleEndian.PutUint32(h[12:16], 92)
		binary.LittleEndian.PutUint64(h[24:32], lba)
		binary.LittleEndian.PutUint64(h[32:40], other)
		binary.LittleEndian.PutUint64(h[40:48], 2+tableBlocks)
		binary.LittleEndian.PutUint64(h[48:56], img.TableLBAs[1]-1)
		copy(h[56:72], s.DiskGUID[:])
		binary.LittleEndian.PutUint64(h[72:80], img.TableLBAs[i])
		binary.LittleEndian.PutUint32(h[80:84], s.NumParts)
		binary.LittleEndian.PutUint32(h[84:88], s.EntrySize)
		binary.LittleEndian.PutUint32(h[88:92], tableCRC)
		img.Reseal(lba)
	}
	return img, nil
}

// Header returns the block holding the header at lba.
func (img *Image) Header(lba uint64) []byte {
	bs := uint64(img.Layout.BlockSize)
	return img.Data[lba*bs : (lba+1)*bs]
}

// Table returns the partition array of header copy i (0 primary, 1 backup).
func (img *Image) Table(i int) []byte {
	off := img.TableLBAs[i] * uint64(img.Layout.BlockSize)
	return img.Data[off : off+uint64(img.Layout.NumParts)*uint64(img.Layout.EntrySize)]
}

// Reseal recomputes the CRC of the header at lba.
func (img *Image) Reseal(lba uint64) {
	h := img.Header(lba)
	var tmp [92]byte
	copy(tmp[:], h)
	clear(tmp[16:20])
	binary.LittleEndian.PutUint32(h[16:20], crc32.ChecksumIEEE(tmp[:]))
}

// PutHeader32 stores v at byte offset off of the header at lba and reseals it.
func (img *Image) PutHeader32(lba uint64, off int, v uint32) {
	binary.LittleEndian.PutUint32(img.Header(lba)[off:], v)
	img.Reseal(lba)
}

// PutHeader64 stores v at byte offset off of the header at lba and reseals it.
func (img *Image) PutHeader64(lba uint64, off int, v uint64) {
	binary.LittleEndian.PutUint64(img.Header(lba)[off:], v)
	img.Reseal(lba)
}

// Compress returns data compressed with codec, for tests that read
// compressed images.
func Compress(data []byte, codec string) ([]byte, error) {
	var buf bytes.Buffer
	w, err := compress.NewWriter(codec, &buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
