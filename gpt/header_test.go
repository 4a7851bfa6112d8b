package gpt

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	img := build(t, defaultLayout())

	h, err := ParseHeader(img.Header(img.PrimaryLBA))
	require.NoError(t, err)

	want := Header{
		Signature:                Signature,
		Revision:                 Revision,
		HeaderSize:               HeaderSize,
		HeaderCRC32:              binary.LittleEndian.Uint32(img.Header(img.PrimaryLBA)[16:20]),
		MyLBA:                    1,
		AlternateLBA:             127,
		FirstUsableLBA:           34,
		LastUsableLBA:            94,
		DiskGUID:                 testDiskGUID,
		PartitionEntryLBA:        2,
		NumberOfPartitionEntries: 128,
		SizeOfPartitionEntry:     128,
		PartitionEntryArrayCRC32: Checksum(img.Table(0)),
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("ParseHeader() mismatch (-want +got):\n%s", diff)
	}

	b, err := ParseHeader(img.Header(img.BackupLBA))
	require.NoError(t, err)
	assert.Equal(t, uint64(127), b.MyLBA)
	assert.Equal(t, uint64(1), b.AlternateLBA)
	assert.Equal(t, uint64(95), b.PartitionEntryLBA)
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h []byte)
		reseal bool
		want   error
	}{
		{"bad signature", func(h []byte) { h[0] = 'X' }, true, ErrInvalidSignature},
		{"bad header size", func(h []byte) { binary.LittleEndian.PutUint32(h[12:16], 96) }, true, ErrInvalidHeaderSize},
		{"bad revision", func(h []byte) { binary.LittleEndian.PutUint32(h[8:12], 0x00020000) }, true, ErrInvalidRevision},
		{"bad header crc", func(h []byte) { h[40] ^= 0xff }, false, ErrHeaderCRC},
		{"small entry size", func(h []byte) { binary.LittleEndian.PutUint32(h[84:88], 64) }, true, ErrInvalidEntrySize},
		{"unaligned entry size", func(h []byte) { binary.LittleEndian.PutUint32(h[84:88], 130) }, true, ErrInvalidEntrySize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := build(t, defaultLayout())
			tt.mutate(img.Header(img.PrimaryLBA))
			if tt.reseal {
				img.Reseal(img.PrimaryLBA)
			}
			_, err := ParseHeader(img.Header(img.PrimaryLBA))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("short buffer", func(t *testing.T) {
		_, err := ParseHeader(make([]byte, HeaderSize-1))
		assert.ErrorIs(t, err, ErrShortBuffer)
	})
}

func TestParseHeaderBadCRCStillDecodes(t *testing.T) {
	img := build(t, defaultLayout())
	want, err := ParseHeader(img.Header(img.PrimaryLBA))
	require.NoError(t, err)

	img.Header(img.PrimaryLBA)[16] ^= 0xff
	got, err := ParseHeader(img.Header(img.PrimaryLBA))
	assert.ErrorIs(t, err, ErrHeaderCRC)
	assert.Equal(t, want.AlternateLBA, got.AlternateLBA)
	assert.Equal(t, want.PartitionEntryArrayCRC32, got.PartitionEntryArrayCRC32)
	assert.Equal(t, want.HeaderCRC32^0xff, got.HeaderCRC32)
}

func TestHeaderChecksumIgnoresCRCField(t *testing.T) {
	img := build(t, defaultLayout())
	h := img.Header(img.PrimaryLBA)
	before := headerChecksum(h)
	binary.LittleEndian.PutUint32(h[16:20], 0xdeadbeef)
	assert.Equal(t, before, headerChecksum(h))
	assert.Equal(t, uint32(0xdeadbeef), binary.LittleEndian.Uint32(h[16:20]))
}

func TestValidate(t *testing.T) {
	img := build(t, defaultLayout())
	h, err := ParseHeader(img.Header(img.PrimaryLBA))
	require.NoError(t, err)

	assert.NoError(t, h.Validate(1, img.Table(0)))

	padded := append(append([]byte{}, img.Table(0)...), 0xff, 0xff)
	assert.NoError(t, h.Validate(1, padded), "bytes past the table are ignored")

	assert.ErrorIs(t, h.Validate(2, img.Table(0)), ErrLBAMismatch)

	corrupt := append([]byte{}, img.Table(0)...)
	corrupt[200] ^= 1
	assert.ErrorIs(t, h.Validate(1, corrupt), ErrTableCRC)

	assert.ErrorIs(t, h.Validate(1, img.Table(0)[:100]), ErrShortBuffer)
}

func TestTableSize(t *testing.T) {
	tests := []struct {
		name      string
		num, size uint32
		blockSize int
		wantSize  uint32
		wantBlks  int
		wantErr   error
	}{
		{"default", 128, 128, 512, 16384, 32, nil},
		{"partial block", 3, 128, 512, 384, 1, nil},
		{"exact block", 4, 128, 512, 512, 1, nil},
		{"large blocks", 128, 128, 4096, 16384, 4, nil},
		{"empty", 0, 128, 512, 0, 0, nil},
		{"overflow", 0xffffffff, 0xfffffff8, 512, 0, 0, ErrTableSizeOverflow},
		{"just over 32 bits", 1 << 25, 128, 512, 0, 0, ErrTableSizeOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Header{NumberOfPartitionEntries: tt.num, SizeOfPartitionEntry: tt.size}
			size, err := h.TableSize()
			blocks, berr := h.TableBlocks(tt.blockSize)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, berr, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, berr)
			assert.Equal(t, tt.wantSize, size)
			assert.Equal(t, tt.wantBlks, blocks)
		})
	}
}

func TestTableExtent(t *testing.T) {
	tests := []struct {
		name       string
		num, size  uint32
		blockSize  int
		wantSize   uint32
		wantBlocks int
		wantBytes  int
		wantErr    error
	}{
		{"default", 128, 128, 512, 16384, 32, 16384, nil},
		{"padded last block", 3, 128, 512, 384, 1, 512, nil},
		{"large blocks", 5, 128, 4096, 640, 1, 4096, nil},
		{"empty", 0, 128, 512, 0, 0, 0, nil},
		{"overflow", 0xffffffff, 0xfffffff8, 512, 0, 0, 0, ErrTableSizeOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Header{NumberOfPartitionEntries: tt.num, SizeOfPartitionEntry: tt.size}
			size, blocks, n, err := tableExtent(&h, tt.blockSize)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, size)
			assert.Equal(t, tt.wantBlocks, blocks)
			assert.Equal(t, tt.wantBytes, n)
		})
	}
}
