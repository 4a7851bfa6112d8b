package blockdev

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gptread/gpt"
	"gptread/internal/compress"
	"gptread/internal/gpttest"
)

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i / 512)
	}
	return b
}

func TestMemoryReadBlocks(t *testing.T) {
	d, err := Memory(pattern(8*512), 512)
	require.NoError(t, err)
	assert.Equal(t, 512, d.BlockSize())
	assert.Equal(t, uint64(8), d.Blocks())

	buf := make([]byte, 2*512)
	require.NoError(t, d.ReadBlocks(buf, 3, 2))
	assert.Equal(t, byte(3), buf[0])
	assert.Equal(t, byte(4), buf[len(buf)-1])

	assert.ErrorIs(t, d.ReadBlocks(buf, 7, 2), ErrRange)
	assert.ErrorIs(t, d.ReadBlocks(buf[:100], 0, 1), io.ErrShortBuffer)
	assert.ErrorIs(t, d.ReadBlocks(buf, 1<<62, 1), ErrRange)
	assert.NoError(t, d.ReadBlocks(nil, 0, 0))
}

func TestNewBlockSize(t *testing.T) {
	for _, bs := range []int{0, -512, 1000} {
		_, err := New(bytes.NewReader(nil), bs, 0)
		assert.ErrorIs(t, err, ErrBlockSize, "block size %d", bs)
	}
}

type shortReader struct{ data []byte }

func (r shortReader) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	return copy(p, r.data[off:]), io.EOF
}

func TestShortRead(t *testing.T) {
	d, err := New(shortReader{make([]byte, 700)}, 512, -1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), d.Blocks())
	err = d.ReadBlocks(make([]byte, 1024), 0, 2)
	assert.ErrorIs(t, err, ErrShortRead)
}

func writeImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpenFile(t *testing.T) {
	path := writeImage(t, pattern(16*512))
	d, err := OpenFile(path, 0)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, DefaultBlockSize, d.BlockSize(), "regular files fall back to the default")
	assert.Equal(t, int64(16*512), d.Size())
	buf := make([]byte, 512)
	require.NoError(t, d.ReadBlocks(buf, 15, 1))
	assert.Equal(t, byte(15), buf[0])

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing"), 512)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenMmap(t *testing.T) {
	path := writeImage(t, pattern(4*4096))
	d, err := OpenMmap(path, 4096)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, uint64(4), d.Blocks())
	buf := make([]byte, 4096)
	require.NoError(t, d.ReadBlocks(buf, 2, 1))
	assert.Equal(t, byte(16), buf[0])
	assert.ErrorIs(t, d.ReadBlocks(buf, 4, 1), ErrRange)
}

func TestOpenImageCompressed(t *testing.T) {
	img, err := gpttest.Build(gpttest.DefaultLayout())
	require.NoError(t, err)

	for _, codec := range []string{"gzip", "zstd", "xz"} {
		t.Run(codec, func(t *testing.T) {
			packed, err := gpttest.Compress(img.Data, codec)
			require.NoError(t, err)
			path := writeImage(t, packed)

			d, err := OpenImage(path, 0, "auto")
			require.NoError(t, err)
			assert.Equal(t, int64(len(img.Data)), d.Size())

			disk, err := gpt.Open(d)
			require.NoError(t, err)
			assert.Equal(t, img.BackupLBA, disk.Header().AlternateLBA)
		})
	}
}

func TestOpenImageRaw(t *testing.T) {
	img, err := gpttest.Build(gpttest.DefaultLayout())
	require.NoError(t, err)
	path := writeImage(t, img.Data)

	d, err := OpenImage(path, 512, "none")
	require.NoError(t, err)
	_, err = gpt.Open(d)
	require.NoError(t, err)

	_, err = OpenImage(path, 512, "rar")
	assert.ErrorIs(t, err, compress.ErrUnsupported)
}

func TestFileDeviceWithGPT(t *testing.T) {
	layout := gpttest.DefaultLayout()
	layout.Parts = []gpttest.Part{{Index: 0, Type: gpt.MustParseGUID("0FC63DAF-8483-4772-8E79-3D69D8477DE4"), First: 34, Last: 94, Name: "data"}}
	img, err := gpttest.Build(layout)
	require.NoError(t, err)
	path := writeImage(t, img.Data)

	for name, open := range map[string]func(string, int) (*Device, error){
		"file": OpenFile,
		"mmap": OpenMmap,
	} {
		t.Run(name, func(t *testing.T) {
			d, err := open(path, 512)
			require.NoError(t, err)
			defer d.Close()

			disk, err := gpt.Open(d)
			require.NoError(t, err)
			p, err := disk.Entry(0)
			require.NoError(t, err)
			assert.Equal(t, "data", p.Name())
			assert.Equal(t, uint64(61), p.Blocks())
		})
	}
}

func TestOpenImagePadsLastBlock(t *testing.T) {
	path := writeImage(t, pattern(1000))
	d, err := OpenImage(path, 512, "none")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), d.Size())
	buf := make([]byte, 512)
	require.NoError(t, d.ReadBlocks(buf, 1, 1))
	assert.Equal(t, byte(1), buf[0])
	assert.Equal(t, byte(0), buf[511])
}
