package compress

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pack(t *testing.T, in []byte, name string) ([]byte, error) {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(name, &buf)
	require.NoError(t, err)
	_, err = w.Write(in)
	require.NoError(t, err)
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestDetectCompressed(t *testing.T) {
	in := bytes.Repeat([]byte("EFI PART"), 512)
	for _, name := range []string{"gzip", "zstd", "lz4", "xz", "bzip2"} {
		t.Run(name, func(t *testing.T) {
			out, err := pack(t, in, name)
			require.NoError(t, err)
			assert.Equal(t, name, Detect(out))

			back, kind, err := DecompressAuto(out)
			require.NoError(t, err)
			assert.Equal(t, name, kind)
			assert.Equal(t, in, back)
		})
	}
}

func TestLZMAHasNoMagic(t *testing.T) {
	in := bytes.Repeat([]byte{0xaa, 0x55}, 1024)
	out, err := pack(t, in, "lzma")
	require.NoError(t, err)
	assert.Equal(t, "none", Detect(out))

	back, err := Decompress(out, "lzma")
	require.NoError(t, err)
	assert.Equal(t, in, back)
}

func TestNormalizeAliases(t *testing.T) {
	assert.Equal(t, "gzip", Normalize("gz"))
	assert.Equal(t, "zstd", Normalize("zst"))
	assert.Equal(t, "bzip2", Normalize("bz2"))
	assert.Equal(t, "auto", Normalize(""))
	assert.Equal(t, "none", Normalize("raw"))
}

func TestUnsupported(t *testing.T) {
	_, err := NewReader("lzo", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = NewWriter("brotli", io.Discard)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestStreamingWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter("zst", &buf)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := w.Write(bytes.Repeat([]byte{byte(i)}, 4096))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	r, err := NewReader("zstd", &buf)
	require.NoError(t, err)
	defer r.Close()
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Len(t, out, 4*4096)
	assert.Equal(t, byte(3), out[len(out)-1])
}
