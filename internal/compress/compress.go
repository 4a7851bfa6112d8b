package compress

// Pluggable compression codecs + auto-detect, used for compressed disk images
// and extracted partitions.
// RW: gzip, zstd, lz4, xz, lzma, bzip2
// Names: none|auto|gzip|gz|zstd|zst|lz4|xz|lzma|bzip2|bz2

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	"gptread/internal/common"
)

var ErrUnsupported = fmt.Errorf("compression: %w", common.ErrUnsupported)

// ---------- name helpers ----------

// Normalize maps aliases to canonical codec names.
func Normalize(name string) string {
	switch name {
	case "", "auto":
		return "auto"
	case "none", "raw":
		return "none"
	case "gz":
		return "gzip"
	case "zst":
		return "zstd"
	case "bz2":
		return "bzip2"
	default:
		return name
	}
}

// Names lists the codecs accepted by NewReader and NewWriter.
func Names() []string {
	return []string{"none", "gzip", "zstd", "lz4", "xz", "lzma", "bzip2"}
}

// ---------- magic detection (best-effort) ----------

func Detect(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0x1f, 0x8b}):
		return "gzip"
	case bytes.HasPrefix(data, []byte{0x28, 0xB5, 0x2F, 0xFD}):
		return "zstd"
	case bytes.HasPrefix(data, []byte{0x04, 0x22, 0x4D, 0x18}):
		return "lz4"
	case bytes.HasPrefix(data, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}):
		return "xz"
	case bytes.HasPrefix(data, []byte("BZh")):
		return "bzip2"
	}
	// lzma "alone" has no reliable signature
	return "none"
}

// ---------- streaming API ----------

func NewReader(name string, r io.Reader) (io.ReadCloser, error) {
	switch Normalize(name) {
	case "none":
		return io.NopCloser(r), nil
	case "gzip":
		return gzipReader(r)
	case "zstd":
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case "lz4":
		return io.NopCloser(lz4.NewReader(r)), nil
	case "xz":
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case "lzma":
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(lr), nil
	case "bzip2":
		return bzip2.NewReader(r, &bzip2.ReaderConfig{})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
}

func NewWriter(name string, w io.Writer) (io.WriteCloser, error) {
	switch Normalize(name) {
	case "none", "auto":
		return nopWriteCloser{w}, nil
	case "gzip":
		return gzipWriter(w), nil
	case "zstd":
		return zstd.NewWriter(w)
	case "lz4":
		return lz4.NewWriter(w), nil
	case "xz":
		return xz.NewWriter(w)
	case "lzma":
		return lzma.NewWriter(w)
	case "bzip2":
		return bzip2.NewWriter(w, &bzip2.WriterConfig{})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// ---------- buffer API ----------

func DecompressAuto(in []byte) ([]byte, string, error) {
	kind := Detect(in)
	if kind == "none" {
		return in, "none", nil
	}
	out, err := Decompress(in, kind)
	return out, kind, err
}

func Decompress(in []byte, name string) ([]byte, error) {
	switch Normalize(name) {
	case "none":
		return in, nil
	case "auto":
		out, _, err := DecompressAuto(in)
		return out, err
	}
	r, err := NewReader(name, bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
