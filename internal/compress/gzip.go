package compress

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

func gzipReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func gzipWriter(w io.Writer) io.WriteCloser {
	return gzip.NewWriter(w)
}
