package blockdev

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// OpenMmap maps a disk image into memory. A blockSize of 0 probes the
// logical block size.
func OpenMmap(path string, blockSize int) (*Device, error) {
	if blockSize == 0 {
		blockSize = probe(path)
	}
	m, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %s", path)
	}
	d, err := New(m, blockSize, int64(m.Len()))
	if err != nil {
		m.Close()
		return nil, err
	}
	return d, nil
}
