package blockdev

import (
	"os"

	befile "github.com/diskfs/go-diskfs/backend/file"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// OpenFile opens a disk image or block device read-only through the
// go-diskfs file backend. A blockSize of 0 probes the logical block size.
func OpenFile(path string, blockSize int) (*Device, error) {
	size := int64(-1)
	if fi, err := os.Stat(path); err != nil {
		return nil, err
	} else if fi.Mode().IsRegular() {
		size = fi.Size()
	}
	if blockSize == 0 {
		blockSize = probe(path)
	}
	b, err := befile.OpenFromPath(path, true)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	d, err := New(b, blockSize, size)
	if err != nil {
		b.Close()
		return nil, err
	}
	return d, nil
}

func probe(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return DefaultBlockSize
	}
	defer f.Close()
	bs, err := LogicalBlockSize(f)
	if err != nil {
		log.Debugf("blockdev: %s: using %d byte blocks: %v", path, bs, err)
	}
	return bs
}
