package blockdev

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gptread/internal/common"
	"gptread/internal/compress"
)

// OpenImage loads a possibly compressed disk image into memory. compression
// is a codec name understood by internal/compress; "auto" detects it from the
// file magic.
func OpenImage(path string, blockSize int, compression string) (*Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	kind := compression
	if compress.Normalize(compression) == "auto" {
		kind = compress.Detect(data)
	}
	out, err := compress.Decompress(data, kind)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress %s (%s)", path, kind)
	}
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	if blockSize < 0 || blockSize&(blockSize-1) != 0 {
		return nil, errors.Wrapf(ErrBlockSize, "%d", blockSize)
	}
	// images with a truncated last block read it as zeros
	if n := common.AlignUp(uint64(len(out)), uint64(blockSize)); n != uint64(len(out)) {
		out = append(out, make([]byte, n-uint64(len(out)))...)
	}
	log.WithFields(log.Fields{"path": path, "codec": kind, "size": len(out)}).Debug("blockdev: image loaded")
	return Memory(out, blockSize)
}
