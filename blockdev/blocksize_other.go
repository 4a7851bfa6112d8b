//go:build !linux

package blockdev

import (
	"os"

	"gptread/internal/common"
)

func LogicalBlockSize(f *os.File) (int, error) {
	return DefaultBlockSize, common.ErrUnsupported
}
