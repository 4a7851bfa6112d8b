//go:build linux

package blockdev

import (
	"os"

	"golang.org/x/sys/unix"
)

// LogicalBlockSize asks the kernel for the logical block size of f. Regular
// files report an error and DefaultBlockSize.
func LogicalBlockSize(f *os.File) (int, error) {
	bs, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
	if err != nil {
		return DefaultBlockSize, os.NewSyscallError("ioctl BLKSSZGET", err)
	}
	return bs, nil
}
