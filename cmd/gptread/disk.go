package main

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"gptread/blockdev"
	"gptread/gpt"
	"gptread/internal/compress"
)

type disk = gpt.Disk[*blockdev.Device]

// openDevice picks a block device for path. Compressed images are inflated
// into memory, everything else goes through the selected backend.
func openDevice(g *globalFlags, path string) (*blockdev.Device, error) {
	if c := compress.Normalize(g.compression); c != "none" {
		kind, err := sniff(path)
		if err != nil {
			return nil, err
		}
		if c != "auto" || kind != "none" {
			return blockdev.OpenImage(path, g.blockSize, g.compression)
		}
	}
	if g.backend == "mmap" {
		return blockdev.OpenMmap(path, g.blockSize)
	}
	return blockdev.OpenFile(path, g.blockSize)
}

// sniff reads the first block of path and reports its compression.
func sniff(path string) (string, error) {
	d, err := blockdev.OpenFile(path, blockdev.DefaultBlockSize)
	if err != nil {
		return "", err
	}
	defer d.Close()
	buf := make([]byte, 16)
	n, _ := d.ReadAt(buf, 0)
	return compress.Detect(buf[:n]), nil
}

// openDisk opens the GPT on path. A disk with one broken header copy is still
// returned, after a warning.
func openDisk(g *globalFlags, path string) (*disk, error) {
	dev, err := openDevice(g, path)
	if err != nil {
		return nil, err
	}
	d, err := gpt.Open(dev, gpt.WithLogger(log.StandardLogger()))
	var broken *gpt.BrokenHeaderError[*blockdev.Device]
	if errors.As(err, &broken) {
		log.WithField("path", path).Warnf("%v; using the %s header", broken, other(broken.Broken))
		return broken.Disk, nil
	}
	if err != nil {
		dev.Close()
		return nil, err
	}
	return d, nil
}

func other(t gpt.HeaderType) gpt.HeaderType {
	if t == gpt.Primary {
		return gpt.Backup
	}
	return gpt.Primary
}

func closeDisk(d *disk) {
	if err := d.Release().Close(); err != nil {
		log.Debugf("close: %v", err)
	}
}
