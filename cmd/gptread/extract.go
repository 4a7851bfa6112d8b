package main

import (
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gptread/gpt"
	"gptread/internal/compress"
)

const extractChunk = 1 << 20

func extractCmd(g *globalFlags) *cobra.Command {
	var outCompression string
	cmd := &cobra.Command{
		Use:   "extract <image> <index|name> <out>",
		Short: "copy a partition to a file",
		Long: `Copy the blocks of one partition to a file, optionally compressing them.
The partition is selected by table index or by its name. An <out> of "-"
writes to stdout.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDisk(g, args[0])
			if err != nil {
				return err
			}
			defer closeDisk(d)
			e, err := selectPartition(d, args[1])
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if args[2] != "-" {
				f, err := os.Create(args[2])
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			w, err := compress.NewWriter(outCompression, out)
			if err != nil {
				return err
			}
			n, err := extract(w, d.Device(), e)
			if err != nil {
				w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			log.WithFields(log.Fields{"partition": e.Index, "bytes": n, "codec": outCompression}).Info("extracted")
			return nil
		},
	}
	cmd.Flags().StringVar(&outCompression, "output-compression", "none", "Compress the extracted partition with this codec")
	return cmd
}

// selectPartition resolves an index or partition name to an entry.
func selectPartition(d *disk, sel string) (gpt.Entry, error) {
	if idx, err := strconv.ParseUint(sel, 10, 32); err == nil {
		e, err := d.Entry(uint32(idx))
		if err != nil {
			return e, err
		}
		if e.Type.IsZero() {
			return e, errors.Wrapf(gpt.ErrNotFound, "entry %d is unused", idx)
		}
		return e, nil
	}
	entries, err := gpt.Entries[gpt.GUID, gpt.Attributes](d)
	if err != nil {
		return gpt.Entry{}, err
	}
	for _, e := range entries {
		if e.Name() == sel {
			return e, nil
		}
	}
	return gpt.Entry{}, errors.Wrapf(gpt.ErrNotFound, "no partition named %q", sel)
}

// extract copies the blocks of e from dev to w and returns the number of
// bytes written.
func extract(w io.Writer, dev gpt.BlockDevice, e gpt.Entry) (int64, error) {
	if e.LastLBA < e.FirstLBA {
		return 0, errors.Errorf("partition %d: last LBA %d before first LBA %d", e.Index, e.LastLBA, e.FirstLBA)
	}
	bs := dev.BlockSize()
	per := max(extractChunk/bs, 1)
	buf := make([]byte, per*bs)
	var written int64
	for lba, left := e.FirstLBA, e.Blocks(); left > 0; {
		count := int(min(left, uint64(per)))
		chunk := buf[:count*bs]
		if err := dev.ReadBlocks(chunk, lba, count); err != nil {
			return written, errors.Wrapf(err, "read LBA %d", lba)
		}
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
		lba += uint64(count)
		left -= uint64(count)
	}
	return written, nil
}
