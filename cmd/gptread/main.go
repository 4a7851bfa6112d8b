package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gptread/internal/compress"
)

type globalFlags struct {
	blockSize   int
	backend     string
	compression string
	verbose     bool
}

func newCmd() *cobra.Command {
	var g globalFlags
	cmd := &cobra.Command{
		Use:               "gptread",
		Short:             "inspect GUID partition tables",
		Long:              `Read-only inspection of GPT disks, block devices and (compressed) disk images.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.verbose {
				log.SetLevel(log.DebugLevel)
			}
			switch g.backend {
			case "file", "mmap":
			default:
				return fmt.Errorf("unknown backend %q, want file or mmap", g.backend)
			}
			if g.blockSize < 0 {
				return fmt.Errorf("negative block size %d", g.blockSize)
			}
			return nil
		},
	}

	cmd.AddCommand(headerCmd(&g))
	cmd.AddCommand(listCmd(&g))
	cmd.AddCommand(findCmd(&g))
	cmd.AddCommand(extractCmd(&g))
	cmd.AddCommand(browseCmd(&g))

	cmd.PersistentFlags().IntVar(&g.blockSize, "block-size", 0, "Logical block size in bytes, 0 probes the device")
	cmd.PersistentFlags().StringVar(&g.backend, "backend", "file", "How uncompressed images are read: file or mmap")
	cmd.PersistentFlags().StringVar(&g.compression, "compression", "auto", fmt.Sprintf("Image compression: auto or one of %v", compress.Names()))
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gptread:", err)
		os.Exit(2)
	}
}
