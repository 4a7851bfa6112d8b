package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"gptread/gpt"
	"gptread/gpt/types"
	"gptread/internal/tui/browse"
)

func headerCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "header <image>",
		Short: "print the validated GPT header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDisk(g, args[0])
			if err != nil {
				return err
			}
			defer closeDisk(d)
			h := d.Header()
			fmt.Fprint(cmd.OutOrStdout(), h.String())
			return nil
		},
	}
}

func listCmd(g *globalFlags) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list <image>",
		Short: "list partitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDisk(g, args[0])
			if err != nil {
				return err
			}
			defer closeDisk(d)

			var entries []gpt.Entry
			if all {
				table, err := d.ReadTable(nil)
				if err != nil {
					return err
				}
				h := d.Header()
				for idx := uint32(0); idx < h.NumberOfPartitionEntries; idx++ {
					e, err := gpt.PartitionFromTable[gpt.GUID, gpt.Attributes](d, table, idx)
					if err != nil {
						return err
					}
					entries = append(entries, e)
				}
			} else if entries, err = gpt.Entries[gpt.GUID, gpt.Attributes](d); err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), d.Device().BlockSize(), entries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include unused entries")
	return cmd
}

func findCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "find <image> <type>",
		Short: "print the first partition of a type",
		Long: `Print the first partition whose type matches. The type is either a GUID
or a well-known name such as "EFI System" or "Linux filesystem".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := parseType(args[1])
			if err != nil {
				return err
			}
			d, err := openDisk(g, args[0])
			if err != nil {
				return err
			}
			defer closeDisk(d)
			e, err := d.FindType(typ)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), d.Device().BlockSize(), []gpt.Entry{e})
			return nil
		},
	}
}

func browseCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <image>",
		Short: "browse partitions in a terminal UI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDisk(g, args[0])
			if err != nil {
				return err
			}
			defer closeDisk(d)
			entries, err := gpt.Entries[gpt.GUID, gpt.Attributes](d)
			if err != nil {
				return err
			}
			return browse.Run(&browse.Disk{
				Path:    args[0],
				Header:  d.Header(),
				Entries: entries,
				Device:  d.Device(),
			})
		},
	}
}

func parseType(s string) (gpt.GUID, error) {
	if g, ok := types.Lookup(s); ok {
		return g, nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return gpt.GUID{}, errors.Wrapf(err, "partition type %q", s)
	}
	return gpt.GUIDFromUUID(u), nil
}

func typeName(g gpt.GUID) string {
	if n := types.Name(g); n != "" {
		return n
	}
	return g.String()
}

func printEntries(w io.Writer, blockSize int, entries []gpt.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IDX\tFIRST\tLAST\tSIZE\tATTRS\tTYPE\tNAME")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%#x\t%s\t%s\n",
			e.Index, e.FirstLBA, e.LastLBA,
			humanize.IBytes(e.Blocks()*uint64(blockSize)),
			uint64(e.Attributes), typeName(e.Type), strconv.Quote(e.Name()))
	}
	tw.Flush()
}
