// Package browse is a two-pane terminal browser for an opened GPT disk: the
// partition list on the left and details of the selected entry on the right.
package browse

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"gptread/gpt"
	"gptread/gpt/types"
)

// Disk is what the browser shows.
type Disk struct {
	Path    string
	Header  gpt.Header
	Entries []gpt.Entry
	Device  gpt.BlockDevice
}

// fixed column widths of the partition list
const (
	colIdxWidth  = 4
	colNameWidth = 18
	colSizeWidth = 10
	colTypeWidth = 22
)

// dumpBlocks is how much of a partition F3 shows.
const dumpBlocks = 8

type browser struct {
	app     *tview.Application
	pages   *tview.Pages
	grid    *tview.Grid
	header  *tview.TextView
	list    *tview.TextView
	details *tview.TextView
	footer  *tview.TextView

	disk  *Disk
	index int
}

// Run shows d until the user quits.
func Run(d *Disk) error {
	b := newBrowser(d)
	b.bindKeys()
	b.pages.AddAndSwitchToPage("main", b.grid, true)
	b.app.SetRoot(b.pages, true)
	b.app.SetFocus(b.list)
	return b.app.Run()
}

func newBrowser(d *Disk) *browser {
	b := &browser{
		app:     tview.NewApplication(),
		pages:   tview.NewPages(),
		grid:    tview.NewGrid(),
		header:  tview.NewTextView(),
		list:    tview.NewTextView(),
		details: tview.NewTextView(),
		footer:  tview.NewTextView(),
		disk:    d,
	}
	b.style()
	b.layout()
	b.drawHeader()
	b.drawList()
	b.drawDetails()
	return b
}

func (b *browser) style() {
	tview.Styles.PrimitiveBackgroundColor = tcell.ColorNavy
	tview.Styles.ContrastBackgroundColor = tcell.ColorBlue
	tview.Styles.BorderColor = tcell.ColorSkyblue
	tview.Styles.PrimaryTextColor = tcell.ColorWhite

	b.header.SetBorder(true)
	b.header.SetDynamicColors(true)
	b.header.SetTitle(" gptread ")
	b.header.SetTitleColor(tcell.ColorSkyblue)

	b.footer.SetBorder(true)
	b.footer.SetDynamicColors(true)
	fmt.Fprint(b.footer, footerText())

	for _, tv := range []*tview.TextView{b.list, b.details} {
		tv.SetBorder(true)
		tv.SetTitleAlign(tview.AlignLeft)
		tv.SetBackgroundColor(tcell.ColorBlue)
		tv.SetDynamicColors(true)
	}
	b.list.SetTitle(" partitions ")
	b.list.SetScrollable(false)
	b.details.SetTitle(" entry ")
	b.details.SetScrollable(true)
}

func footerText() string {
	lbl := func(fn, t string) string { return fmt.Sprintf("[black:white] %s [-:-:-] [yellow]%s[-]", fn, t) }
	return strings.Join([]string{
		lbl("F1", "Help"),
		lbl("F2", "Header"),
		lbl("F3", "Dump"),
		lbl("F10", "Quit"),
	}, "  ")
}

func (b *browser) layout() {
	b.grid.SetRows(3, 0, 3).SetColumns(0).SetBorders(false)
	center := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(b.list, 0, 3, true).
		AddItem(b.details, 0, 2, false)
	b.grid.AddItem(b.header, 0, 0, 1, 1, 0, 0, false)
	b.grid.AddItem(center, 1, 0, 1, 1, 0, 0, true)
	b.grid.AddItem(b.footer, 2, 0, 1, 1, 0, 0, false)
}

func (b *browser) drawHeader() {
	h := b.disk.Header
	b.header.Clear()
	fmt.Fprintf(b.header, "[yellow]disk[-]: [white]%s[-]   [yellow]GUID[-]: [white]%s[-]   [yellow]entries[-]: [white]%d[-]",
		tview.Escape(b.disk.Path), h.DiskGUID, len(b.disk.Entries))
}

func (b *browser) drawList() {
	b.list.Clear()
	if len(b.disk.Entries) == 0 {
		fmt.Fprint(b.list, "[yellow]no partitions[-]")
		return
	}
	for i, e := range b.disk.Entries {
		line := tview.Escape(formatRow(e, b.disk.Device.BlockSize()))
		if i == b.index {
			fmt.Fprintf(b.list, "[black:teal]%s[-:-:-]\n", line)
		} else {
			fmt.Fprintf(b.list, "%s\n", line)
		}
	}
}

func (b *browser) drawDetails() {
	b.details.Clear()
	if len(b.disk.Entries) == 0 {
		return
	}
	e := b.disk.Entries[b.index]
	fmt.Fprint(b.details, tview.Escape(describe(e, b.disk.Device.BlockSize())))
	b.details.ScrollToBeginning()
}

func (b *browser) bindKeys() {
	b.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if b.pages.HasPage("modal") || b.pages.HasPage("view") {
			return ev
		}
		switch ev.Key() {
		case tcell.KeyUp:
			b.setIndex(b.index - 1)
			return nil
		case tcell.KeyDown:
			b.setIndex(b.index + 1)
			return nil
		case tcell.KeyPgUp:
			b.setIndex(b.index - 15)
			return nil
		case tcell.KeyPgDn:
			b.setIndex(b.index + 15)
			return nil
		case tcell.KeyHome:
			b.setIndex(0)
			return nil
		case tcell.KeyEnd:
			b.setIndex(len(b.disk.Entries) - 1)
			return nil
		case tcell.KeyF1:
			b.alert("F2 header  F3 dump the first blocks  F10/Esc quit\nUp/Down/PgUp/PgDn/Home/End move")
			return nil
		case tcell.KeyF2:
			b.viewText(b.disk.Header.String(), "header")
			return nil
		case tcell.KeyF3, tcell.KeyEnter:
			b.dump()
			return nil
		case tcell.KeyF10, tcell.KeyEsc:
			b.app.Stop()
			return nil
		}
		return ev
	})
}

func (b *browser) setIndex(i int) {
	n := len(b.disk.Entries)
	if n == 0 {
		return
	}
	b.index = max(0, min(i, n-1))
	b.drawList()
	b.drawDetails()
}

func (b *browser) dump() {
	if len(b.disk.Entries) == 0 {
		return
	}
	e := b.disk.Entries[b.index]
	data, err := readHead(b.disk.Device, e, dumpBlocks)
	if err != nil {
		b.alert(err.Error())
		return
	}
	b.viewText(hexDump(data, e.FirstLBA*uint64(b.disk.Device.BlockSize())), fmt.Sprintf("partition %d", e.Index))
}

func (b *browser) alert(text string) {
	m := tview.NewModal().SetText(text).AddButtons([]string{"OK"})
	b.pages.AddAndSwitchToPage("modal", m, true)
	m.SetDoneFunc(func(_ int, _ string) {
		b.pages.RemovePage("modal")
		b.app.SetFocus(b.list)
	})
}

func (b *browser) viewText(txt, title string) {
	tv := tview.NewTextView()
	tv.SetText(txt)
	tv.SetScrollable(true)
	tv.SetBorder(true)
	tv.SetTitle(fmt.Sprintf(" %s ", title))
	b.pages.AddAndSwitchToPage("view", tv, true)
	tv.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEsc || ev.Key() == tcell.KeyF10 {
			b.pages.RemovePage("view")
			b.app.SetFocus(b.list)
			return nil
		}
		return ev
	})
}

func pad(s string, w int) string {
	if len(s) > w {
		return s[:w]
	}
	return s + strings.Repeat(" ", w-len(s))
}

func typeName(g gpt.GUID) string {
	if n := types.Name(g); n != "" {
		return n
	}
	return g.String()
}

// formatRow renders one line of the partition list.
func formatRow(e gpt.Entry, blockSize int) string {
	return strings.Join([]string{
		pad(fmt.Sprint(e.Index), colIdxWidth),
		pad(e.Name(), colNameWidth),
		pad(humanize.IBytes(e.Blocks()*uint64(blockSize)), colSizeWidth),
		pad(typeName(e.Type), colTypeWidth),
	}, " ")
}

func describe(e gpt.Entry, blockSize int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Index:     %d\n", e.Index)
	fmt.Fprintf(&b, "Name:      %s\n", e.Name())
	fmt.Fprintf(&b, "Type:      %s\n", e.Type)
	if n := types.Name(e.Type); n != "" {
		fmt.Fprintf(&b, "           %s\n", n)
	}
	fmt.Fprintf(&b, "GUID:      %s\n", e.UniqueGUID)
	fmt.Fprintf(&b, "First LBA: %d\n", e.FirstLBA)
	fmt.Fprintf(&b, "Last LBA:  %d\n", e.LastLBA)
	fmt.Fprintf(&b, "Size:      %s (%d blocks)\n", humanize.IBytes(e.Blocks()*uint64(blockSize)), e.Blocks())
	fmt.Fprintf(&b, "Attrs:     %#016x\n", uint64(e.Attributes))
	var flags []string
	if e.Attributes.Required() {
		flags = append(flags, "required")
	}
	if e.Attributes.NoBlockIOProtocol() {
		flags = append(flags, "no-block-io")
	}
	if e.Attributes.LegacyBIOSBootable() {
		flags = append(flags, "legacy-bios-bootable")
	}
	if ts := e.Attributes.TypeSpecific(); ts != 0 {
		flags = append(flags, fmt.Sprintf("type-specific=%#04x", ts))
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, "           %s\n", strings.Join(flags, ", "))
	}
	return b.String()
}

// readHead reads up to n blocks from the start of e.
func readHead(dev gpt.BlockDevice, e gpt.Entry, n int) ([]byte, error) {
	count := int(min(e.Blocks(), uint64(n)))
	buf := make([]byte, count*dev.BlockSize())
	if err := dev.ReadBlocks(buf, e.FirstLBA, count); err != nil {
		return nil, err
	}
	return buf, nil
}

func hexDump(data []byte, base uint64) string {
	var out bytes.Buffer
	const cols = 16
	for i := 0; i < len(data); i += cols {
		chunk := data[i:min(i+cols, len(data))]
		fmt.Fprintf(&out, "%08x  ", base+uint64(i))
		for j := 0; j < cols; j++ {
			if j < len(chunk) {
				fmt.Fprintf(&out, "%02x ", chunk[j])
			} else {
				out.WriteString("   ")
			}
		}
		out.WriteString(" ")
		for _, c := range chunk {
			if c >= 32 && c < 127 {
				out.WriteByte(c)
			} else {
				out.WriteByte('.')
			}
		}
		out.WriteByte('\n')
	}
	return out.String()
}
