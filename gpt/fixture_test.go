package gpt

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"gptread/internal/gpttest"
)

var (
	testTypeEFI   = MustParseGUID("C12A7328-F81F-11D2-BA4B-00A0C93EC93B")
	testTypeLinux = MustParseGUID("0FC63DAF-8483-4772-8E79-3D69D8477DE4")
	testTypeSwap  = MustParseGUID("0657FD6D-A4AB-43C4-84E5-0933C84B4F4F")
	testTypeMS    = MustParseGUID("EBD0A0A2-B9E5-4433-87C0-68B6B72699C7")
	testDiskGUID  = MustParseGUID("5A5F4E2C-1B3D-4E6F-8A9B-0C1D2E3F4A5B")
)

func defaultLayout() gpttest.Layout {
	s := gpttest.DefaultLayout()
	s.Parts = []gpttest.Part{
		{Index: 0, Type: testTypeEFI, GUID: MustParseGUID("11111111-2222-3333-4444-555555555555"), First: 34, Last: 49, Attrs: AttrRequired, Name: "EFI system"},
		{Index: 1, Type: testTypeLinux, GUID: MustParseGUID("66666666-7777-8888-9999-AAAAAAAAAAAA"), First: 50, Last: 79, Name: "root"},
		{Index: 3, Type: testTypeSwap, GUID: MustParseGUID("BBBBBBBB-CCCC-DDDD-EEEE-FFFFFFFFFFFF"), First: 80, Last: 94, Attrs: 1 << 60, Name: "swap"},
	}
	return s
}

func build(t testing.TB, s gpttest.Layout) *gpttest.Image {
	t.Helper()
	img, err := gpttest.Build(s)
	require.NoError(t, err)
	return img
}

func device(img *gpttest.Image) *memDevice {
	return &memDevice{bs: img.Layout.BlockSize, data: img.Data}
}

type readCall struct {
	lba   uint64
	count int
}

// memDevice is a BlockDevice over a byte slice that records every read.
type memDevice struct {
	bs    int
	data  []byte
	reads []readCall
	fail  map[uint64]error
}

func (m *memDevice) BlockSize() int { return m.bs }

func (m *memDevice) ReadBlocks(dst []byte, lba uint64, count int) error {
	m.reads = append(m.reads, readCall{lba, count})
	if err, ok := m.fail[lba]; ok {
		return err
	}
	n := count * m.bs
	if len(dst) < n {
		return fmt.Errorf("memdevice: destination holds %d bytes, need %d", len(dst), n)
	}
	off := lba * uint64(m.bs)
	if off+uint64(n) > uint64(len(m.data)) {
		return fmt.Errorf("memdevice: read past end at LBA %d", lba)
	}
	copy(dst[:n], m.data[off:])
	return nil
}
