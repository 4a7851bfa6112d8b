package gpt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMBR(t *testing.T) {
	img := build(t, defaultLayout())
	buf := append([]byte{}, img.Data[:MBRSize]...)

	m, err := ParseMBR(buf)
	require.NoError(t, err)
	require.NoError(t, m.Verify())
	assert.True(t, m.IsProtective())
	assert.Equal(t, uint64(1), m.HeaderLBA())
	assert.Equal(t, uint32(127), m.Partitions[0].SizeInLBA)

	// The record is a copy: reusing the buffer must not change it.
	clear(buf)
	assert.True(t, m.IsProtective())
	assert.NoError(t, m.Verify())
}

func TestParseMBRErrors(t *testing.T) {
	t.Run("short buffer", func(t *testing.T) {
		_, err := ParseMBR(make([]byte, MBRSize-1))
		assert.ErrorIs(t, err, ErrShortBuffer)
	})

	t.Run("bad signature", func(t *testing.T) {
		buf := make([]byte, MBRSize)
		buf[510], buf[511] = 0xAA, 0x55
		m, err := ParseMBR(buf)
		require.NoError(t, err)
		assert.ErrorIs(t, m.Verify(), ErrInvalidMBRSignature)
	})

	t.Run("legacy partition", func(t *testing.T) {
		buf := make([]byte, MBRSize)
		buf[mbrRecordOffset+4] = 0x83
		buf[510], buf[511] = 0x55, 0xAA
		m, err := ParseMBR(buf)
		require.NoError(t, err)
		assert.NoError(t, m.Verify())
		assert.False(t, m.IsProtective())
	})
}
