//go:build gpt_fixedbuf

package gpt

import "github.com/pkg/errors"

// scratch is the working buffer used while reading tables. This build never
// allocates past the fixed array.
type scratch struct {
	buf [DefaultTableSize]byte
}

func newScratch(int) *scratch {
	return new(scratch)
}

// get returns a slice of exactly n bytes backed by the scratch buffer.
func (s *scratch) get(n int) ([]byte, error) {
	if n > len(s.buf) {
		return nil, errors.Wrapf(ErrCapacity, "need %d bytes, have %d", n, len(s.buf))
	}
	return s.buf[:n], nil
}
