//go:build !gpt_fixedbuf

package gpt

import "github.com/pkg/errors"

// scratch is the working buffer used while reading tables. This build grows
// it on demand up to a limit.
type scratch struct {
	buf   []byte
	limit int
}

func newScratch(limit int) *scratch {
	return &scratch{buf: make([]byte, DefaultTableSize), limit: limit}
}

// get returns a slice of exactly n bytes backed by the scratch buffer.
func (s *scratch) get(n int) ([]byte, error) {
	if n > s.limit {
		return nil, errors.Wrapf(ErrAlloc, "need %d bytes, limit %d", n, s.limit)
	}
	if n > len(s.buf) {
		s.buf = make([]byte, n)
	}
	return s.buf[:n], nil
}
