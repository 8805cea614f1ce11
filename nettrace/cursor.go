// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

import (
	"bufio"
	"io"
)

// cursor wraps a bufio.Reader with a running byte offset of the bytes
// consumed so far; nothing in this package reads the offset. The parser
// is a pure forward-streaming reader: it never seeks.
type cursor struct {
	*bufio.Reader
	off int64
}

func newCursor(r io.Reader) *cursor {
	if br, ok := r.(*bufio.Reader); ok {
		return &cursor{Reader: br}
	}
	return &cursor{Reader: bufio.NewReaderSize(r, 32<<10)}
}

func (c *cursor) Read(p []byte) (n int, err error) {
	n, err = c.Reader.Read(p)
	c.off += int64(n)
	return
}

func (c *cursor) ReadByte() (b byte, err error) {
	b, err = c.Reader.ReadByte()
	if err == nil {
		c.off++
	}
	return
}

func (c *cursor) readFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *cursor) discard(n int) error {
	_, err := io.CopyN(io.Discard, c, int64(n))
	return err
}
