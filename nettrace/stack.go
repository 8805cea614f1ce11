// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

// stackTable maps a stack-id to its resolved address vector, populated
// by every StackBlock encountered in the stream. Unlike the metadata
// registry, stacks are assigned sequential ids starting at a block's
// first_id rather than carrying an explicit id per entry.
type stackTable struct {
	stacks map[uint32][]uint64
}

func newStackTable() *stackTable {
	return &stackTable{stacks: make(map[uint32][]uint64)}
}

func (t *stackTable) lookup(id uint32) []uint64 {
	return t.stacks[id]
}

// readStackBlock parses a StackBlock body (after the EventBlock-style
// size/header the caller has already consumed) and records each stack
// under its sequential id.
func (t *stackTable) readStackBlock(body []byte) error {
	d := NewPayloadDecoder(body)
	firstID := d.U32()
	count := d.U32()
	for i := uint32(0); i < count; i++ {
		size := d.U32()
		addrs := make([]uint64, size/8)
		for j := range addrs {
			addrs[j] = d.U64()
		}
		if err := d.Err(); err != nil {
			return err
		}
		t.stacks[firstID+i] = addrs
	}
	return d.Err()
}
