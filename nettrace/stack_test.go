// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeStackBlock(firstID uint32, stacks [][]uint64) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, firstID)
	binary.Write(&buf, binary.LittleEndian, uint32(len(stacks)))
	for _, addrs := range stacks {
		binary.Write(&buf, binary.LittleEndian, uint32(len(addrs)*8))
		for _, a := range addrs {
			binary.Write(&buf, binary.LittleEndian, a)
		}
	}
	return buf.Bytes()
}

func TestStackTableReadAndLookup(t *testing.T) {
	table := newStackTable()
	body := encodeStackBlock(5, [][]uint64{
		{0x1000, 0x2000, 0x3000},
		{0x4000},
	})
	require.NoError(t, table.readStackBlock(body))

	require.Equal(t, []uint64{0x1000, 0x2000, 0x3000}, table.lookup(5))
	require.Equal(t, []uint64{0x4000}, table.lookup(6))
	require.Nil(t, table.lookup(999))
}

func TestStackTableEmptyBlock(t *testing.T) {
	table := newStackTable()
	body := encodeStackBlock(0, nil)
	require.NoError(t, table.readStackBlock(body))
	require.Nil(t, table.lookup(0))
}
