// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package etw

import (
	"encoding/binary"
	"testing"

	"github.com/aclements/go-nettrace/coreclr"
	"github.com/aclements/go-nettrace/nettrace"
	"github.com/stretchr/testify/require"
)

// fakeParser is a PropertyParser backed by per-field maps, built up by
// test cases with the with* helpers.
type fakeParser struct {
	u16  map[string]uint16
	u32  map[string]uint32
	u64  map[string]uint64
	str  map[string]string
	buf  map[string][]byte
	tail []byte
}

func newFakeParser() *fakeParser {
	return &fakeParser{
		u16: map[string]uint16{},
		u32: map[string]uint32{},
		u64: map[string]uint64{},
		str: map[string]string{},
		buf: map[string][]byte{},
	}
}

func (p *fakeParser) withU32(field string, v uint32) *fakeParser {
	p.u32[field] = v
	return p
}

func (p *fakeParser) withU64(field string, v uint64) *fakeParser {
	p.u64[field] = v
	return p
}

func (p *fakeParser) withStr(field string, v string) *fakeParser {
	p.str[field] = v
	return p
}

func (p *fakeParser) ParseUint16(field string) uint16 { return p.u16[field] }
func (p *fakeParser) ParseUint32(field string) uint32 { return p.u32[field] }
func (p *fakeParser) ParseUint64(field string) uint64 { return p.u64[field] }
func (p *fakeParser) ParseString(field string) string { return p.str[field] }

func (p *fakeParser) TryParseUint16(field string) (uint16, bool) {
	v, ok := p.u16[field]
	return v, ok
}

func (p *fakeParser) TryParseUint32(field string) (uint32, bool) {
	v, ok := p.u32[field]
	return v, ok
}

func (p *fakeParser) TryParseUint64(field string) (uint64, bool) {
	v, ok := p.u64[field]
	return v, ok
}

func (p *fakeParser) ParseBytes(field string) []byte { return p.buf[field] }
func (p *fakeParser) Buffer() []byte                 { return p.tail }

func TestAdapterIngestUnknownProvider(t *testing.T) {
	a := NewAdapter()
	meta, event, ok := a.Ingest("SomeOtherProvider/Task/Opcode", 1, 1, 1, newFakeParser())
	require.False(t, ok)
	require.Nil(t, event)
	require.Zero(t, meta)
}

func TestAdapterIngestAndStackAttach(t *testing.T) {
	a := NewAdapter()

	p := newFakeParser().
		withU64("ModuleID", 0xAA).
		withU64("MethodStartAddress", 0x7fff0000).
		withU32("MethodSize", 64).
		withStr("MethodName", "Bar").
		withStr("MethodNamespace", "Foo").
		withStr("MethodSignature", "()V")

	meta, event, ok := a.Ingest("Microsoft-Windows-DotNETRuntime/CLRMethod/MethodLoadVerbose", 1000, 5, 100, p)
	require.False(t, ok, "first event on a thread should not flush anything")
	require.Nil(t, event)
	require.Zero(t, meta)

	stackAddrs := []uint64{0x1000, 0x2000, 0x3000}
	tail := make([]byte, 8)
	binary.LittleEndian.PutUint64(tail, stackAddrs[2])
	head := make([]byte, 16)
	binary.LittleEndian.PutUint64(head[0:8], stackAddrs[0])
	binary.LittleEndian.PutUint64(head[8:16], stackAddrs[1])

	sp := newFakeParser()
	sp.buf["Stack"] = head
	sp.tail = tail

	gotMeta, gotEvent, ok := a.Ingest("Microsoft-Windows-DotNETRuntime/CLRStack/CLRStackWalk", 0, 5, 100, sp)
	require.True(t, ok)
	require.Equal(t, stackAddrs, gotMeta.Stack)

	load, ok := gotEvent.(nettrace.NormalizedMethodLoad)
	require.True(t, ok)
	require.EqualValues(t, 0xAA, load.ModuleID)
	require.EqualValues(t, 0x7fff0000, load.StartAddress)
	require.Equal(t, "Bar", load.Name.Name)
}

func TestAdapterIngestDisplacesUnattached(t *testing.T) {
	a := NewAdapter()

	first := newFakeParser().withU64("ModuleID", 1).withU64("AssemblyID", 2).
		withStr("ModuleILPath", "/a").withStr("ModuleNativePath", "/a.ni")
	_, _, ok := a.Ingest("Microsoft-Windows-DotNETRuntime/CLRLoader/ModuleLoad", 1, 1, 7, first)
	require.False(t, ok)

	second := newFakeParser().withU64("ModuleID", 3).withU64("AssemblyID", 4).
		withStr("ModuleILPath", "/b").withStr("ModuleNativePath", "/b.ni")
	meta, event, ok := a.Ingest("Microsoft-Windows-DotNETRuntime/CLRLoader/ModuleLoad", 2, 1, 7, second)
	require.True(t, ok, "second event on the same thread should flush the first unattached")
	require.EqualValues(t, 1, meta.Timestamp)

	load, ok := event.(nettrace.NormalizedModuleLoad)
	require.True(t, ok)
	require.EqualValues(t, 1, load.ModuleID)
}

func TestAdapterDrain(t *testing.T) {
	a := NewAdapter()
	p := newFakeParser().withU32("Reason", 1)
	_, _, ok := a.Ingest("Microsoft-Windows-DotNETRuntime/GarbageCollection/Triggered", 1, 1, 9, p)
	require.False(t, ok)

	drained := a.Drain()
	require.Len(t, drained, 1)
	_, isTriggered := drained[0].Event.(nettrace.NormalizedGcTriggered)
	require.True(t, isTriggered)

	require.Empty(t, a.Drain())
}

func TestDecodeGcAllocationTickPrefersTypeName(t *testing.T) {
	p := newFakeParser().
		withU32("AllocationKind", uint32(coreclr.GcAllocationKindSmall)).
		withU32("AllocationAmount", 100).
		withStr("TypeName", "System.String")

	ev, ok := decodeGcEvent("GCAllocationTick", p)
	require.True(t, ok)
	tick := ev.(nettrace.NormalizedGcAllocationTick)
	require.Equal(t, "System.String", tick.TypeName)
	require.EqualValues(t, 100, tick.Size)
}

func TestDecodeGcAllocationTickFallsBackToTypeID(t *testing.T) {
	p := newFakeParser().
		withU32("AllocationKind", uint32(coreclr.GcAllocationKindLarge)).
		withU32("AllocationAmount", 50).
		withU64("TypeID", 77)

	ev, ok := decodeGcEvent("GCAllocationTick", p)
	require.True(t, ok)
	tick := ev.(nettrace.NormalizedGcAllocationTick)
	require.Equal(t, "Type[77]", tick.TypeName)
}

func TestMethodNameFromSynthesizesWhenEmpty(t *testing.T) {
	p := newFakeParser().withU64("MethodStartAddress", 0xdead)
	name := methodNameFrom(p)
	require.Equal(t, "JIT[0xdead]", name.Name)
}
