// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

import "io"

const (
	typeNameTrace         = "Trace"
	typeNameMetadataBlock = "MetadataBlock"
	typeNameStackBlock    = "StackBlock"
	typeNameSPBlock       = "SPBlock"
	typeNameEventBlock    = "EventBlock"
)

// A Parser is an iterator over the normalized events in a .nettrace
// stream.
//
// Typical usage is
//
//	p, err := nettrace.Open(r)
//	for p.Next() {
//	  meta, event := p.Metadata(), p.Event()
//	  switch e := event.(type) {
//	    ...
//	  }
//	}
//	if err := p.Err(); err != nil { ... }
//
// Once Err returns non-nil, the Parser must not be polled again; its
// internal state is not guaranteed to be consistent afterward.
type Parser struct {
	c *cursor

	metadata *metadataRegistry
	stacks   *stackTable

	traceInfo     TraceInfo
	haveTraceInfo bool

	active *eventBlockIterator

	err  error
	done bool

	// The current event, set by Next.
	meta  EventMetadata
	event NormalizedEvent
}

// Open begins parsing a .nettrace stream from r, validating the file
// magic. It does not yet parse the Trace object; that happens lazily on
// the first call to TraceInfo or Next.
func Open(r io.Reader) (*Parser, error) {
	c := newCursor(r)
	if err := readMagic(c); err != nil {
		return nil, err
	}
	return &Parser{
		c:        c,
		metadata: newMetadataRegistry(),
		stacks:   newStackTable(),
	}, nil
}

// Err returns the first error encountered by the Parser.
func (p *Parser) Err() error {
	return p.err
}

// Metadata returns the metadata of the event most recently produced by
// Next.
func (p *Parser) Metadata() EventMetadata {
	return p.meta
}

// Event returns the event most recently produced by Next.
func (p *Parser) Event() NormalizedEvent {
	return p.event
}

// TraceInfo returns the stream's trace-info object, parsing up to it if
// necessary. A stream has exactly one, and it is always the first
// object.
func (p *Parser) TraceInfo() (TraceInfo, error) {
	for !p.haveTraceInfo {
		if p.err != nil {
			return TraceInfo{}, p.err
		}
		if p.done {
			return TraceInfo{}, errMalformed("stream ended before a Trace object was seen")
		}
		if !p.advance(false) {
			if p.err == nil {
				p.err = errMalformed("stream ended before a Trace object was seen")
			}
			return TraceInfo{}, p.err
		}
	}
	return p.traceInfo, nil
}

// Next fetches the next normalized event into the Parser. It returns
// true if successful, and false if it reaches the end of the stream or
// encounters an error; the two are distinguished by Err.
//
// Each event's Stack slice is a copy owned by that event, so callers
// may retain events across later calls to Next.
func (p *Parser) Next() bool {
	for {
		if p.err != nil || p.done {
			return false
		}
		if p.advance(true) {
			return true
		}
		if p.err != nil || p.done {
			return false
		}
		// advance returned false with no error and no event: an
		// object that didn't decode into a yieldable event (Trace,
		// MetadataBlock, StackBlock, SPBlock, or an unrecognized
		// CoreCLR event within an EventBlock). Keep pulling.
	}
}

// advance does one unit of work: either pulling the next blob from an
// active EventBlock, or reading the next top-level object. It returns
// true if it produced an event (wantEvent == true only). With
// wantEvent == false it is used by TraceInfo to pump the stream without
// caring whether any particular step yielded an event.
func (p *Parser) advance(wantEvent bool) bool {
	if p.active != nil {
		hdr, payload, ok, err := p.active.next()
		if err != nil {
			p.err = err
			return false
		}
		if !ok {
			p.active = nil
			if err := readObjectEnd(p.c); err != nil {
				p.err = err
				return false
			}
			return false
		}
		return p.yieldBlob(hdr, payload, wantEvent)
	}

	ot, err := beginObjectOrEnd(p.c)
	if err != nil {
		p.err = err
		return false
	}
	if ot == nil {
		p.done = true
		return false
	}

	switch ot.name {
	case typeNameTrace:
		info, err := readTraceObject(p.c)
		if err != nil {
			p.err = err
			return false
		}
		p.traceInfo = info
		p.haveTraceInfo = true
		return false

	case typeNameMetadataBlock:
		if err := p.readBlockInto(func(hdr eventBlobHeader, payload []byte) error {
			return p.metadata.define(payload)
		}); err != nil {
			p.err = err
		}
		return false

	case typeNameStackBlock:
		if err := p.readStackBlock(); err != nil {
			p.err = err
		}
		return false

	case typeNameSPBlock:
		if err := p.skipSPBlock(); err != nil {
			p.err = err
		}
		return false

	case typeNameEventBlock:
		size, hdr, err := readEventBlockHeader(p.c)
		if err != nil {
			p.err = err
			return false
		}
		body, err := p.c.readFull(int(size) - int(hdr.HeaderSize))
		if err != nil {
			p.err = errIO(err)
			return false
		}
		p.active = newEventBlockIterator(body, hdr)
		return p.advance(wantEvent)

	default:
		p.err = errUnknownObjectType(ot.name)
		return false
	}
}

// yieldBlob resolves a blob pulled from an active EventBlock against
// the metadata and stack registries and, if it normalizes to a known
// CoreCLR event, stores it as the current event.
func (p *Parser) yieldBlob(hdr eventBlobHeader, payload []byte, wantEvent bool) bool {
	if hdr.MetadataID == 0 {
		// A blob with metadata id 0 inside an EventBlock would be a
		// malformed stream (id 0 is reserved for metadata
		// definitions, which only ever appear inside MetadataBlock),
		// but mirroring the metadata-block path costs nothing and
		// keeps this tolerant of a stream that reuses the framing.
		return false
	}
	schema, ok := p.metadata.lookup(hdr.MetadataID)
	if !ok {
		p.err = errMissingMetadata(hdr.MetadataID)
		return false
	}
	stack := p.stacks.lookup(hdr.StackID)
	raw := newRawEvent(schema, hdr, stack, payload)

	if !wantEvent {
		return false
	}

	meta, event, ok := normalizeCoreClr(raw)
	if !ok {
		return false
	}
	p.meta = meta
	p.event = event
	return true
}

func (p *Parser) readStackBlock() error {
	size, hdr, err := readEventBlockHeader(p.c)
	if err != nil {
		return err
	}
	body, err := p.c.readFull(int(size) - int(hdr.HeaderSize))
	if err != nil {
		return errIO(err)
	}
	if err := p.stacks.readStackBlock(body); err != nil {
		return err
	}
	return readObjectEnd(p.c)
}

// skipSPBlock reads and discards a sequence-point block: it exists for
// external recovery tooling this package doesn't expose.
func (p *Parser) skipSPBlock() error {
	size, hdr, err := readEventBlockHeader(p.c)
	if err != nil {
		return err
	}
	if err := p.c.discard(int(size) - int(hdr.HeaderSize)); err != nil {
		return errIO(err)
	}
	return readObjectEnd(p.c)
}

// readBlockInto reads a MetadataBlock-framed object (same framing as an
// EventBlock) fully into memory and feeds every blob it contains to fn,
// then consumes the closing EndObject.
func (p *Parser) readBlockInto(fn func(eventBlobHeader, []byte) error) error {
	size, hdr, err := readEventBlockHeader(p.c)
	if err != nil {
		return err
	}
	body, err := p.c.readFull(int(size) - int(hdr.HeaderSize))
	if err != nil {
		return errIO(err)
	}
	it := newEventBlockIterator(body, hdr)
	for {
		blobHdr, payload, ok, err := it.next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := fn(blobHdr, payload); err != nil {
			return err
		}
	}
	return readObjectEnd(p.c)
}

// beginObjectOrEnd reads the next tagged object header: either a
// NullReference tag (end of stream, returns nil, nil) or a
// BeginPrivateObject tag followed by a TypeObject.
func beginObjectOrEnd(c *cursor) (*objectType, error) {
	t, err := readTag(c)
	if err != nil {
		return nil, err
	}
	switch t {
	case tagNullReference:
		return nil, nil
	case tagBeginPrivateObject:
		ot, err := readTypeObject(c)
		if err != nil {
			return nil, err
		}
		return &ot, nil
	default:
		return nil, errUnexpectedTag("BeginPrivateObject or NullReference expected")
	}
}
