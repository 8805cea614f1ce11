// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nettrace

// FieldTypeCode identifies the wire type of a metadata field definition.
// Values match the .NET TraceEvent TypeCode enumeration used by the
// EventPipe metadata format.
type FieldTypeCode uint32

const (
	FieldTypeEmpty    FieldTypeCode = 0
	FieldTypeObject   FieldTypeCode = 1
	FieldTypeDBNull   FieldTypeCode = 2
	FieldTypeBoolean  FieldTypeCode = 3
	FieldTypeChar     FieldTypeCode = 4
	FieldTypeSByte    FieldTypeCode = 5
	FieldTypeByte     FieldTypeCode = 6
	FieldTypeInt16    FieldTypeCode = 7
	FieldTypeUInt16   FieldTypeCode = 8
	FieldTypeInt32    FieldTypeCode = 9
	FieldTypeUInt32   FieldTypeCode = 10
	FieldTypeInt64    FieldTypeCode = 11
	FieldTypeUInt64   FieldTypeCode = 12
	FieldTypeSingle   FieldTypeCode = 13
	FieldTypeDouble   FieldTypeCode = 14
	FieldTypeDecimal  FieldTypeCode = 15
	FieldTypeDateTime FieldTypeCode = 16
	FieldTypeString   FieldTypeCode = 18
	FieldTypeArray    FieldTypeCode = 19
)

// FieldDefinition is one entry in an event schema's field layout. Array
// fields carry their element type in ArrayElementType; Object fields
// (and array-of-Object fields) carry their nested layout in Nested.
type FieldDefinition struct {
	Type             FieldTypeCode
	ArrayElementType FieldTypeCode // valid only when Type == FieldTypeArray
	Nested           *FieldLayout  // set when Type or ArrayElementType == FieldTypeObject
	Name             string
}

// FieldLayout is an ordered list of field definitions, either an event's
// top-level payload layout or a nested object's layout.
type FieldLayout struct {
	Fields []FieldDefinition
}

// EventSchema is a metadata definition: everything known about an event
// id ahead of decoding any instance of it.
type EventSchema struct {
	ID           uint32
	ProviderName string
	EventID      uint32
	EventName    string
	Keywords     uint64
	Version      uint32
	Level        uint32
	Opcode       *uint8
	Fields       FieldLayout
}

const (
	metadataTagInvalid  = 0
	metadataTagOpCode   = 1
	metadataTagV2Params = 2
)

// metadataRegistry holds every EventSchema seen so far, keyed by
// metadata id. Id 0 is reserved by the format (a metadata blob with id 0
// defines a metadata-definition event itself, never an ordinary event)
// and is never looked up by Parser.yieldBlob.
type metadataRegistry struct {
	schemas map[uint32]*EventSchema
}

func newMetadataRegistry() *metadataRegistry {
	return &metadataRegistry{schemas: make(map[uint32]*EventSchema)}
}

func (r *metadataRegistry) lookup(id uint32) (*EventSchema, bool) {
	s, ok := r.schemas[id]
	return s, ok
}

// define parses one metadata blob payload (the body of a single blob
// inside a MetadataBlock) and stores the resulting schema, overwriting
// any prior definition under the same id.
func (r *metadataRegistry) define(payload []byte) error {
	d := NewPayloadDecoder(payload)

	id := d.U32()
	provider := d.UTF16CString()
	eventID := d.U32()
	eventName := d.UTF16CString()
	keywords := d.U64()
	version := d.U32()
	level := d.U32()

	fields, err := readFieldLayout(d)
	if err != nil {
		return err
	}

	schema := &EventSchema{
		ID:           id,
		ProviderName: provider,
		EventID:      eventID,
		EventName:    eventName,
		Keywords:     keywords,
		Version:      version,
		Level:        level,
		Fields:       fields,
	}

	// Zero or more tagged extensions follow until the payload is
	// exhausted: an opcode byte, or a replacement v2 field layout. The
	// size field preceding each tag is not trustworthy framing (the
	// .NET writer leaves it as junk in some builds), so an unrecognized
	// tag is simply left unskipped; the loop relies on d.Len() and the
	// payload's own bounds, never on size.
	for d.Len() > 0 && d.Err() == nil {
		d.U32() // size: not used for framing, see above
		tag := d.U8()
		switch tag {
		case metadataTagOpCode:
			opcode := d.U8()
			schema.Opcode = &opcode
		case metadataTagV2Params:
			if len(schema.Fields.Fields) != 0 {
				return errMalformed("metadata id %d: v2 field layout tag seen but v1 layout was not empty", id)
			}
			v2, err := readFieldLayout(d)
			if err != nil {
				return err
			}
			schema.Fields = v2
		}
	}
	if err := d.Err(); err != nil {
		return err
	}

	r.schemas[id] = schema
	return nil
}

func readFieldLayout(d *PayloadDecoder) (FieldLayout, error) {
	count := d.U32()
	layout := FieldLayout{Fields: make([]FieldDefinition, 0, count)}
	for i := uint32(0); i < count; i++ {
		fd, err := readFieldDefinition(d)
		if err != nil {
			return FieldLayout{}, err
		}
		layout.Fields = append(layout.Fields, fd)
	}
	if err := d.Err(); err != nil {
		return FieldLayout{}, err
	}
	return layout, nil
}

func readFieldDefinition(d *PayloadDecoder) (FieldDefinition, error) {
	typeCode := FieldTypeCode(d.U32())
	var fd FieldDefinition
	fd.Type = typeCode

	if typeCode == FieldTypeArray {
		fd.ArrayElementType = FieldTypeCode(d.U32())
	}

	if typeCode == FieldTypeObject || fd.ArrayElementType == FieldTypeObject {
		nested, err := readFieldLayout(d)
		if err != nil {
			return FieldDefinition{}, err
		}
		fd.Nested = &nested
	}

	fd.Name = d.UTF16CString()
	return fd, d.Err()
}
