package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// widthCodec reads and writes an unsigned big-endian integer of one fixed width
type widthCodec struct {
	width int
	max   uint64
	read  func(b []byte) uint64
	write func(b []byte, v uint64)
}

// widthCodecs is the closed set of integer widths a template may declare
var widthCodecs = map[int]widthCodec{
	1: {
		width: 1,
		max:   math.MaxUint8,
		read:  func(b []byte) uint64 { return uint64(b[0]) },
		write: func(b []byte, v uint64) { b[0] = byte(v) },
	},
	2: {
		width: 2,
		max:   math.MaxUint16,
		read:  func(b []byte) uint64 { return uint64(binary.BigEndian.Uint16(b)) },
		write: func(b []byte, v uint64) { binary.BigEndian.PutUint16(b, uint16(v)) },
	},
	4: {
		width: 4,
		max:   math.MaxUint32,
		read:  func(b []byte) uint64 { return uint64(binary.BigEndian.Uint32(b)) },
		write: func(b []byte, v uint64) { binary.BigEndian.PutUint32(b, uint32(v)) },
	},
	8: {
		width: 8,
		max:   math.MaxUint64,
		read:  binary.BigEndian.Uint64,
		write: binary.BigEndian.PutUint64,
	},
}

// StringField declares an optional length-prefixed string
type StringField struct {
	Name string
	Ref  func(m *Message) **string
}

// IntegerField declares an optional fixed-width unsigned integer
type IntegerField struct {
	Name  string
	Width int
	Get   func(m *Message) (uint64, bool)
	Set   func(m *Message, v uint64)
}

// BooleanField declares an optional boolean stored in the trailing boolean block
type BooleanField struct {
	Name string
	Ref  func(m *Message) **bool
}

// TemplateSpec is the declarative form of a message template
type TemplateSpec struct {
	BitmaskBytes int
	Strings      []StringField
	Integers     []IntegerField
	Booleans     []BooleanField
	BooleanBytes int
}

type resolvedInteger struct {
	IntegerField
	codec widthCodec
}

// Template is a validated schema with width codecs resolved once up front
type Template struct {
	spec     TemplateSpec
	bitmask  widthCodec
	booleans widthCodec
	integers []resolvedInteger
	fields   int
}

// NewTemplate validates a TemplateSpec and resolves its field widths
func NewTemplate(spec TemplateSpec) (*Template, error) {
	bitmask, ok := widthCodecs[spec.BitmaskBytes]
	if !ok {
		return nil, fmt.Errorf("%w: bitmask width %d", ErrUnsupportedWidth, spec.BitmaskBytes)
	}
	booleans, ok := widthCodecs[spec.BooleanBytes]
	if !ok {
		return nil, fmt.Errorf("%w: boolean block width %d", ErrUnsupportedWidth, spec.BooleanBytes)
	}

	fields := len(spec.Strings) + len(spec.Integers) + len(spec.Booleans)
	if fields > spec.BitmaskBytes*8 {
		return nil, fmt.Errorf("%w: %d fields do not fit a %d-byte bitmask", ErrTemplateOverflow, fields, spec.BitmaskBytes)
	}
	if len(spec.Booleans) > spec.BooleanBytes*8 {
		return nil, fmt.Errorf("%w: %d booleans do not fit a %d-byte block", ErrTemplateOverflow, len(spec.Booleans), spec.BooleanBytes)
	}

	integers := make([]resolvedInteger, len(spec.Integers))
	for i, f := range spec.Integers {
		codec, ok := widthCodecs[f.Width]
		if !ok {
			return nil, fmt.Errorf("%w: field %s width %d", ErrUnsupportedWidth, f.Name, f.Width)
		}
		integers[i] = resolvedInteger{IntegerField: f, codec: codec}
	}

	return &Template{
		spec:     spec,
		bitmask:  bitmask,
		booleans: booleans,
		integers: integers,
		fields:   fields,
	}, nil
}

// MustTemplate is NewTemplate for package-level schemas
func MustTemplate(spec TemplateSpec) *Template {
	t, err := NewTemplate(spec)
	if err != nil {
		panic(err)
	}
	return t
}

// bit returns the presence bit for the field at declaration index idx.
// The first declared field maps to the most significant relevant bit.
func (t *Template) bit(idx int) uint64 {
	return 1 << uint(t.fields-1-idx)
}

// booleanBit returns the value bit for the boolean at index idx within the boolean block
func (t *Template) booleanBit(idx int) uint64 {
	return 1 << uint(len(t.spec.Booleans)-1-idx)
}

// MinSize is the size of a frame with no fields present
func (t *Template) MinSize() int {
	return t.spec.BitmaskBytes + t.spec.BooleanBytes
}

// MessageTemplate is the schema spoken by the game server and its clients
var MessageTemplate = MustTemplate(TemplateSpec{
	BitmaskBytes: 2,
	Strings: []StringField{
		{Name: "password", Ref: func(m *Message) **string { return &m.Password }},
		{Name: "setterId", Ref: func(m *Message) **string { return &m.SetterID }},
		{Name: "guesserId", Ref: func(m *Message) **string { return &m.GuesserID }},
		{Name: "opponents", Ref: func(m *Message) **string { return &m.Opponents }},
		{Name: "word", Ref: func(m *Message) **string { return &m.Word }},
		{Name: "hint", Ref: func(m *Message) **string { return &m.Hint }},
	},
	Integers: []IntegerField{
		{
			Name:  "kind",
			Width: 1,
			Get:   func(m *Message) (uint64, bool) { return uint64(m.Kind), m.Kind != KindUnknown },
			Set:   func(m *Message, v uint64) { m.Kind = Kind(v) },
		},
		{
			Name:  "errorKind",
			Width: 1,
			Get: func(m *Message) (uint64, bool) {
				if m.ErrorKind == nil {
					return 0, false
				}
				return uint64(*m.ErrorKind), true
			},
			Set: func(m *Message, v uint64) { m.ErrorKind = Ptr(ErrorKind(v)) },
		},
	},
	Booleans: []BooleanField{
		{Name: "status", Ref: func(m *Message) **bool { return &m.Status }},
	},
	BooleanBytes: 1,
})
