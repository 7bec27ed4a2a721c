package riotest

import (
	"encoding/binary"
	"math"
)

// Payload assembles a big-endian branch payload for one entry, matching
// the wire order the row producer decodes.
type Payload struct {
	buf []byte
}

// NewPayload creates an empty payload.
func NewPayload() *Payload {
	return &Payload{}
}

// Bool appends a one-byte boolean.
func (p *Payload) Bool(v bool) *Payload {
	if v {
		return p.byteVal(1)
	}
	return p.byteVal(0)
}

// Int8 appends a signed byte.
func (p *Payload) Int8(v int8) *Payload {
	return p.byteVal(byte(v))
}

// Int16 appends a big-endian int16.
func (p *Payload) Int16(v int16) *Payload {
	return p.u16(uint16(v))
}

// Int32 appends a big-endian int32.
func (p *Payload) Int32(v int32) *Payload {
	return p.u32(uint32(v))
}

// Int64 appends a big-endian int64.
func (p *Payload) Int64(v int64) *Payload {
	return p.u64(uint64(v))
}

// Uint8 appends an unsigned byte.
func (p *Payload) Uint8(v uint8) *Payload {
	return p.byteVal(v)
}

// Uint16 appends a big-endian uint16.
func (p *Payload) Uint16(v uint16) *Payload {
	return p.u16(v)
}

// Uint32 appends a big-endian uint32.
func (p *Payload) Uint32(v uint32) *Payload {
	return p.u32(v)
}

// Uint64 appends a big-endian uint64.
func (p *Payload) Uint64(v uint64) *Payload {
	return p.u64(v)
}

// Float32 appends a big-endian IEEE 754 float32.
func (p *Payload) Float32(v float32) *Payload {
	return p.u32(math.Float32bits(v))
}

// Float64 appends a big-endian IEEE 754 float64.
func (p *Payload) Float64(v float64) *Payload {
	return p.u64(math.Float64bits(v))
}

// Str appends a length-prefixed string: one length byte, with 0xFF
// escaping to a four-byte length for long strings.
func (p *Payload) Str(s string) *Payload {
	if len(s) < 0xFF {
		p.byteVal(byte(len(s)))
	} else {
		p.byteVal(0xFF)
		p.u32(uint32(len(s)))
	}
	p.buf = append(p.buf, s...)
	return p
}

// VecLen appends the four-byte length prefix of a size-prefixed
// collection.
func (p *Payload) VecLen(n int) *Payload {
	return p.u32(uint32(n))
}

// Bytes returns the assembled payload.
func (p *Payload) Bytes() []byte {
	return p.buf
}

func (p *Payload) byteVal(b byte) *Payload {
	p.buf = append(p.buf, b)
	return p
}

func (p *Payload) u16(v uint16) *Payload {
	p.buf = binary.BigEndian.AppendUint16(p.buf, v)
	return p
}

func (p *Payload) u32(v uint32) *Payload {
	p.buf = binary.BigEndian.AppendUint32(p.buf, v)
	return p
}

func (p *Payload) u64(v uint64) *Payload {
	p.buf = binary.BigEndian.AppendUint64(p.buf, v)
	return p
}
