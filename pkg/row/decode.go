package row

import (
	"encoding/binary"
	"math"

	"github.com/ajitpratap0/treescan/pkg/att"
	"github.com/ajitpratap0/treescan/pkg/errors"
)

// decodeNode decodes one ATT node from the reader. Integer primitives
// record their value in scope under the field name so later siblings
// can reference them as array counters.
func decodeNode(r *reader, n *att.Node, scope map[string]int64) (any, error) {
	switch n.Kind {
	case att.KindPrimitive:
		v, err := r.scalar(n.Scalar)
		if err != nil {
			return nil, err
		}
		if n.Scalar.IsInteger() {
			scope[n.Name] = asInt64(v)
		}
		return v, nil

	case att.KindFixedArray:
		out := make([]any, n.Len)
		for i := range out {
			v, err := decodeNode(r, n.Elem, scope)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case att.KindVarArray:
		length, err := varArrayLen(r, n, scope)
		if err != nil {
			return nil, err
		}
		out := make([]any, length)
		for i := range out {
			v, err := decodeNode(r, n.Elem, scope)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case att.KindStruct:
		out := make(map[string]any, len(n.Children))
		for _, c := range n.Children {
			v, err := decodeNode(r, c, scope)
			if err != nil {
				return nil, err
			}
			out[c.Name] = v
		}
		return out, nil

	default:
		return nil, errors.New(errors.ErrorTypeUnsupported, "cannot decode unsupported node").
			WithDetail("node", n.Name).
			WithDetail("reason", n.Reason)
	}
}

// varArrayLen resolves the element count of a variable-length array:
// either the already-decoded counter field's value, or an on-wire
// uint32 prefix for size-prefixed collections.
func varArrayLen(r *reader, n *att.Node, scope map[string]int64) (int64, error) {
	if n.CountRef == "" {
		v, err := r.u32()
		if err != nil {
			return 0, err
		}
		return int64(v), nil
	}

	length, ok := scope[n.CountRef]
	if !ok {
		// Retention of counters is the builder's contract; a missing
		// counter here is a builder defect, not a data error.
		return 0, errors.New(errors.ErrorTypeInternal, "counter not decoded before dependent field").
			WithDetail("field", n.Name).
			WithDetail("counter", n.CountRef)
	}
	if length < 0 {
		return 0, errors.New(errors.ErrorTypeData, "negative array counter").
			WithDetail("field", n.Name).
			WithDetail("counter", n.CountRef)
	}
	return length, nil
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	default:
		return 0
	}
}

// reader is a cursor over one branch payload. All multi-byte values are
// big-endian, matching the file format's wire order.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, errors.New(errors.ErrorTypeData, "branch payload truncated").
			WithDetail("want", n).
			WithDetail("have", r.remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// str decodes a length-prefixed string: a one-byte length, with 0xFF
// escaping to a four-byte length for long strings.
func (r *reader) str() (string, error) {
	n8, err := r.u8()
	if err != nil {
		return "", err
	}
	n := int(n8)
	if n8 == 0xFF {
		n32, err := r.u32()
		if err != nil {
			return "", err
		}
		n = int(n32)
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) scalar(s att.Scalar) (any, error) {
	switch s {
	case att.Bool:
		v, err := r.u8()
		if err != nil {
			return nil, err
		}
		return v != 0, nil
	case att.Int8:
		v, err := r.u8()
		if err != nil {
			return nil, err
		}
		return int8(v), nil
	case att.Int16:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		return int16(v), nil
	case att.Int32:
		v, err := r.u32()
		if err != nil {
			return nil, err
		}
		return int32(v), nil
	case att.Int64:
		v, err := r.u64()
		if err != nil {
			return nil, err
		}
		return int64(v), nil
	case att.Uint8:
		return r.u8()
	case att.Uint16:
		return r.u16()
	case att.Uint32:
		return r.u32()
	case att.Uint64:
		return r.u64()
	case att.Float32:
		v, err := r.u32()
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(v), nil
	case att.Float64:
		v, err := r.u64()
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(v), nil
	case att.String:
		return r.str()
	default:
		return nil, errors.New(errors.ErrorTypeUnsupported, "unknown scalar kind")
	}
}
