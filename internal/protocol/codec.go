package protocol

import (
	"errors"
	"fmt"
)

// MaxStringLength is the longest string a one-byte length prefix can describe
const MaxStringLength = 255

var (
	ErrUnsupportedWidth = errors.New("unsupported field width")
	ErrTemplateOverflow = errors.New("template exceeds declared width")
	ErrStringTooLong    = errors.New("string exceeds 255 bytes")
	ErrNotASCII         = errors.New("string contains non-ASCII bytes")
	ErrIntegerOverflow  = errors.New("integer exceeds field width")
	ErrTruncated        = errors.New("message is truncated")
	ErrTrailingBytes    = errors.New("unexpected bytes after message")
)

// Encode serializes m with the default message template
func Encode(m Message) ([]byte, error) {
	return MessageTemplate.Encode(m)
}

// Decode parses one complete message with the default message template
func Decode(data []byte) (Message, error) {
	return MessageTemplate.Decode(data)
}

// Encode serializes m: presence bitmask, present strings, present integers, boolean block.
func (t *Template) Encode(m Message) ([]byte, error) {
	var mask uint64
	size := t.MinSize()
	idx := 0

	for _, f := range t.spec.Strings {
		if v := *f.Ref(&m); v != nil {
			if len(*v) > MaxStringLength {
				return nil, fmt.Errorf("%w: field %s has %d bytes", ErrStringTooLong, f.Name, len(*v))
			}
			if !isASCII(*v) {
				return nil, fmt.Errorf("%w: field %s", ErrNotASCII, f.Name)
			}
			mask |= t.bit(idx)
			size += 1 + len(*v)
		}
		idx++
	}

	for _, f := range t.integers {
		if v, ok := f.Get(&m); ok {
			if v > f.codec.max {
				return nil, fmt.Errorf("%w: field %s value %d", ErrIntegerOverflow, f.Name, v)
			}
			mask |= t.bit(idx)
			size += f.codec.width
		}
		idx++
	}

	var booleans uint64
	for j, f := range t.spec.Booleans {
		if v := *f.Ref(&m); v != nil {
			mask |= t.bit(idx)
			if *v {
				booleans |= t.booleanBit(j)
			}
		}
		idx++
	}

	buf := make([]byte, size)
	t.bitmask.write(buf[:t.bitmask.width], mask)
	off := t.bitmask.width

	idx = 0
	for _, f := range t.spec.Strings {
		if mask&t.bit(idx) != 0 {
			v := **f.Ref(&m)
			buf[off] = byte(len(v))
			off++
			off += copy(buf[off:], v)
		}
		idx++
	}

	for _, f := range t.integers {
		if mask&t.bit(idx) != 0 {
			v, _ := f.Get(&m)
			f.codec.write(buf[off:off+f.codec.width], v)
			off += f.codec.width
		}
		idx++
	}

	t.booleans.write(buf[off:off+t.booleans.width], booleans)

	return buf, nil
}

// Decode reverses Encode. data must hold exactly one message.
func (t *Template) Decode(data []byte) (Message, error) {
	m := Message{Kind: KindUnknown}
	r := byteReader{data: data}

	raw, err := r.next(t.bitmask.width)
	if err != nil {
		return Message{}, err
	}
	mask := t.bitmask.read(raw)
	idx := 0

	for _, f := range t.spec.Strings {
		if mask&t.bit(idx) != 0 {
			length, err := r.next(1)
			if err != nil {
				return Message{}, fmt.Errorf("field %s: %w", f.Name, err)
			}
			s, err := r.next(int(length[0]))
			if err != nil {
				return Message{}, fmt.Errorf("field %s: %w", f.Name, err)
			}
			v := string(s)
			*f.Ref(&m) = &v
		}
		idx++
	}

	for _, f := range t.integers {
		if mask&t.bit(idx) != 0 {
			b, err := r.next(f.codec.width)
			if err != nil {
				return Message{}, fmt.Errorf("field %s: %w", f.Name, err)
			}
			f.Set(&m, f.codec.read(b))
		}
		idx++
	}

	raw, err = r.next(t.booleans.width)
	if err != nil {
		return Message{}, fmt.Errorf("boolean block: %w", err)
	}
	booleans := t.booleans.read(raw)
	for j, f := range t.spec.Booleans {
		if mask&t.bit(idx) != 0 {
			v := booleans&t.booleanBit(j) != 0
			*f.Ref(&m) = &v
		}
		idx++
	}

	if r.remaining() > 0 {
		return Message{}, fmt.Errorf("%w: %d", ErrTrailingBytes, r.remaining())
	}

	return m, nil
}

type byteReader struct {
	data []byte
	off  int
}

func (r *byteReader) next(n int) ([]byte, error) {
	if r.off+n > len(r.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.off, len(r.data)-r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *byteReader) remaining() int {
	return len(r.data) - r.off
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}
