package reemesh

import (
	"encoding/binary"
	"math"
	"math/bits"
	"unicode/utf8"

	"github.com/x448/float16"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// Reader extracts scalars, arrays and strings at absolute positions of a
// fixed buffer. Every read is bounds checked; nothing is ever truncated.
// The zero byte order is little-endian.
type Reader struct {
	buf   []byte
	order binary.ByteOrder
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf, order: binary.LittleEndian}
}

// WithOrder returns a reader over the same buffer using order.
func (r *Reader) WithOrder(order binary.ByteOrder) *Reader {
	return &Reader{buf: r.buf, order: order}
}

func (r *Reader) Order() binary.ByteOrder {
	return r.order
}

func (r *Reader) Len() int {
	return len(r.buf)
}

func (r *Reader) slice(pos, size uint64) ([]byte, error) {
	n := uint64(len(r.buf))
	if pos > n || size > n-pos {
		return nil, &BoundsError{Offset: pos, Size: size, Len: len(r.buf)}
	}
	return r.buf[pos : pos+size], nil
}

func (r *Reader) span(pos uint64, count int, width uint64) ([]byte, error) {
	if count < 0 {
		return nil, &BoundsError{Offset: pos, Size: math.MaxUint64, Len: len(r.buf)}
	}
	if uint64(count) > uint64(len(r.buf))/width+1 {
		return nil, &BoundsError{Offset: pos, Size: math.MaxUint64, Len: len(r.buf)}
	}
	return r.slice(pos, uint64(count)*width)
}

func (r *Reader) Uint8(pos uint64) (uint8, error) {
	b, err := r.slice(pos, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Int8(pos uint64) (int8, error) {
	v, err := r.Uint8(pos)
	return int8(v), err
}

func (r *Reader) Uint16(pos uint64) (uint16, error) {
	b, err := r.slice(pos, 2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r *Reader) Int16(pos uint64) (int16, error) {
	v, err := r.Uint16(pos)
	return int16(v), err
}

func (r *Reader) Uint32(pos uint64) (uint32, error) {
	b, err := r.slice(pos, 4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *Reader) Int32(pos uint64) (int32, error) {
	v, err := r.Uint32(pos)
	return int32(v), err
}

func (r *Reader) Uint64(pos uint64) (uint64, error) {
	b, err := r.slice(pos, 8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

func (r *Reader) Int64(pos uint64) (int64, error) {
	v, err := r.Uint64(pos)
	return int64(v), err
}

// Float16 reads an IEEE 754 half precision value widened to float32.
func (r *Reader) Float16(pos uint64) (float32, error) {
	v, err := r.Uint16(pos)
	if err != nil {
		return 0, err
	}
	return float16.Frombits(v).Float32(), nil
}

func (r *Reader) Float32(pos uint64) (float32, error) {
	v, err := r.Uint32(pos)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) Float64(pos uint64) (float64, error) {
	v, err := r.Uint64(pos)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// readArray decodes count contiguous width-byte values. An empty array is
// never bounds checked, so a zero count with a stale offset is not an error.
func readArray[T any](r *Reader, pos uint64, count int, width uint64, decode func([]byte) T) ([]T, error) {
	if count == 0 {
		return []T{}, nil
	}
	b, err := r.span(pos, count, width)
	if err != nil {
		return nil, err
	}
	out := make([]T, count)
	for i := range out {
		out[i] = decode(b[uint64(i)*width:])
	}
	return out, nil
}

func (r *Reader) Uint8s(pos uint64, count int) ([]uint8, error) {
	return readArray(r, pos, count, 1, func(b []byte) uint8 { return b[0] })
}

func (r *Reader) Int8s(pos uint64, count int) ([]int8, error) {
	return readArray(r, pos, count, 1, func(b []byte) int8 { return int8(b[0]) })
}

func (r *Reader) Uint16s(pos uint64, count int) ([]uint16, error) {
	return readArray(r, pos, count, 2, r.order.Uint16)
}

func (r *Reader) Int16s(pos uint64, count int) ([]int16, error) {
	return readArray(r, pos, count, 2, func(b []byte) int16 { return int16(r.order.Uint16(b)) })
}

func (r *Reader) Uint32s(pos uint64, count int) ([]uint32, error) {
	return readArray(r, pos, count, 4, r.order.Uint32)
}

func (r *Reader) Int32s(pos uint64, count int) ([]int32, error) {
	return readArray(r, pos, count, 4, func(b []byte) int32 { return int32(r.order.Uint32(b)) })
}

func (r *Reader) Uint64s(pos uint64, count int) ([]uint64, error) {
	return readArray(r, pos, count, 8, r.order.Uint64)
}

func (r *Reader) Int64s(pos uint64, count int) ([]int64, error) {
	return readArray(r, pos, count, 8, func(b []byte) int64 { return int64(r.order.Uint64(b)) })
}

func (r *Reader) Float16s(pos uint64, count int) ([]float32, error) {
	return readArray(r, pos, count, 2, func(b []byte) float32 {
		return float16.Frombits(r.order.Uint16(b)).Float32()
	})
}

func (r *Reader) Float32s(pos uint64, count int) ([]float32, error) {
	return readArray(r, pos, count, 4, func(b []byte) float32 {
		return math.Float32frombits(r.order.Uint32(b))
	})
}

func (r *Reader) Float64s(pos uint64, count int) ([]float64, error) {
	return readArray(r, pos, count, 8, func(b []byte) float64 {
		return math.Float64frombits(r.order.Uint64(b))
	})
}

// terminated returns the end of the run of width-byte units starting at pos
// that stops at an all-zero unit, or at the last whole unit within limit
// bytes when limit > 0.
func (r *Reader) terminated(pos uint64, limit int, width uint64) (uint64, error) {
	n := uint64(len(r.buf))
	if pos > n {
		return 0, &BoundsError{Offset: pos, Size: width, Len: len(r.buf)}
	}
	end := pos
	for {
		if limit > 0 && end-pos+width > uint64(limit) {
			return end, nil
		}
		if width > n-end {
			return 0, &BoundsError{Offset: pos, Size: end - pos + width, Len: len(r.buf)}
		}
		zero := true
		for _, c := range r.buf[end : end+width] {
			if c != 0 {
				zero = false
				break
			}
		}
		if zero {
			return end, nil
		}
		end += width
	}
}

// UTF8String reads a NUL-terminated UTF-8 string. A positive limit caps the
// string at limit bytes, in which case no terminator is required.
func (r *Reader) UTF8String(pos uint64, limit int) (string, error) {
	end, err := r.terminated(pos, limit, 1)
	if err != nil {
		return "", err
	}
	b := r.buf[pos:end]
	if !utf8.Valid(b) {
		return "", &EncodingError{Offset: pos, Encoding: "UTF-8"}
	}
	return string(b), nil
}

// UTF16String reads a string of 16-bit code units ended by a zero unit,
// honouring the reader's byte order. limit is in bytes as for UTF8String.
func (r *Reader) UTF16String(pos uint64, limit int) (string, error) {
	end, err := r.terminated(pos, limit, 2)
	if err != nil {
		return "", err
	}
	b := r.buf[pos:end]
	if !r.validUTF16(b) {
		return "", &EncodingError{Offset: pos, Encoding: "UTF-16"}
	}
	s, err := r.utf16().NewDecoder().Bytes(b)
	if err != nil {
		return "", &EncodingError{Offset: pos, Encoding: "UTF-16"}
	}
	return string(s), nil
}

func (r *Reader) utf16() encoding.Encoding {
	if r.order == binary.BigEndian {
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	}
	return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
}

// validUTF16 rejects unpaired surrogates, which the decoder would otherwise
// replace silently.
func (r *Reader) validUTF16(b []byte) bool {
	for i := 0; i+1 < len(b); i += 2 {
		u := r.order.Uint16(b[i:])
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if i+3 >= len(b) {
				return false
			}
			lo := r.order.Uint16(b[i+2:])
			if lo < 0xDC00 || lo >= 0xE000 {
				return false
			}
			i += 2
		case u >= 0xDC00 && u < 0xE000:
			return false
		}
	}
	return true
}

// at adds deltas to base, failing instead of wrapping around.
func (r *Reader) at(base uint64, deltas ...uint64) (uint64, error) {
	pos := base
	for _, d := range deltas {
		var carry uint64
		pos, carry = bits.Add64(pos, d, 0)
		if carry != 0 {
			return 0, &BoundsError{Offset: base, Size: d, Len: len(r.buf)}
		}
	}
	return pos, nil
}
