package multimatch

import (
	"encoding/binary"
	"io"
	"math"
	"time"
)

// Char distinguishes a UTF-16 code-unit wire value from a plain
// uint16, since Go has no native char type.
type Char uint16

// Decimal is a fixed 16-byte wire-compatible decimal value.
// multimatch does not interpret the bytes (no arithmetic is performed
// on stored values); callers that need decimal arithmetic should
// decode/encode through their own decimal library and store the
// 16-byte wire form here.
type Decimal [16]byte

// valueKind is the one-byte type code preceding a values block. Every
// value in a single Save/Load carries the same kind, since a typed
// Automaton[V] has exactly one static V.
type valueKind byte

const (
	vkBool valueKind = iota
	vkChar
	vkI8
	vkU8
	vkI16
	vkU16
	vkI32
	vkU32
	vkI64
	vkU64
	vkF32
	vkF64
	vkDecimal
	vkTimestamp
	vkString
)

// valueKindOf reports the wire type code for val, or false if val's
// concrete type is not one of the supported primitive value types.
// Save returns ErrUnsupportedValueType when this is false.
func valueKindOf(val any) (valueKind, bool) {
	switch val.(type) {
	case bool:
		return vkBool, true
	case Char:
		return vkChar, true
	case int8:
		return vkI8, true
	case uint8:
		return vkU8, true
	case int16:
		return vkI16, true
	case uint16:
		return vkU16, true
	case int32:
		return vkI32, true
	case uint32:
		return vkU32, true
	case int64:
		return vkI64, true
	case int:
		return vkI64, true
	case uint64:
		return vkU64, true
	case float32:
		return vkF32, true
	case float64:
		return vkF64, true
	case Decimal:
		return vkDecimal, true
	case time.Time:
		return vkTimestamp, true
	case string:
		return vkString, true
	default:
		return 0, false
	}
}

// writeValue encodes val (whose kind must already be known to be kind,
// via valueKindOf) as its fixed-width or length-prefixed wire form.
func writeValue(w io.Writer, kind valueKind, val any) error {
	var buf [16]byte

	switch kind {
	case vkBool:
		v := byte(0)
		if val.(bool) {
			v = 1
		}
		_, err := w.Write([]byte{v})
		return err
	case vkChar:
		binary.LittleEndian.PutUint16(buf[:2], uint16(val.(Char)))
		_, err := w.Write(buf[:2])
		return err
	case vkI8:
		_, err := w.Write([]byte{byte(val.(int8))})
		return err
	case vkU8:
		_, err := w.Write([]byte{val.(uint8)})
		return err
	case vkI16:
		binary.LittleEndian.PutUint16(buf[:2], uint16(val.(int16)))
		_, err := w.Write(buf[:2])
		return err
	case vkU16:
		binary.LittleEndian.PutUint16(buf[:2], val.(uint16))
		_, err := w.Write(buf[:2])
		return err
	case vkI32:
		binary.LittleEndian.PutUint32(buf[:4], uint32(val.(int32)))
		_, err := w.Write(buf[:4])
		return err
	case vkU32:
		binary.LittleEndian.PutUint32(buf[:4], val.(uint32))
		_, err := w.Write(buf[:4])
		return err
	case vkI64:
		i, ok := val.(int64)
		if !ok {
			i = int64(val.(int))
		}
		binary.LittleEndian.PutUint64(buf[:8], uint64(i))
		_, err := w.Write(buf[:8])
		return err
	case vkU64:
		binary.LittleEndian.PutUint64(buf[:8], val.(uint64))
		_, err := w.Write(buf[:8])
		return err
	case vkF32:
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(val.(float32)))
		_, err := w.Write(buf[:4])
		return err
	case vkF64:
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(val.(float64)))
		_, err := w.Write(buf[:8])
		return err
	case vkDecimal:
		d := val.(Decimal)
		_, err := w.Write(d[:])
		return err
	case vkTimestamp:
		binary.LittleEndian.PutUint64(buf[:8], uint64(val.(time.Time).Unix()))
		_, err := w.Write(buf[:8])
		return err
	case vkString:
		s := val.(string)
		if err := writeVarint32(w, int32(len(s))); err != nil {
			return err
		}
		_, err := io.WriteString(w, s)
		return err
	default:
		return ErrUnsupportedValueType
	}
}

// readValue decodes one value of kind from r as an untyped any; the
// caller asserts it to the concrete V.
func readValue(r io.Reader, kind valueKind) (any, error) {
	buf := make([]byte, 16)

	readN := func(n int) ([]byte, error) {
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return nil, ErrCorruptStream
		}
		return buf[:n], nil
	}

	switch kind {
	case vkBool:
		b, err := readN(1)
		if err != nil {
			return nil, err
		}
		return b[0] != 0, nil
	case vkChar:
		b, err := readN(2)
		if err != nil {
			return nil, err
		}
		return Char(binary.LittleEndian.Uint16(b)), nil
	case vkI8:
		b, err := readN(1)
		if err != nil {
			return nil, err
		}
		return int8(b[0]), nil
	case vkU8:
		b, err := readN(1)
		if err != nil {
			return nil, err
		}
		return b[0], nil
	case vkI16:
		b, err := readN(2)
		if err != nil {
			return nil, err
		}
		return int16(binary.LittleEndian.Uint16(b)), nil
	case vkU16:
		b, err := readN(2)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint16(b), nil
	case vkI32:
		b, err := readN(4)
		if err != nil {
			return nil, err
		}
		return int32(binary.LittleEndian.Uint32(b)), nil
	case vkU32:
		b, err := readN(4)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint32(b), nil
	case vkI64:
		b, err := readN(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.LittleEndian.Uint64(b)), nil
	case vkU64:
		b, err := readN(8)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint64(b), nil
	case vkF32:
		b, err := readN(4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
	case vkF64:
		b, err := readN(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case vkDecimal:
		b, err := readN(16)
		if err != nil {
			return nil, err
		}
		var d Decimal
		copy(d[:], b)
		return d, nil
	case vkTimestamp:
		b, err := readN(8)
		if err != nil {
			return nil, err
		}
		return time.Unix(int64(binary.LittleEndian.Uint64(b)), 0).UTC(), nil
	case vkString:
		n, err := readVarint32(r)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return "", nil
		}
		sb := make([]byte, n)
		if _, err := io.ReadFull(r, sb); err != nil {
			return nil, ErrCorruptStream
		}
		return string(sb), nil
	default:
		return nil, ErrCorruptStream
	}
}
