package multimatch

import (
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/natefinch/atomic"
)

// Wire layout, little-endian, 7-bit-continuation varints:
//
//	u8   propCount
//	repeated propCount:
//	  varint nameLen, name bytes (UTF-8)
//	  u8 typeTag (0=bool, 1=int32)
//	  value bytes (1 byte for bool, 4 raw bytes for int32)
//	intArray l
//	intArray base
//	intArray check
//	intArray fail
//	varint outputOuterLen
//	  repeated: intArray (output[s], absent encoded the same as any intArray)
//	if saveValues:
//	  varint count
//	  u8 valueKind
//	  count x value-of-kind
//
// The propCount entry's type tag is what lets Load skip an
// unrecognized property name without needing to know its semantics:
// tying byte width to the *name* doesn't help a reader that doesn't
// recognize the name.

const (
	propTagBool  byte = 0
	propTagInt32 byte = 1
)

// writeVarint32 encodes v using 7-bit continuation of its raw
// two's-complement uint32 bit pattern — not zigzag, so negative
// values always take 5 bytes.
func writeVarint32(w io.Writer, v int32) error {
	u := uint32(v)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			if _, err := w.Write([]byte{b | 0x80}); err != nil {
				return err
			}
			continue
		}
		_, err := w.Write([]byte{b})
		return err
	}
}

func readVarint32(r io.Reader) (int32, error) {
	var result uint32
	var shift uint
	var b [1]byte

	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, ErrCorruptStream
		}
		result |= uint32(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			break
		}
		shift += 7
		if shift > 35 {
			return 0, ErrCorruptStream
		}
	}

	return int32(result), nil
}

// writeIntArray frames arr as a varint length (-1 for nil) followed by
// that many varint-encoded int32s. Used for l/base/check/fail and each
// entry of the jagged output array.
func writeIntArray(w io.Writer, arr []int32) error {
	if arr == nil {
		return writeVarint32(w, -1)
	}
	if err := writeVarint32(w, int32(len(arr))); err != nil {
		return err
	}
	for _, v := range arr {
		if err := writeVarint32(w, v); err != nil {
			return err
		}
	}
	return nil
}

func readIntArray(r io.Reader) ([]int32, error) {
	n, err := readVarint32(r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	if n == 0 {
		return []int32{}, nil
	}

	arr := make([]int32, n)
	for i := range arr {
		v, err := readVarint32(r)
		if err != nil {
			return nil, err
		}
		arr[i] = v
	}
	return arr, nil
}

func writeBoolProp(w io.Writer, name string, v bool) error {
	if err := writeVarint32(w, int32(len(name))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, name); err != nil {
		return err
	}
	if _, err := w.Write([]byte{propTagBool}); err != nil {
		return err
	}
	b := byte(0)
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

func writeInt32Prop(w io.Writer, name string, v int32) error {
	if err := writeVarint32(w, int32(len(name))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, name); err != nil {
		return err
	}
	if _, err := w.Write([]byte{propTagInt32}); err != nil {
		return err
	}
	var raw [4]byte
	raw[0] = byte(v)
	raw[1] = byte(v >> 8)
	raw[2] = byte(v >> 16)
	raw[3] = byte(v >> 24)
	_, err := w.Write(raw[:])
	return err
}

// WriteTo serializes the automaton. When saveValues is true and V is
// not one of the primitive wire types, WriteTo returns
// ErrUnsupportedValueType after writing only the values block's count
// (the structural prefix before it is already written, so the stream
// position is not recoverable on this error). An automaton without
// values is always written with saveValues=false.
func (a *Automaton[V]) WriteTo(w io.Writer, saveValues bool) error {
	if !a.built {
		return ErrNotBuilt
	}
	saveValues = saveValues && a.hasValues

	if err := writePropCountAndProps(w, saveValues, a.c.size, a.c.ignoreCase); err != nil {
		return err
	}
	if err := writeIntArray(w, a.c.l); err != nil {
		return err
	}
	if err := writeIntArray(w, a.c.base); err != nil {
		return err
	}
	if err := writeIntArray(w, a.c.check); err != nil {
		return err
	}
	if err := writeIntArray(w, a.c.fail); err != nil {
		return err
	}
	if err := writeVarint32(w, int32(len(a.c.output))); err != nil {
		return err
	}
	for _, out := range a.c.output {
		if err := writeIntArray(w, out); err != nil {
			return err
		}
	}

	if !saveValues {
		return nil
	}

	return writeValuesBlock(w, a.v)
}

func writePropCountAndProps(w io.Writer, saveValues bool, size int32, ignoreCase bool) error {
	if _, err := w.Write([]byte{3}); err != nil {
		return err
	}
	if err := writeBoolProp(w, "saveValues", saveValues); err != nil {
		return err
	}
	if err := writeInt32Prop(w, "size", size); err != nil {
		return err
	}
	return writeBoolProp(w, "ignoreCase", ignoreCase)
}

func writeValuesBlock[V any](w io.Writer, values []V) error {
	if err := writeVarint32(w, int32(len(values))); err != nil {
		return err
	}
	if len(values) == 0 {
		_, err := w.Write([]byte{byte(vkString)})
		return err
	}

	kind, ok := valueKindOf(any(values[0]))
	if !ok {
		return ErrUnsupportedValueType
	}
	if _, err := w.Write([]byte{byte(kind)}); err != nil {
		return err
	}
	for _, v := range values {
		if err := writeValue(w, kind, any(v)); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrom decodes an automaton previously written by WriteTo. When
// the stream was saved with saveValues=false, the resulting Automaton
// has no values (HasValue is false on every Hit); use
// LoadFromWithValues to reconstruct them from a valueHandler.
func ReadFrom[V any](r io.Reader) (*Automaton[V], error) {
	return loadFrom[V](r, nil, false)
}

// LoadFromWithValues decodes an automaton and, if the stream has no
// saved values, reconstructs v[] by calling handler(index) for every
// keyword index. It returns ErrValueHandlerRequired if the stream has
// no saved values and handler is nil.
func LoadFromWithValues[V any](r io.Reader, handler func(index int) (V, error)) (*Automaton[V], error) {
	return loadFrom[V](r, handler, true)
}

func loadFrom[V any](r io.Reader, handler func(index int) (V, error), requireHandler bool) (*Automaton[V], error) {
	props, err := readProps(r)
	if err != nil {
		return nil, err
	}

	l, err := readIntArray(r)
	if err != nil {
		return nil, err
	}
	base, err := readIntArray(r)
	if err != nil {
		return nil, err
	}
	check, err := readIntArray(r)
	if err != nil {
		return nil, err
	}
	fail, err := readIntArray(r)
	if err != nil {
		return nil, err
	}

	outerLen, err := readVarint32(r)
	if err != nil {
		return nil, err
	}
	if outerLen < 0 {
		return nil, ErrCorruptStream
	}
	output := make([][]int32, outerLen)
	for i := range output {
		out, err := readIntArray(r)
		if err != nil {
			return nil, err
		}
		output[i] = out
	}

	c := &core{
		base:       base,
		check:      check,
		fail:       fail,
		output:     output,
		l:          l,
		size:       props.size,
		ignoreCase: props.ignoreCase,
	}

	a := &Automaton[V]{c: c, built: true}

	if props.saveValues {
		values, err := readValuesBlock[V](r)
		if err != nil {
			return nil, err
		}
		a.v = values
		a.hasValues = true
		return a, nil
	}

	if handler == nil {
		if requireHandler {
			return nil, ErrValueHandlerRequired
		}
		return a, nil
	}

	values := make([]V, len(l))
	for i := range values {
		v, err := handler(i)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	a.v = values
	a.hasValues = true
	return a, nil
}

type wireProps struct {
	saveValues bool
	size       int32
	ignoreCase bool
}

func readProps(r io.Reader) (wireProps, error) {
	// Defaults assumed before reading any props, so older streams
	// lacking an ignoreCase property still load with case-sensitive
	// matching and their values intact.
	props := wireProps{saveValues: true, ignoreCase: false}

	var countBuf [1]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return props, ErrCorruptStream
	}
	count := int(countBuf[0])

	for i := 0; i < count; i++ {
		nameLen, err := readVarint32(r)
		if err != nil {
			return props, err
		}
		if nameLen < 0 {
			return props, ErrCorruptStream
		}
		nameBytes := make([]byte, nameLen)
		if _, err := io.ReadFull(r, nameBytes); err != nil {
			return props, ErrCorruptStream
		}
		name := string(nameBytes)

		var tagBuf [1]byte
		if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
			return props, ErrCorruptStream
		}

		switch tagBuf[0] {
		case propTagBool:
			var vb [1]byte
			if _, err := io.ReadFull(r, vb[:]); err != nil {
				return props, ErrCorruptStream
			}
			val := vb[0] != 0
			switch name {
			case "saveValues":
				props.saveValues = val
			case "ignoreCase":
				props.ignoreCase = val
			}
			// Unknown bool-tagged property name: skip (forward compatible).
		case propTagInt32:
			var vb [4]byte
			if _, err := io.ReadFull(r, vb[:]); err != nil {
				return props, ErrCorruptStream
			}
			val := int32(vb[0]) | int32(vb[1])<<8 | int32(vb[2])<<16 | int32(vb[3])<<24
			if name == "size" {
				props.size = val
			}
			// Unknown int32-tagged property name: skip (forward compatible).
		default:
			return props, ErrCorruptStream
		}
	}

	return props, nil
}

func readValuesBlock[V any](r io.Reader) ([]V, error) {
	count, err := readVarint32(r)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, ErrCorruptStream
	}

	var kindBuf [1]byte
	if _, err := io.ReadFull(r, kindBuf[:]); err != nil {
		return nil, ErrCorruptStream
	}
	kind := valueKind(kindBuf[0])

	values := make([]V, count)
	for i := range values {
		raw, err := readValue(r, kind)
		if err != nil {
			return nil, err
		}
		v, ok := raw.(V)
		if !ok && kind == vkI64 {
			// valueKindOf maps the platform int type to vkI64 on write
			// (see values.go); widen it back on the way in.
			if i64, isI64 := raw.(int64); isI64 {
				v, ok = any(int(i64)).(V)
			}
		}
		if !ok {
			return nil, ErrCorruptStream
		}
		values[i] = v
	}
	return values, nil
}

// SaveFile serializes the automaton and writes it to path atomically
// via github.com/natefinch/atomic, so a crash or concurrent reader
// never observes a half-written file — grounded on
// calvinalkan-agent-task/cache_binary.go's Save path.
func (a *Automaton[V]) SaveFile(path string, saveValues bool) error {
	var buf bytes.Buffer
	if err := a.WriteTo(&buf, saveValues); err != nil {
		return err
	}
	return atomic.WriteFile(path, &buf)
}

// SaveFileCompressed is SaveFile with the stream zstd-compressed
// (github.com/klauspost/compress/zstd), for dictionaries large enough
// that the packed arrays dominate file size.
func (a *Automaton[V]) SaveFileCompressed(path string, saveValues bool) error {
	var raw bytes.Buffer
	if err := a.WriteTo(&raw, saveValues); err != nil {
		return err
	}

	var compressed bytes.Buffer
	zw, err := zstd.NewWriter(&compressed)
	if err != nil {
		return err
	}
	if _, err := zw.Write(raw.Bytes()); err != nil {
		_ = zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	return atomic.WriteFile(path, &compressed)
}

// LoadFile reads and decodes an automaton previously written by
// SaveFile.
func LoadFile[V any](path string) (*Automaton[V], error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return ReadFrom[V](f)
}

// LoadFileCompressed reads and decodes an automaton previously written
// by SaveFileCompressed.
func LoadFileCompressed[V any](path string) (*Automaton[V], error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return ReadFrom[V](zr)
}
