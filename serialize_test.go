package multimatch

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Varint32_RoundTrip(t *testing.T) {
	t.Parallel()

	values := []int32{0, 1, -1, 63, 64, 127, 128, -128, 1 << 20, -(1 << 20), 2147483647, -2147483648}

	for _, v := range values {
		var buf bytes.Buffer
		require.NoError(t, writeVarint32(&buf, v))

		got, err := readVarint32(&buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func Test_Varint32_Negative_Values_Take_Five_Bytes(t *testing.T) {
	t.Parallel()

	// Signed values use 7-bit continuation of their raw two's-complement
	// representation, not zigzag, so any negative int32 always occupies
	// the full 5 bytes.
	var buf bytes.Buffer
	require.NoError(t, writeVarint32(&buf, -1))
	assert.Len(t, buf.Bytes(), 5)
}

func Test_IntArray_RoundTrip_Including_Nil_And_Empty(t *testing.T) {
	t.Parallel()

	cases := [][]int32{nil, {}, {1, 2, 3}, {-1, -2, -3}}

	for _, arr := range cases {
		var buf bytes.Buffer
		require.NoError(t, writeIntArray(&buf, arr))

		got, err := readIntArray(&buf)
		require.NoError(t, err)
		assert.Equal(t, arr, got)
	}
}

// Test_Save_Load_RoundTrip_Preserves_Scan_Behavior checks that a
// loaded automaton behaves identically to the one that was saved.
func Test_Save_Load_RoundTrip_Preserves_Scan_Behavior(t *testing.T) {
	t.Parallel()

	entries := []KV[int]{{Key: "dolor", Value: 0}, {Key: "it", Value: 1}}
	a, err := Build(entries, true)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.WriteTo(&buf, true))

	loaded, err := ReadFrom[int](bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	diff := cmp.Diff(a.c, loaded.c, cmp.AllowUnexported(core{}))
	assert.Empty(t, diff, "packed arrays must round-trip exactly")
	assert.Equal(t, a.v, loaded.v)

	text := "Lorem ipsum DOLOR sit amet"
	aHits, err := a.Collect(text)
	require.NoError(t, err)
	loadedHits, err := loaded.Collect(text)
	require.NoError(t, err)
	assert.Equal(t, aHits, loadedHits)
}

func Test_Save_Without_Values_Requires_Handler_To_Reconstruct(t *testing.T) {
	t.Parallel()

	entries := []KV[string]{{Key: "a", Value: "alpha"}, {Key: "b", Value: "beta"}}
	a, err := Build(entries, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.WriteTo(&buf, false))

	withoutValues, err := ReadFrom[string](bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.False(t, withoutValues.hasValues)

	original := append([]string(nil), "alpha", "beta")
	withHandler, err := LoadFromWithValues[string](bytes.NewReader(buf.Bytes()), func(idx int) (string, error) {
		return original[idx], nil
	})
	require.NoError(t, err)

	v, ok, err := withHandler.Value("b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "beta", v)
}

// Test_LoadFromWithValues_Without_Handler_Requires_One checks that
// asking for reconstructed values without supplying a handler, on a
// stream that never saved any, fails loudly instead of returning a
// values-less automaton.
func Test_LoadFromWithValues_Without_Handler_Requires_One(t *testing.T) {
	t.Parallel()

	a, err := Build([]KV[string]{{Key: "a", Value: "alpha"}}, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.WriteTo(&buf, false))

	_, err = LoadFromWithValues[string](bytes.NewReader(buf.Bytes()), nil)
	assert.ErrorIs(t, err, ErrValueHandlerRequired)
}

func Test_WriteTo_Empty_Automaton_RoundTrips(t *testing.T) {
	t.Parallel()

	a, err := Build([]KV[string](nil), false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.WriteTo(&buf, true))

	loaded, err := ReadFrom[string](bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Count())
}

func Test_ReadFrom_Rejects_Truncated_Stream(t *testing.T) {
	t.Parallel()

	a, err := BuildKeysOnly([]string{"a", "bb", "ccc"}, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.WriteTo(&buf, false))

	truncated := buf.Bytes()[:3]
	_, err = ReadFrom[struct{}](bytes.NewReader(truncated))
	assert.ErrorIs(t, err, ErrCorruptStream)
}

func Test_SaveFile_LoadFile_RoundTrip(t *testing.T) {
	t.Parallel()

	entries := []KV[string]{{Key: "foo", Value: "1"}, {Key: "bar", Value: "2"}}
	a, err := Build(entries, false)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "dict.bin")
	require.NoError(t, a.SaveFile(path, true))

	loaded, err := LoadFile[string](path)
	require.NoError(t, err)
	aHits, err := a.Collect("foobar")
	require.NoError(t, err)
	loadedHits, err := loaded.Collect("foobar")
	require.NoError(t, err)
	assert.Equal(t, aHits, loadedHits)
}

func Test_SaveFileCompressed_LoadFileCompressed_RoundTrip(t *testing.T) {
	t.Parallel()

	a, err := BuildKeysOnly([]string{"alpha", "beta", "gamma"}, false)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "dict.bin.zst")
	require.NoError(t, a.SaveFileCompressed(path, false))

	loaded, err := LoadFileCompressed[struct{}](path)
	require.NoError(t, err)
	aHits, err := a.Collect("alphabetagamma")
	require.NoError(t, err)
	loadedHits, err := loaded.Collect("alphabetagamma")
	require.NoError(t, err)
	assert.Equal(t, aHits, loadedHits)
}

// Test_WriteTo_Rejects_Unsupported_Value_Type checks that saving an
// Automaton whose V has no wire type code returns
// ErrUnsupportedValueType rather than panicking inside writeValue's
// type switch.
func Test_WriteTo_Rejects_Unsupported_Value_Type(t *testing.T) {
	t.Parallel()

	type point struct{ X, Y int }

	entries := []KV[point]{{Key: "origin", Value: point{0, 0}}}
	a, err := Build(entries, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = a.WriteTo(&buf, true)
	assert.ErrorIs(t, err, ErrUnsupportedValueType)
}

func Test_ReadProps_Skips_Unknown_Property_By_Type_Tag(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	buf.WriteByte(4) // propCount: 3 known + 1 unknown
	require.NoError(t, writeBoolProp(&buf, "saveValues", true))
	require.NoError(t, writeInt32Prop(&buf, "size", 7))
	require.NoError(t, writeBoolProp(&buf, "ignoreCase", true))
	require.NoError(t, writeInt32Prop(&buf, "futureField", 99))

	props, err := readProps(&buf)
	require.NoError(t, err)
	assert.True(t, props.saveValues)
	assert.True(t, props.ignoreCase)
	assert.Equal(t, int32(7), props.size)
}
