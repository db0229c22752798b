package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ----------------------------
// SFloat Tests
// ----------------------------

func TestParseSFloat(t *testing.T) {
	tests := []struct {
		name     string
		raw      uint16
		expected SFloat
		value    float64
		ok       bool
	}{
		{name: "100 exponent 0", raw: 0x0064, expected: SFloat{Mantissa: 100}, value: 100, ok: true},
		{name: "negative exponent", raw: 0xF07B, expected: SFloat{Mantissa: 123, Exponent: -1}, value: 12.3, ok: true},
		{name: "positive exponent", raw: 0x2005, expected: SFloat{Mantissa: 5, Exponent: 2}, value: 500, ok: true},
		{name: "negative mantissa", raw: 0x0FFF, expected: SFloat{Mantissa: -1}, value: -1, ok: true},
		{name: "mg/dL style", raw: 0xB04E, expected: SFloat{Mantissa: 78, Exponent: -5}, value: 0.00078, ok: true},
		{name: "NaN", raw: 0x07FF, expected: SFloatNaN, ok: false},
		{name: "NRes", raw: 0x0800, expected: SFloatNRes, ok: false},
		{name: "+INF", raw: 0x07FE, expected: SFloatPlusInf, ok: false},
		{name: "-INF", raw: 0x0802, expected: SFloatMinusInf, ok: false},
		{name: "reserved", raw: 0x0801, expected: SFloat{Mantissa: -0x07FF}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ParseSFloat(tt.raw)
			assert.Equal(t, tt.expected, s)
			assert.Equal(t, tt.raw, s.Raw(), "raw form MUST survive a round trip")

			v, ok := s.Float()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.value, v, 1e-9)
			}
			assert.Equal(t, !tt.ok, s.IsSpecial())
		})
	}
}

func TestSFloat_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A SFloat `json:"a"`
		B SFloat `json:"b"`
	}{A: SFloat{Mantissa: 55, Exponent: -1}, B: SFloatNaN})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":5.5,"b":null}`, string(out))
}

func TestSFloatFromFloat(t *testing.T) {
	s, err := SFloatFromFloat(5.6, -1)
	require.NoError(t, err)
	assert.Equal(t, SFloat{Mantissa: 56, Exponent: -1}, s)

	s, err = SFloatFromFloat(120, 1)
	require.NoError(t, err)
	assert.Equal(t, SFloat{Mantissa: 12, Exponent: 1}, s)

	_, err = SFloatFromFloat(3000, 0)
	assert.True(t, errors.Is(err, ErrInvalidOperand))

	_, err = SFloatFromFloat(1, 9)
	assert.True(t, errors.Is(err, ErrInvalidOperand))
}

// ----------------------------
// Reader Tests
// ----------------------------

func TestReader_TooShortNamesField(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	_, err := r.Uint16("first")
	require.NoError(t, err)

	_, err = r.Uint16("second")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooShort))

	var derr *DecodeError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "second", derr.Field)
	assert.Equal(t, 2, derr.Offset)
	assert.Equal(t, 2, derr.Need)
	assert.Equal(t, 1, derr.Have)
}

func TestReader_Done(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	_, err := r.Uint8("a")
	require.NoError(t, err)
	assert.True(t, errors.Is(r.Done(), ErrTrailingBytes))

	_, err = r.Uint8("b")
	require.NoError(t, err)
	assert.NoError(t, r.Done())
}

func TestReaderWriter_DateTime(t *testing.T) {
	dt := DateTime{Year: 2024, Month: 3, Day: 14, Hours: 15, Minutes: 9, Seconds: 26}
	data := NewWriter(DateTimeSize).DateTime(dt).Bytes()
	assert.Equal(t, []byte{0xE8, 0x07, 3, 14, 15, 9, 26}, data)

	got, err := NewReader(data).DateTime("base_time")
	require.NoError(t, err)
	assert.Equal(t, dt, got)
	assert.Equal(t, time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC), got.Time(nil))
	assert.Equal(t, "2024-03-14 15:09:26", got.String())
}

func TestExact(t *testing.T) {
	assert.NoError(t, Exact("x", []byte{1, 2}, 2))
	assert.True(t, errors.Is(Exact("x", []byte{1}, 2), ErrTooShort))
	assert.True(t, errors.Is(Exact("x", []byte{1, 2, 3}, 2), ErrTrailingBytes))
}

// ----------------------------
// DecodeError Tests
// ----------------------------

func TestDecodeError_Error(t *testing.T) {
	tests := []struct {
		err      *DecodeError
		expected string
	}{
		{
			err:      &DecodeError{Kind: TooShort, Field: "time_offset", Offset: 10, Need: 2, Have: 1},
			expected: "too_short: time_offset at offset 10 needs 2 bytes, have 1",
		},
		{
			err:      &DecodeError{Kind: TrailingBytes, Need: 10, Have: 12},
			expected: "trailing_bytes: expected 10 bytes, got 12",
		},
		{
			err:      InvalidEnum("sensor_type", 0, 0x09),
			expected: "invalid_enum_value: sensor_type 0x09",
		},
		{
			err:      &DecodeError{Kind: OperandArityMismatch, Msg: "operator 0x03 takes 2 operands, got 1"},
			expected: "operand_arity_mismatch: operator 0x03 takes 2 operands, got 1",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("decode 2a18: %w", &DecodeError{Kind: ReservedFlagsSet})
	assert.Equal(t, ReservedFlagsSet, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, errors.Is(wrapped, ErrTooShort))
}
