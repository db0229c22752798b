package codec

import (
	"fmt"
	"math"
	"strconv"
)

// IEEE-11073 SFLOAT special mantissa values (12-bit two's complement)
const (
	sfloatNaN      int16 = 0x07FF  // not a number
	sfloatNRes     int16 = -0x0800 // not at this resolution
	sfloatPlusInf  int16 = 0x07FE
	sfloatMinusInf int16 = -0x07FE
	sfloatReserved int16 = -0x07FF
)

const sfloatMaxNormal = 0x07FD

// SFloat is the Bluetooth 16-bit short float: value = Mantissa * 10^Exponent.
// Mantissa is a 12-bit and Exponent a 4-bit signed integer.
type SFloat struct {
	Mantissa int16
	Exponent int8
}

// Well-known special SFloat values
var (
	SFloatNaN      = SFloat{Mantissa: sfloatNaN}
	SFloatNRes     = SFloat{Mantissa: sfloatNRes}
	SFloatPlusInf  = SFloat{Mantissa: sfloatPlusInf}
	SFloatMinusInf = SFloat{Mantissa: sfloatMinusInf}
)

// ParseSFloat splits a raw SFLOAT into mantissa and exponent, sign-extending both
func ParseSFloat(raw uint16) SFloat {
	mantissa := int16(raw&0x0FFF) << 4 >> 4
	exponent := int8(raw>>8) >> 4
	return SFloat{Mantissa: mantissa, Exponent: exponent}
}

// Raw packs the value back into its 16-bit wire form
func (s SFloat) Raw() uint16 {
	return uint16(s.Exponent&0x0F)<<12 | uint16(s.Mantissa)&0x0FFF
}

// IsSpecial reports whether the mantissa holds one of the reserved bit patterns
// (NaN, NRes, +/-INF, reserved). Special values carry no reading.
func (s SFloat) IsSpecial() bool {
	switch s.Mantissa {
	case sfloatNaN, sfloatNRes, sfloatPlusInf, sfloatMinusInf, sfloatReserved:
		return true
	}
	return false
}

// Float returns the numeric value, or false if s is a special value
func (s SFloat) Float() (float64, bool) {
	if s.IsSpecial() {
		return 0, false
	}
	m := float64(s.Mantissa)
	if s.Exponent < 0 {
		return m / math.Pow10(-int(s.Exponent)), true
	}
	return m * math.Pow10(int(s.Exponent)), true
}

func (s SFloat) String() string {
	switch s.Mantissa {
	case sfloatNaN:
		return "NaN"
	case sfloatNRes:
		return "NRes"
	case sfloatPlusInf:
		return "+INF"
	case sfloatMinusInf:
		return "-INF"
	case sfloatReserved:
		return "reserved"
	}
	v, _ := s.Float()
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MarshalJSON renders the numeric value, or null for special values
func (s SFloat) MarshalJSON() ([]byte, error) {
	v, ok := s.Float()
	if !ok {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
}

// SFloatFromFloat encodes v with the given exponent, rounding the mantissa.
// Fails with InvalidOperand if the mantissa does not fit the normal 12-bit range.
func SFloatFromFloat(v float64, exponent int8) (SFloat, error) {
	if exponent < -8 || exponent > 7 {
		return SFloat{}, &DecodeError{Kind: InvalidOperand, Msg: fmt.Sprintf("sfloat exponent %d out of range", exponent)}
	}
	if math.IsNaN(v) {
		return SFloatNaN, nil
	}
	var m float64
	if exponent < 0 {
		m = math.Round(v * math.Pow10(-int(exponent)))
	} else {
		m = math.Round(v / math.Pow10(int(exponent)))
	}
	if m > sfloatMaxNormal || m < -sfloatMaxNormal {
		return SFloat{}, &DecodeError{Kind: InvalidOperand, Msg: fmt.Sprintf("sfloat %v does not fit with exponent %d", v, exponent)}
	}
	return SFloat{Mantissa: int16(m), Exponent: exponent}, nil
}
