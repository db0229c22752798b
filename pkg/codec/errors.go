package codec

import (
	"errors"
	"fmt"
)

// Kind classifies a decode or encode failure
type Kind string

const (
	TooShort             Kind = "too_short"
	TrailingBytes        Kind = "trailing_bytes"
	ReservedFlagsSet     Kind = "reserved_flags_set"
	InvalidEnumValue     Kind = "invalid_enum_value"
	OperandArityMismatch Kind = "operand_arity_mismatch"
	InvalidOperand       Kind = "invalid_operand"
	UnexpectedOpCode     Kind = "unexpected_opcode"
)

// DecodeError describes a malformed characteristic value or an inconsistent command.
type DecodeError struct {
	Kind   Kind
	Field  string // field being decoded, e.g. "sequence_number"
	Offset int    // byte offset of Field within the buffer
	Need   int    // bytes required (TooShort / TrailingBytes)
	Have   int    // bytes available
	Value  uint64 // offending value (InvalidEnumValue, ReservedFlagsSet, UnexpectedOpCode)
	Msg    string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case TooShort:
		return fmt.Sprintf("%s: %s at offset %d needs %d bytes, have %d", e.Kind, e.Field, e.Offset, e.Need, e.Have)
	case TrailingBytes:
		return fmt.Sprintf("%s: expected %d bytes, got %d", e.Kind, e.Need, e.Have)
	case ReservedFlagsSet:
		return fmt.Sprintf("%s: %s 0x%02x", e.Kind, e.Field, e.Value)
	case InvalidEnumValue, UnexpectedOpCode:
		return fmt.Sprintf("%s: %s 0x%02x", e.Kind, e.Field, e.Value)
	}
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is allows errors.Is to compare DecodeError values by Kind
func (e *DecodeError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is checks
var (
	ErrTooShort             = &DecodeError{Kind: TooShort}
	ErrTrailingBytes        = &DecodeError{Kind: TrailingBytes}
	ErrReservedFlagsSet     = &DecodeError{Kind: ReservedFlagsSet}
	ErrInvalidEnumValue     = &DecodeError{Kind: InvalidEnumValue}
	ErrOperandArityMismatch = &DecodeError{Kind: OperandArityMismatch}
	ErrInvalidOperand       = &DecodeError{Kind: InvalidOperand}
	ErrUnexpectedOpCode     = &DecodeError{Kind: UnexpectedOpCode}
)

// KindOf reports the Kind of a DecodeError anywhere in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var derr *DecodeError
	if errors.As(err, &derr) {
		return derr.Kind
	}
	return ""
}

// InvalidEnum builds an InvalidEnumValue error for field
func InvalidEnum(field string, offset int, value uint64) *DecodeError {
	return &DecodeError{Kind: InvalidEnumValue, Field: field, Offset: offset, Value: value}
}
