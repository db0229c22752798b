package racp

import (
	"encoding/hex"
	"fmt"

	"github.com/srg/sensorgatt/pkg/codec"
)

// Command is a client request written to the Record Access Control Point
type Command struct {
	OpCode   OpCode   `json:"opcode"`
	Operator Operator `json:"operator"`
	Operand  []uint16 `json:"operand,omitempty"`
}

// NewCommand builds a validated command
func NewCommand(op OpCode, operator Operator, operand ...uint16) (Command, error) {
	cmd := Command{OpCode: op, Operator: operator, Operand: operand}
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// Validate checks the opcode, operator and operand count.
// A range whose minimum exceeds its maximum is rejected as an invalid operand.
func (c Command) Validate() error {
	if !c.OpCode.Outbound() {
		return codec.InvalidEnum("opcode", 0, uint64(c.OpCode))
	}
	if !c.Operator.Known() {
		return codec.InvalidEnum("operator", 1, uint64(c.Operator))
	}
	if want := c.Operator.Arity(); len(c.Operand) != want {
		return &codec.DecodeError{
			Kind: codec.OperandArityMismatch,
			Msg:  fmt.Sprintf("operator %s takes %d operand(s), got %d", c.Operator, want, len(c.Operand)),
		}
	}
	if c.Operator == OpWithinRangeInclusive && c.Operand[0] > c.Operand[1] {
		return &codec.DecodeError{
			Kind: codec.InvalidOperand,
			Msg:  fmt.Sprintf("range minimum %d exceeds maximum %d", c.Operand[0], c.Operand[1]),
		}
	}
	return nil
}

// MarshalBinary encodes the command as opcode | operator | operands (u16-LE each)
func (c Command) MarshalBinary() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	w := codec.NewWriter(2 + 2*len(c.Operand)).Uint8(uint8(c.OpCode)).Uint8(uint8(c.Operator))
	for _, v := range c.Operand {
		w.Uint16(v)
	}
	return w.Bytes(), nil
}

// Encode is shorthand for cmd.MarshalBinary
func Encode(cmd Command) ([]byte, error) {
	return cmd.MarshalBinary()
}

// DecodeCommand parses a command as written by a client
func DecodeCommand(data []byte) (Command, error) {
	r := codec.NewReader(data)
	op, err := r.Uint8("opcode")
	if err != nil {
		return Command{}, err
	}
	operator, err := r.Uint8("operator")
	if err != nil {
		return Command{}, err
	}

	cmd := Command{OpCode: OpCode(op), Operator: Operator(operator)}
	if !cmd.OpCode.Outbound() {
		return Command{}, codec.InvalidEnum("opcode", 0, uint64(op))
	}
	if !cmd.Operator.Known() {
		return Command{}, codec.InvalidEnum("operator", 1, uint64(operator))
	}

	if n := cmd.Operator.Arity(); n > 0 {
		cmd.Operand = make([]uint16, n)
		for i := range cmd.Operand {
			if cmd.Operand[i], err = r.Uint16("operand"); err != nil {
				return Command{}, err
			}
		}
	}
	if err := r.Done(); err != nil {
		return Command{}, err
	}
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

func (c Command) String() string {
	data, err := c.MarshalBinary()
	if err != nil {
		return fmt.Sprintf("%s %s %v (invalid: %v)", c.OpCode, c.Operator, c.Operand, err)
	}
	return fmt.Sprintf("%s %s %v [%s]", c.OpCode, c.Operator, c.Operand, hex.EncodeToString(data))
}
