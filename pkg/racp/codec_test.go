package racp

import (
	"errors"
	"testing"

	"github.com/srg/sensorgatt/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ----------------------------
// Commands
// ----------------------------

func TestCommand_Encode(t *testing.T) {
	tests := []struct {
		name     string
		op       OpCode
		operator Operator
		operand  []uint16
		expected []byte
	}{
		{name: "report range", op: ReportStoredRecords, operator: OpWithinRangeInclusive, operand: []uint16{10, 20},
			expected: []byte{0x01, 0x03, 0x0A, 0x00, 0x14, 0x00}},
		{name: "report all", op: ReportStoredRecords, operator: OpAllRecords, expected: []byte{0x01, 0x01}},
		{name: "delete up to", op: DeleteStoredRecords, operator: OpLessThanOrEqual, operand: []uint16{0x1234},
			expected: []byte{0x02, 0x02, 0x34, 0x12}},
		{name: "count from", op: ReportNumberOfStoredRecords, operator: OpGreaterThanOrEqual, operand: []uint16{7},
			expected: []byte{0x04, 0x04, 0x07, 0x00}},
		{name: "abort", op: AbortOperation, operator: OpNull, expected: []byte{0x03, 0x00}},
		{name: "last record", op: ReportStoredRecords, operator: OpLastRecord, expected: []byte{0x01, 0x06}},
		{name: "latest sequence", op: ReportSequenceNumberOfLatestRecord, operator: OpNull, expected: []byte{0x07, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := NewCommand(tt.op, tt.operator, tt.operand...)
			require.NoError(t, err)

			data, err := Encode(cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, data)

			decoded, err := DecodeCommand(data)
			require.NoError(t, err)
			assert.Equal(t, cmd.OpCode, decoded.OpCode)
			assert.Equal(t, cmd.Operator, decoded.Operator)
			assert.Equal(t, len(tt.operand), len(decoded.Operand))
			for i := range tt.operand {
				assert.Equal(t, tt.operand[i], decoded.Operand[i])
			}
		})
	}
}

func TestNewCommand_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		op       OpCode
		operator Operator
		operand  []uint16
		kind     codec.Kind
	}{
		{name: "range with one operand", op: ReportStoredRecords, operator: OpWithinRangeInclusive, operand: []uint16{10}, kind: codec.OperandArityMismatch},
		{name: "all with operand", op: ReportStoredRecords, operator: OpAllRecords, operand: []uint16{1}, kind: codec.OperandArityMismatch},
		{name: "lte without operand", op: DeleteStoredRecords, operator: OpLessThanOrEqual, kind: codec.OperandArityMismatch},
		{name: "inverted range", op: ReportStoredRecords, operator: OpWithinRangeInclusive, operand: []uint16{20, 10}, kind: codec.InvalidOperand},
		{name: "inbound response opcode", op: ResponseCodeOp, operator: OpNull, kind: codec.InvalidEnumValue},
		{name: "inbound count opcode", op: NumberOfStoredRecordsResponse, operator: OpNull, kind: codec.InvalidEnumValue},
		{name: "unknown operator", op: ReportStoredRecords, operator: Operator(0x09), kind: codec.InvalidEnumValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCommand(tt.op, tt.operator, tt.operand...)
			require.Error(t, err)
			assert.Equal(t, tt.kind, codec.KindOf(err))
		})
	}
}

func TestCommand_MarshalValidates(t *testing.T) {
	_, err := Command{OpCode: ReportStoredRecords, Operator: OpWithinRangeInclusive, Operand: []uint16{1}}.MarshalBinary()
	assert.True(t, errors.Is(err, codec.ErrOperandArityMismatch), "a hand-built command MUST still be validated")
}

func TestDecodeCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind codec.Kind
	}{
		{name: "empty", data: nil, kind: codec.TooShort},
		{name: "no operator", data: []byte{0x01}, kind: codec.TooShort},
		{name: "half operand", data: []byte{0x01, 0x03, 0x0A, 0x00, 0x14}, kind: codec.TooShort},
		{name: "extra operand", data: []byte{0x01, 0x01, 0x00, 0x00}, kind: codec.TrailingBytes},
		{name: "unknown opcode", data: []byte{0x09, 0x01}, kind: codec.InvalidEnumValue},
		{name: "inverted range", data: []byte{0x01, 0x03, 0x14, 0x00, 0x0A, 0x00}, kind: codec.InvalidOperand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCommand(tt.data)
			assert.Equal(t, tt.kind, codec.KindOf(err))
		})
	}
}

func TestParseNames(t *testing.T) {
	op, err := ParseOpCode("report")
	require.NoError(t, err)
	assert.Equal(t, ReportStoredRecords, op)

	op, err = ParseOpCode("report_number_of_stored_records")
	require.NoError(t, err)
	assert.Equal(t, ReportNumberOfStoredRecords, op)

	_, err = ParseOpCode("response_code")
	assert.Error(t, err, "inbound opcodes MUST NOT be accepted as commands")

	operator, err := ParseOperator("range")
	require.NoError(t, err)
	assert.Equal(t, OpWithinRangeInclusive, operator)
	assert.Equal(t, 2, operator.Arity())

	_, err = ParseOperator("between")
	assert.Error(t, err)
}

// ----------------------------
// Indications
// ----------------------------

func TestDecodeResponse(t *testing.T) {
	resp, err := DecodeResponse([]byte{0x06, 0x00, 0x01, 0x01})
	require.NoError(t, err)
	assert.Equal(t, ReportStoredRecords, resp.RequestOpCode)
	assert.Equal(t, Success, resp.Code)
	assert.True(t, resp.OK())

	resp, err = DecodeResponse([]byte{0x06, 0x00, 0x02, 0x06})
	require.NoError(t, err)
	assert.Equal(t, DeleteStoredRecords, resp.RequestOpCode)
	assert.Equal(t, NoRecordsFound, resp.Code)
	assert.False(t, resp.OK())
}

func TestDecodeResponse_RecoversRequestOpCode(t *testing.T) {
	for _, op := range []OpCode{ReportStoredRecords, DeleteStoredRecords, AbortOperation, ReportNumberOfStoredRecords, ReportSequenceNumberOfLatestRecord} {
		data, err := Response{RequestOpCode: op, Code: ProcedureNotCompleted}.MarshalBinary()
		require.NoError(t, err)

		resp, err := DecodeResponse(data)
		require.NoError(t, err)
		assert.Equal(t, op, resp.RequestOpCode)
		assert.Equal(t, ProcedureNotCompleted, resp.Code)
	}
}

func TestDecodeResponse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		kind  codec.Kind
		field string
	}{
		{name: "empty", data: []byte{}, kind: codec.TooShort},
		{name: "short", data: []byte{0x06, 0x00, 0x01}, kind: codec.TooShort},
		{name: "long", data: []byte{0x06, 0x00, 0x01, 0x01, 0x00}, kind: codec.TrailingBytes},
		{name: "wrong leading opcode", data: []byte{0x05, 0x00, 0x01, 0x01}, kind: codec.UnexpectedOpCode, field: "opcode"},
		{name: "non-null operator", data: []byte{0x06, 0x01, 0x01, 0x01}, kind: codec.InvalidEnumValue, field: "operator"},
		{name: "unknown request opcode", data: []byte{0x06, 0x00, 0x0F, 0x01}, kind: codec.InvalidEnumValue, field: "request_opcode"},
		{name: "unknown response code", data: []byte{0x06, 0x00, 0x01, 0x0A}, kind: codec.InvalidEnumValue, field: "response_code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResponse(tt.data)
			var derr *codec.DecodeError
			require.True(t, errors.As(err, &derr), "got %v", err)
			assert.Equal(t, tt.kind, derr.Kind)
			if tt.field != "" {
				assert.Equal(t, tt.field, derr.Field)
			}
		})
	}
}

func TestDecodeRecordCount(t *testing.T) {
	count, err := DecodeRecordCount([]byte{0x05, 0x00, 0x2C, 0x01})
	require.NoError(t, err)
	assert.Equal(t, uint16(300), count.Count)

	data, err := RecordCount{Count: 300}.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x05, 0x00, 0x2C, 0x01}, data)

	_, err = DecodeRecordCount([]byte{0x05, 0x00, 0x2C})
	assert.True(t, errors.Is(err, codec.ErrTooShort))
	_, err = DecodeRecordCount([]byte{0x06, 0x00, 0x01, 0x01})
	assert.True(t, errors.Is(err, codec.ErrUnexpectedOpCode))
}

func TestDecodeIndication(t *testing.T) {
	ind, err := DecodeIndication([]byte{0x06, 0x00, 0x04, 0x01})
	require.NoError(t, err)
	require.NotNil(t, ind.Response)
	assert.Nil(t, ind.Count)
	assert.True(t, ind.Answers(ReportNumberOfStoredRecords))
	assert.False(t, ind.Answers(ReportStoredRecords))

	ind, err = DecodeIndication([]byte{0x05, 0x00, 0x03, 0x00})
	require.NoError(t, err)
	require.NotNil(t, ind.Count)
	assert.Equal(t, uint16(3), ind.Count.Count)
	assert.True(t, ind.Answers(ReportNumberOfStoredRecords))
	assert.True(t, ind.Answers(ReportSequenceNumberOfLatestRecord))
	assert.False(t, ind.Answers(DeleteStoredRecords))

	_, err = DecodeIndication([]byte{0x01, 0x01})
	assert.True(t, errors.Is(err, codec.ErrUnexpectedOpCode))
	_, err = DecodeIndication(nil)
	assert.True(t, errors.Is(err, codec.ErrTooShort))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "report_stored_records", ReportStoredRecords.String())
	assert.Equal(t, "opcode(0x0f)", OpCode(0x0F).String())
	assert.Equal(t, "range", OpWithinRangeInclusive.String())
	assert.Equal(t, "no_records_found", NoRecordsFound.String())
	assert.Equal(t, "response_code(0x0a)", ResponseCode(0x0A).String())
}
