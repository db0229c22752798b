package racp

import "fmt"

// OpCode is the first byte of every RACP command and indication
type OpCode uint8

const (
	ReportStoredRecords                OpCode = 0x01
	DeleteStoredRecords                OpCode = 0x02
	AbortOperation                     OpCode = 0x03
	ReportNumberOfStoredRecords        OpCode = 0x04
	NumberOfStoredRecordsResponse      OpCode = 0x05 // inbound only
	ResponseCodeOp                     OpCode = 0x06 // inbound only
	ReportSequenceNumberOfLatestRecord OpCode = 0x07
)

var opCodeNames = map[OpCode]string{
	ReportStoredRecords:                "report_stored_records",
	DeleteStoredRecords:                "delete_stored_records",
	AbortOperation:                     "abort_operation",
	ReportNumberOfStoredRecords:        "report_number_of_stored_records",
	NumberOfStoredRecordsResponse:      "number_of_stored_records_response",
	ResponseCodeOp:                     "response_code",
	ReportSequenceNumberOfLatestRecord: "report_sequence_number_of_latest_record",
}

func (o OpCode) String() string {
	if name, ok := opCodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("opcode(0x%02x)", uint8(o))
}

// Known reports whether o is a defined opcode
func (o OpCode) Known() bool {
	_, ok := opCodeNames[o]
	return ok
}

// Outbound reports whether o may be written by a client
func (o OpCode) Outbound() bool {
	return o.Known() && o != NumberOfStoredRecordsResponse && o != ResponseCodeOp
}

// Operator selects which stored records a command applies to
type Operator uint8

const (
	OpNull                 Operator = 0x00
	OpAllRecords           Operator = 0x01
	OpLessThanOrEqual      Operator = 0x02
	OpWithinRangeInclusive Operator = 0x03
	OpGreaterThanOrEqual   Operator = 0x04
	OpFirstRecord          Operator = 0x05
	OpLastRecord           Operator = 0x06
)

var operatorNames = map[Operator]string{
	OpNull:                 "null",
	OpAllRecords:           "all",
	OpLessThanOrEqual:      "lte",
	OpWithinRangeInclusive: "range",
	OpGreaterThanOrEqual:   "gte",
	OpFirstRecord:          "first",
	OpLastRecord:           "last",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("operator(0x%02x)", uint8(o))
}

// Known reports whether o is a defined operator
func (o Operator) Known() bool {
	_, ok := operatorNames[o]
	return ok
}

// Arity returns the number of u16 operands o takes
func (o Operator) Arity() int {
	switch o {
	case OpLessThanOrEqual, OpGreaterThanOrEqual:
		return 1
	case OpWithinRangeInclusive:
		return 2
	default:
		return 0
	}
}

// ParseOpCode resolves a CLI name ("report", "delete", "abort", "count", "latest")
// or a full opcode name.
func ParseOpCode(s string) (OpCode, error) {
	switch s {
	case "report":
		return ReportStoredRecords, nil
	case "delete":
		return DeleteStoredRecords, nil
	case "abort":
		return AbortOperation, nil
	case "count":
		return ReportNumberOfStoredRecords, nil
	case "latest":
		return ReportSequenceNumberOfLatestRecord, nil
	}
	for op, name := range opCodeNames {
		if name == s && op.Outbound() {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown opcode %q", s)
}

// ParseOperator resolves an operator by its short name
func ParseOperator(s string) (Operator, error) {
	for op, name := range operatorNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}

// ResponseCode is the result a server reports for a command
type ResponseCode uint8

const (
	Success               ResponseCode = 0x01
	OpCodeNotSupported    ResponseCode = 0x02
	InvalidOperator       ResponseCode = 0x03
	OperatorNotSupported  ResponseCode = 0x04
	InvalidOperand        ResponseCode = 0x05
	NoRecordsFound        ResponseCode = 0x06
	AbortUnsuccessful     ResponseCode = 0x07
	ProcedureNotCompleted ResponseCode = 0x08
	OperandNotSupported   ResponseCode = 0x09
)

var responseCodeNames = map[ResponseCode]string{
	Success:               "success",
	OpCodeNotSupported:    "opcode_not_supported",
	InvalidOperator:       "invalid_operator",
	OperatorNotSupported:  "operator_not_supported",
	InvalidOperand:        "invalid_operand",
	NoRecordsFound:        "no_records_found",
	AbortUnsuccessful:     "abort_unsuccessful",
	ProcedureNotCompleted: "procedure_not_completed",
	OperandNotSupported:   "operand_not_supported",
}

func (c ResponseCode) String() string {
	if name, ok := responseCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("response_code(0x%02x)", uint8(c))
}

// Known reports whether c is a defined response code
func (c ResponseCode) Known() bool {
	_, ok := responseCodeNames[c]
	return ok
}
