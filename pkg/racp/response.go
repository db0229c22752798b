package racp

import (
	"fmt"

	"github.com/srg/sensorgatt/pkg/codec"
)

const (
	responseSize    = 4
	recordCountSize = 4
)

// Response is the 0x06 indication that completes a command
type Response struct {
	RequestOpCode OpCode       `json:"request_opcode"`
	Code          ResponseCode `json:"code"`
}

// OK reports whether the server accepted the request
func (r Response) OK() bool { return r.Code == Success }

// MarshalBinary encodes 06 00 <request opcode> <code>
func (r Response) MarshalBinary() ([]byte, error) {
	return []byte{uint8(ResponseCodeOp), uint8(OpNull), uint8(r.RequestOpCode), uint8(r.Code)}, nil
}

// DecodeResponse parses a Response Code indication.
// It is exactly four bytes: opcode 0x06, operator Null, request opcode, response code.
func DecodeResponse(data []byte) (Response, error) {
	r := codec.NewReader(data)
	op, err := r.Uint8("opcode")
	if err != nil {
		return Response{}, err
	}
	if OpCode(op) != ResponseCodeOp {
		return Response{}, &codec.DecodeError{Kind: codec.UnexpectedOpCode, Field: "opcode", Value: uint64(op)}
	}
	if err := codec.Exact("response", data, responseSize); err != nil {
		return Response{}, err
	}

	operator, _ := r.Uint8("operator")
	req, _ := r.Uint8("request_opcode")
	code, _ := r.Uint8("response_code")

	if Operator(operator) != OpNull {
		return Response{}, codec.InvalidEnum("operator", 1, uint64(operator))
	}
	if !OpCode(req).Outbound() {
		return Response{}, codec.InvalidEnum("request_opcode", 2, uint64(req))
	}
	if !ResponseCode(code).Known() {
		return Response{}, codec.InvalidEnum("response_code", 3, uint64(code))
	}
	return Response{RequestOpCode: OpCode(req), Code: ResponseCode(code)}, nil
}

// RecordCount is the 0x05 indication. It carries the number of matching records for
// ReportNumberOfStoredRecords, or the latest sequence number for
// ReportSequenceNumberOfLatestRecord.
type RecordCount struct {
	Count uint16 `json:"count"`
}

// MarshalBinary encodes 05 00 <count:u16-LE>
func (c RecordCount) MarshalBinary() ([]byte, error) {
	return codec.NewWriter(recordCountSize).
		Uint8(uint8(NumberOfStoredRecordsResponse)).
		Uint8(uint8(OpNull)).
		Uint16(c.Count).
		Bytes(), nil
}

// DecodeRecordCount parses a Number of Stored Records indication
func DecodeRecordCount(data []byte) (RecordCount, error) {
	r := codec.NewReader(data)
	op, err := r.Uint8("opcode")
	if err != nil {
		return RecordCount{}, err
	}
	if OpCode(op) != NumberOfStoredRecordsResponse {
		return RecordCount{}, &codec.DecodeError{Kind: codec.UnexpectedOpCode, Field: "opcode", Value: uint64(op)}
	}
	if err := codec.Exact("record_count", data, recordCountSize); err != nil {
		return RecordCount{}, err
	}
	operator, _ := r.Uint8("operator")
	if Operator(operator) != OpNull {
		return RecordCount{}, codec.InvalidEnum("operator", 1, uint64(operator))
	}
	count, _ := r.Uint16("count")
	return RecordCount{Count: count}, nil
}

// Indication is any value the server indicates on the control point.
// Exactly one of Response and Count is set.
type Indication struct {
	OpCode   OpCode       `json:"opcode"`
	Response *Response    `json:"response,omitempty"`
	Count    *RecordCount `json:"count,omitempty"`
}

// Answers reports whether the indication completes a request with opcode req
func (i Indication) Answers(req OpCode) bool {
	switch {
	case i.Response != nil:
		return i.Response.RequestOpCode == req
	case i.Count != nil:
		return req == ReportNumberOfStoredRecords || req == ReportSequenceNumberOfLatestRecord
	}
	return false
}

func (i Indication) String() string {
	switch {
	case i.Response != nil:
		return fmt.Sprintf("response %s: %s", i.Response.RequestOpCode, i.Response.Code)
	case i.Count != nil:
		return fmt.Sprintf("record count %d", i.Count.Count)
	}
	return i.OpCode.String()
}

// DecodeIndication dispatches on the leading opcode
func DecodeIndication(data []byte) (Indication, error) {
	if len(data) == 0 {
		return Indication{}, &codec.DecodeError{Kind: codec.TooShort, Field: "opcode", Need: 1}
	}
	switch op := OpCode(data[0]); op {
	case ResponseCodeOp:
		resp, err := DecodeResponse(data)
		if err != nil {
			return Indication{}, err
		}
		return Indication{OpCode: op, Response: &resp}, nil
	case NumberOfStoredRecordsResponse:
		count, err := DecodeRecordCount(data)
		if err != nil {
			return Indication{}, err
		}
		return Indication{OpCode: op, Count: &count}, nil
	default:
		return Indication{}, &codec.DecodeError{Kind: codec.UnexpectedOpCode, Field: "opcode", Value: uint64(op)}
	}
}
