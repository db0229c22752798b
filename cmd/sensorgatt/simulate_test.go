package main

import (
	"strings"
	"testing"

	"github.com/srg/sensorgatt/pkg/racp"
	"github.com/stretchr/testify/suite"
)

type SimulateTestSuite struct {
	CommandTestSuite
}

func (s *SimulateTestSuite) TestReportAll() {
	// GOAL: Verify a full transfer stores every record with its context attached
	//
	// TEST SCENARIO: Five generated records, every second with a meal context → five entries, success

	out, err := s.ExecuteCommand("simulate", "--json")
	s.Require().NoError(err)

	s.JSON().Assert(out, `{
		"command": {"opcode": 1, "operator": 1},
		"indication": {"opcode": 6, "response": {"request_opcode": 1, "code": 1}},
		"records": [
			{"record": {"sequence_number": 1, "context_follows": false}},
			{"record": {"sequence_number": 2, "context_follows": true}, "context": {"sequence_number": 2, "meal": 1}},
			{"record": {"sequence_number": 3, "context_follows": false}},
			{"record": {"sequence_number": 4, "context_follows": true}, "context": {"sequence_number": 4, "meal": 2}},
			{"record": {"sequence_number": 5, "context_follows": false}}
		],
		"pending_contexts": 0,
		"on_meter": 5
	}`)
}

func (s *SimulateTestSuite) TestReportTable() {
	out, err := s.ExecuteCommand("simulate", "--operator", "gte", "--operand", "4")
	s.Require().NoError(err)

	sections := strings.Split(strings.TrimSpace(out), "\n\n")
	s.Require().Len(sections, 3, "output MUST have request, table and summary sections")

	s.Text().Assert(sections[0], `
request:  report_stored_records gte [4] [01040400]
response: response report_stored_records: success
`)
	s.Text().Assert(sections[1], `
SEQ  TIME              CONCENTRATION  SAMPLE                          CONTEXT
4    2024-03-15 19:30  0.00087 kg/L   Capillary Whole blood / Finger  meal=Postprandial (after meal)
5    2024-03-15 23:30  0.00164 kg/L   Capillary Whole blood / Finger  -
`)
	s.Contains(sections[2], "received:         2")
	s.Contains(sections[2], "on_meter:         5")
}

func (s *SimulateTestSuite) TestCountAndLatest() {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "count all",
			args:     []string{"--op", "count", "--operator", "all"},
			expected: `{"indication": {"opcode": 5, "count": {"count": 5}}, "records": []}`,
		},
		{
			name:     "count range",
			args:     []string{"--op", "count", "--operator", "range", "--operand", "2,3"},
			expected: `{"indication": {"count": {"count": 2}}}`,
		},
		{
			name:     "latest sequence number",
			args:     []string{"--op", "latest", "--operator", "null", "--records", "3"},
			expected: `{"indication": {"count": {"count": 3}}}`,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			out, err := s.ExecuteCommand(append([]string{"simulate", "--json"}, tt.args...)...)
			s.Require().NoError(err)
			s.JSON().Assert(out, tt.expected)
		})
	}
}

func (s *SimulateTestSuite) TestDeleteFirst() {
	out, err := s.ExecuteCommand("simulate", "--op", "delete", "--operator", "first", "--json")
	s.Require().NoError(err)
	s.JSON().Assert(out, `{
		"indication": {"response": {"request_opcode": 2, "code": 1}},
		"records": [],
		"on_meter": 4
	}`)
}

func (s *SimulateTestSuite) TestNoRecordsFound() {
	// GOAL: Verify a non-success response is reported and returned as an error
	//
	// TEST SCENARIO: Empty meter, report all → no_records_found in output, ResponseCodeError returned

	out, err := s.ExecuteCommand("simulate", "--records", "0")
	s.Require().Error(err)

	var respErr *racp.ResponseCodeError
	s.Require().ErrorAs(err, &respErr)
	s.Equal(racp.NoRecordsFound, respErr.Code)
	s.Contains(out, "no_records_found")
	s.Equal("meter rejected report_stored_records: no_records_found", FormatUserError(err))
}

func (s *SimulateTestSuite) TestTraceAndBarometer() {
	out, err := s.ExecuteCommand("simulate", "--operator", "first", "--trace", "--pressure", "1013.25", "--json")
	s.Require().NoError(err)

	s.JSON().Assert(out, `{
		"barometer": {"pressure": {"raw": 101325, "value": 1013.25, "unit": "hPa"}},
		"trace": [
			{"seq": 1, "name": "baro-pressure"},
			{"seq": 2, "name": "measurement"},
			{"seq": 3, "name": "racp"}
		]
	}`)
}

func (s *SimulateTestSuite) TestTraceTable() {
	out, err := s.ExecuteCommand("simulate", "--operator", "last", "--records", "2", "--trace")
	s.Require().NoError(err)

	sections := strings.Split(strings.TrimSpace(out), "\n\n")
	s.Require().Len(sections, 4)
	lines := strings.Split(sections[3], "\n")
	s.Require().Len(lines, 4, "trace MUST list measurement, context and response")
	s.Contains(lines[1], "measurement")
	s.Contains(lines[2], "context")
	s.Contains(lines[3], "06 00 01 01")
}

func (s *SimulateTestSuite) TestInvalidArguments() {
	_, err := s.ExecuteCommand("simulate", "--operator", "range", "--operand", "5")
	s.Error(err)

	s.SetupTest()
	_, err = s.ExecuteCommand("simulate", "--records", "-1")
	s.ErrorContains(err, "--records must be between")

	s.SetupTest()
	_, err = s.ExecuteCommand("simulate", "--log-level", "loud")
	s.ErrorContains(err, "invalid log level")
}

func TestSimulateTestSuite(t *testing.T) {
	suite.Run(t, new(SimulateTestSuite))
}
