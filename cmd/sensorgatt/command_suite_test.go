package main

import (
	"bytes"
	"math"

	"github.com/spf13/cobra"
	"github.com/srg/sensorgatt/internal/testutils"
	"github.com/stretchr/testify/suite"
)

// CommandTestSuite runs commands through rootCmd with every flag reset before each test.
// All cmd/sensorgatt suites embed it.
type CommandTestSuite struct {
	suite.Suite
}

func (s *CommandTestSuite) SetupTest() {
	decodeJSON = false
	decodeLenient = false
	racpDecode = ""
	racpJSON = false
	simOp = "report"
	simOperator = "all"
	simOperand = nil
	simRecords = 5
	simInterval = 0
	simTimeout = 0
	simPressure = math.NaN()
	simTrace = false
	simJSON = false

	for _, name := range []string{"log-level", "config"} {
		s.Require().NoError(rootCmd.PersistentFlags().Set(name, ""))
	}
	s.Require().NoError(rootCmd.PersistentFlags().Set("verbose", "false"))
}

// ExecuteCommand runs rootCmd with args, returns output and error.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	return executeCommand(rootCmd, args...)
}

func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// JSON returns an asserter bound to the running test
func (s *CommandTestSuite) JSON() *testutils.JSONAsserter {
	return testutils.NewJSONAsserter(s.T())
}

// Text returns an asserter bound to the running test
func (s *CommandTestSuite) Text() *testutils.TextAsserter {
	return testutils.NewTextAsserter(s.T())
}
